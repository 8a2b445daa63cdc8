package geo

import (
	"strconv"
	"strings"
)

// Bounding box enclosing the national territory. Geocoding results outside
// this rectangle are treated as noise and discarded.
const (
	MinLatitude  = -35.0
	MaxLatitude  = 6.0
	MinLongitude = -82.0
	MaxLongitude = -30.0
)

// ParseCoord parses a coordinate stored as decimal text. It tolerates
// surrounding whitespace, comma decimal separators and internal spaces.
// Anything unparseable yields ok == false, never an error.
func ParseCoord(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidLatLon reports whether the pair lies inside the bounding box.
// The intervals are closed, so the box edges themselves are valid.
func ValidLatLon(lat, lon float64) bool {
	return lat >= MinLatitude && lat <= MaxLatitude &&
		lon >= MinLongitude && lon <= MaxLongitude
}
