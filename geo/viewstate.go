package geo

// Coordinate is a validated latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// ViewState is the map viewport: center plus zoom level. It is derived on
// every render and never persisted.
type ViewState struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      int     `json:"zoom"`
}

// NationalView centers the map on the whole country.
var NationalView = ViewState{CenterLat: -14.2350, CenterLon: -51.9253, Zoom: 5}

// StateCentroids holds a fixed per-state fallback viewport, used when a
// state is selected but no valid coordinates are available.
var StateCentroids = map[string]ViewState{
	"AC": {-8.77, -70.55, 6},
	"AL": {-9.62, -36.82, 7},
	"AP": {1.41, -51.77, 6},
	"AM": {-3.07, -61.67, 5},
	"BA": {-13.29, -41.71, 6},
	"CE": {-5.20, -39.53, 7},
	"DF": {-15.79, -47.88, 10},
	"ES": {-19.19, -40.34, 8},
	"GO": {-16.64, -49.31, 7},
	"MA": {-2.55, -44.30, 6},
	"MT": {-12.64, -55.42, 5},
	"MS": {-20.51, -54.54, 6},
	"MG": {-18.10, -44.38, 6},
	"PA": {-5.53, -52.29, 5},
	"PB": {-7.06, -35.55, 7},
	"PR": {-24.89, -51.55, 7},
	"PE": {-8.28, -35.07, 7},
	"PI": {-7.71, -42.73, 6},
	"RJ": {-22.90, -43.20, 8},
	"RN": {-5.22, -36.52, 7},
	"RS": {-30.03, -51.23, 6},
	"RO": {-10.83, -63.34, 6},
	"RR": {2.82, -60.67, 6},
	"SC": {-27.33, -49.44, 7},
	"SP": {-22.19, -48.79, 7},
	"SE": {-10.90, -37.07, 7},
	"TO": {-9.45, -48.26, 6},
}

// minSpan substitutes a zero span when all points coincide, so a single
// marker still gets the tightest zoom tier.
const minSpan = 0.01

// zoomForSpan maps the coordinate spread to a zoom level. Tighter span,
// higher zoom.
func zoomForSpan(span float64) int {
	switch {
	case span < 0.02:
		return 13
	case span < 0.2:
		return 11
	case span < 1.0:
		return 9
	case span < 3.0:
		return 8
	default:
		return 6
	}
}

// ComputeViewState derives the viewport for a set of coordinates. With no
// coordinates it falls back to the state centroid (when a state is given)
// or the national view. It always returns a usable viewport.
func ComputeViewState(coords []Coordinate, state string) ViewState {
	if len(coords) == 0 {
		if vs, ok := StateCentroids[state]; ok {
			return vs
		}
		return NationalView
	}

	minLat, maxLat := coords[0].Lat, coords[0].Lat
	minLon, maxLon := coords[0].Lon, coords[0].Lon
	sumLat, sumLon := 0.0, 0.0
	for _, c := range coords {
		sumLat += c.Lat
		sumLon += c.Lon
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lon < minLon {
			minLon = c.Lon
		}
		if c.Lon > maxLon {
			maxLon = c.Lon
		}
	}

	n := float64(len(coords))
	span := maxLat - minLat
	if lonSpan := maxLon - minLon; lonSpan > span {
		span = lonSpan
	}
	if span < minSpan {
		span = minSpan
	}

	return ViewState{
		CenterLat: sumLat / n,
		CenterLon: sumLon / n,
		Zoom:      zoomForSpan(span),
	}
}
