package models

import (
	"regexp"
	"strconv"
	"strings"
)

// Columns is the fixed header of the backing row store. Every row holds the
// seven fields in this order, coordinates as decimal text (empty = absent).
var Columns = []string{"Distribuidor", "Contato", "Email", "Estado", "Cidade", "Latitude", "Longitude"}

// Column positions inside a raw row.
const (
	ColDistributor = iota
	ColContact
	ColEmail
	ColState
	ColCity
	ColLatitude
	ColLongitude
)

// StateCodes enumerates the valid two-letter state codes.
var StateCodes = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT", "MS", "MG",
	"PA", "PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// Record is one distributor row. Latitude/Longitude are nil while the
// city has not been geocoded (or the geocoded point fell outside the
// bounding box).
type Record struct {
	Distributor string   `json:"distributor"`
	Contact     string   `json:"contact"`
	Email       string   `json:"email"`
	State       string   `json:"state"`
	City        string   `json:"city"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SetCoordinates stores a resolved coordinate pair.
func (r *Record) SetCoordinates(lat, lon float64) {
	r.Latitude = &lat
	r.Longitude = &lon
}

// ClearCoordinates marks the record as unresolved.
func (r *Record) ClearCoordinates() {
	r.Latitude = nil
	r.Longitude = nil
}

// Row serializes the record in the fixed column order.
func (r Record) Row() []string {
	lat, lon := "", ""
	if r.HasCoordinates() {
		lat = strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
		lon = strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
	}
	return []string{r.Distributor, r.Contact, r.Email, r.State, r.City, lat, lon}
}

var (
	phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{4,5}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
)

// ValidPhone reports whether the contact matches the (XX) XXXXX-XXXX format.
func ValidPhone(contact string) bool {
	return phonePattern.MatchString(strings.TrimSpace(contact))
}

// ValidEmail reports whether the address has a plausible mailbox syntax.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidStateCode reports whether code is one of the known state codes.
func ValidStateCode(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range StateCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Validate checks the record fields that must hold before any write.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Distributor) == "" {
		return &ValidationError{Field: "distributor", Reason: "must not be empty"}
	}
	if !ValidPhone(r.Contact) {
		return &ValidationError{Field: "contact", Reason: "expected format (XX) XXXXX-XXXX"}
	}
	if !ValidEmail(r.Email) {
		return &ValidationError{Field: "email", Reason: "invalid email address"}
	}
	if !ValidStateCode(r.State) {
		return &ValidationError{Field: "state", Reason: "unknown state code"}
	}
	if strings.TrimSpace(r.City) == "" {
		return &ValidationError{Field: "city", Reason: "must not be empty"}
	}
	return nil
}
