// Package geocode resolves city/state pairs to coordinates through an
// external lookup service, with a bounded in-process cache in front of it.
package geocode

import "context"

// Coordinates is a geocoded point as returned by a provider, before any
// bounding-box validation.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Provider wraps an external geocoding service. A nil result with a nil
// error means the query did not resolve to any place.
type Provider interface {
	Geocode(ctx context.Context, query string) (*Coordinates, error)
}
