// Package distributors implements the domain operations over the record
// store: create, edit, delete and the map view with its geocode
// reconciliation.
package distributors

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/filter"
	"github.com/matheusM9/distribuidores-render/geo"
	"github.com/matheusM9/distribuidores-render/geocode"
	"github.com/matheusM9/distribuidores-render/models"
	"github.com/matheusM9/distribuidores-render/store"
)

// Service ties the record store, the geocoder and the domain policy
// together. It assumes the single-writer execution model: one interaction
// at a time per process, no cross-call transactions.
type Service struct {
	store    *store.RecordStore
	geocoder *geocode.Geocoder
	capitals geo.CapitalSet
}

// NewService wires the domain service.
func NewService(st *store.RecordStore, gc *geocode.Geocoder, capitals geo.CapitalSet) *Service {
	return &Service{store: st, geocoder: gc, capitals: capitals}
}

// Input is a distributor submission: one distributor covering one or more
// cities of a single state, one row per city.
type Input struct {
	Distributor string   `json:"distributor"`
	Contact     string   `json:"contact"`
	Email       string   `json:"email"`
	State       string   `json:"state"`
	Cities      []string `json:"cities"`
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Distributor) == "" {
		return &models.ValidationError{Field: "distributor", Reason: "must not be empty"}
	}
	if !models.ValidPhone(in.Contact) {
		return &models.ValidationError{Field: "contact", Reason: "expected format (XX) XXXXX-XXXX"}
	}
	if !models.ValidEmail(in.Email) {
		return &models.ValidationError{Field: "email", Reason: "invalid email address"}
	}
	if !models.ValidStateCode(in.State) {
		return &models.ValidationError{Field: "state", Reason: "unknown state code"}
	}
	if len(in.Cities) == 0 {
		return &models.ValidationError{Field: "cities", Reason: "select at least one city"}
	}
	for _, c := range in.Cities {
		if strings.TrimSpace(c) == "" {
			return &models.ValidationError{Field: "cities", Reason: "city name must not be empty"}
		}
	}
	return nil
}

// checkCityConflicts enforces the one-distributor-per-city rule. Cities in
// the capital exemption set may be shared; exclude names the rule should
// ignore (the distributor being edited).
func (s *Service) checkCityConflicts(records []models.Record, in Input, exclude ...string) error {
	excluded := func(name string) bool {
		for _, e := range exclude {
			if strings.TrimSpace(name) == strings.TrimSpace(e) {
				return true
			}
		}
		return false
	}

	for _, city := range in.Cities {
		if s.capitals.Contains(city, in.State) {
			continue
		}
		for _, rec := range records {
			if excluded(rec.Distributor) {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(rec.City), strings.TrimSpace(city)) &&
				strings.EqualFold(strings.TrimSpace(rec.State), strings.TrimSpace(in.State)) {
				return &models.ConflictError{City: city, State: in.State, Distributor: rec.Distributor}
			}
		}
	}
	return nil
}

// buildRecords turns an input into one record per distinct city, geocoding
// each city opportunistically. Repeated city names collapse to the first
// occurrence; unresolvable cities persist without coordinates and are
// retried on a later map render.
func (s *Service) buildRecords(ctx context.Context, in Input) []models.Record {
	recs := make([]models.Record, 0, len(in.Cities))
	seen := make(map[string]struct{}, len(in.Cities))
	for _, city := range in.Cities {
		key := strings.ToLower(strings.TrimSpace(city))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rec := models.Record{
			Distributor: strings.TrimSpace(in.Distributor),
			Contact:     strings.TrimSpace(in.Contact),
			Email:       strings.TrimSpace(in.Email),
			State:       strings.ToUpper(strings.TrimSpace(in.State)),
			City:        strings.TrimSpace(city),
		}
		if lat, lon, ok := s.geocoder.Resolve(ctx, rec.City, rec.State); ok {
			rec.SetCoordinates(lat, lon)
		}
		recs = append(recs, rec)
	}
	return recs
}

// Create registers a new distributor, one row per selected city.
// Validation, duplicate-name and city-conflict checks all happen before
// any write. Append failures are surfaced per row; rows written before a
// failure stay written.
func (s *Service) Create(ctx context.Context, in Input) ([]models.Record, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Distributor)
	for _, rec := range records {
		if strings.TrimSpace(rec.Distributor) == name {
			return nil, &models.DuplicateKeyError{Distributor: name}
		}
	}
	if err := s.checkCityConflicts(records, in); err != nil {
		return nil, err
	}

	recs := s.buildRecords(ctx, in)
	var writeErrs []error
	var written []models.Record
	for _, rec := range recs {
		if err := s.store.Append(ctx, rec); err != nil {
			writeErrs = append(writeErrs, err)
			continue
		}
		written = append(written, rec)
	}
	return written, errors.Join(writeErrs...)
}

// Update replaces a distributor's rows with a fresh set. The first rows
// are overwritten in place, extra rows are appended; when the new set is
// smaller than the old one the whole sheet is rewritten instead. A failure
// partway through the in-place path leaves earlier rows updated, which is
// reported rather than masked.
func (s *Service) Update(ctx context.Context, oldName string, in Input) ([]models.Record, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	oldName = strings.TrimSpace(oldName)
	newName := strings.TrimSpace(in.Distributor)
	if newName != oldName {
		for _, rec := range records {
			if strings.TrimSpace(rec.Distributor) == newName {
				return nil, &models.DuplicateKeyError{Distributor: newName}
			}
		}
	}
	if err := s.checkCityConflicts(records, in, oldName, newName); err != nil {
		return nil, err
	}

	positions, err := s.store.FindPositions(ctx, oldName)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, models.ErrNotFound
	}

	recs := s.buildRecords(ctx, in)

	if len(recs) < len(positions) {
		// Fewer rows than before: a row-targeted update would leave stale
		// leftovers, so rewrite the whole sheet without the old rows.
		kept := make([]models.Record, 0, len(records))
		for _, rec := range records {
			if strings.TrimSpace(rec.Distributor) != oldName {
				kept = append(kept, rec)
			}
		}
		kept = append(kept, recs...)
		if err := s.store.ReplaceAll(ctx, kept); err != nil {
			return nil, err
		}
		return recs, nil
	}

	var writeErrs []error
	for i, rec := range recs {
		if i < len(positions) {
			if err := s.store.UpdateAt(ctx, positions[i], rec); err != nil {
				writeErrs = append(writeErrs, err)
			}
			continue
		}
		if err := s.store.Append(ctx, rec); err != nil {
			writeErrs = append(writeErrs, err)
		}
	}
	return recs, errors.Join(writeErrs...)
}

// Delete removes every row of the distributor via a full rewrite.
func (s *Service) Delete(ctx context.Context, name string) error {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	kept := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Distributor) != name {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return models.ErrNotFound
	}
	return s.store.ReplaceAll(ctx, kept)
}

// List returns every record, coordinates sanitized.
func (s *Service) List(ctx context.Context) ([]models.Record, error) {
	return s.store.LoadAll(ctx)
}

// MapView is the data behind one map render: the narrowed record set, the
// direct city matches when a city query is active, and the viewport.
type MapView struct {
	Records     []models.Record `json:"records"`
	CityMatches []models.Record `json:"city_matches,omitempty"`
	ViewState   geo.ViewState   `json:"view_state"`
}

// View filters the record set, reconciles missing coordinates through the
// geocoder (persisting newly resolved ones back to the store), and derives
// the viewport. On a read failure it degrades to an empty view over the
// fallback centroid and returns the error alongside, so the caller can
// report a stale/empty view instead of crashing.
func (s *Service) View(ctx context.Context, opts filter.Options) (MapView, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return MapView{
			Records:   []models.Record{},
			ViewState: geo.ComputeViewState(nil, strings.ToUpper(opts.State)),
		}, err
	}

	// Reconcile the city matches before narrowing so both record sets
	// carry the same freshly resolved coordinates.
	var cityMatches []models.Record
	var filtered []models.Record
	if _, _, ok := filter.SplitCityQuery(opts.CityQuery); ok {
		cityMatches = s.reconcile(ctx, filter.Apply(records, filter.Options{CityQuery: opts.CityQuery}))
		filtered = filter.Apply(cityMatches, filter.Options{Distributors: opts.Distributors})
	} else {
		filtered = s.reconcile(ctx, filter.Apply(records, opts))
	}

	coords := make([]geo.Coordinate, 0, len(filtered))
	for _, rec := range filtered {
		if rec.HasCoordinates() {
			coords = append(coords, geo.Coordinate{Lat: *rec.Latitude, Lon: *rec.Longitude})
		}
	}

	return MapView{
		Records:     filtered,
		CityMatches: cityMatches,
		ViewState:   geo.ComputeViewState(coords, strings.ToUpper(opts.State)),
	}, nil
}

// reconcile resolves coordinates for records that lack them and writes
// newly resolved pairs back to the store. The geocode cache guarantees at
// most one external lookup per city/state key; the write-back makes the
// resolution durable so later loads skip the pipeline entirely. Write
// failures are logged and retried on a later render.
func (s *Service) reconcile(ctx context.Context, records []models.Record) []models.Record {
	out := append([]models.Record(nil), records...)
	for i := range out {
		if out[i].HasCoordinates() {
			continue
		}
		lat, lon, ok := s.geocoder.Resolve(ctx, out[i].City, out[i].State)
		if !ok {
			continue
		}
		out[i].SetCoordinates(lat, lon)

		pos, found, err := s.store.FindByKey(ctx, out[i].Distributor, out[i].City, out[i].State)
		if err != nil || !found {
			log.Warn().Err(err).
				Str("distributor", out[i].Distributor).
				Str("city", out[i].City).
				Msg("could not locate row for coordinate write-back")
			continue
		}
		if err := s.store.UpdateAt(ctx, pos, out[i]); err != nil {
			log.Warn().Err(err).
				Str("distributor", out[i].Distributor).
				Str("city", out[i].City).
				Msg("coordinate write-back failed")
		}
	}
	return out
}
