package store

import (
	"context"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/geo"
	"github.com/matheusM9/distribuidores-render/models"
)

const recordsCacheKey = "records:all"

// RecordStore is the record layer over a RowAPI. It owns the sheet schema:
// header initialization, column coercion, coordinate sanitization and the
// short-lived read cache. Every mutating call invalidates the cache so the
// next LoadAll observes the mutation.
type RecordStore struct {
	api   RowAPI
	cache *cache.Cache
}

// NewRecordStore builds a record layer on api. readCache may be nil to
// disable read caching entirely.
func NewRecordStore(api RowAPI, readCache *cache.Cache) *RecordStore {
	return &RecordStore{api: api, cache: readCache}
}

// LoadAll fetches every record, coerced to the fixed column set with
// coordinates sanitized (out-of-box pairs become absent). An empty backing
// store yields an empty slice and lazily rewrites the header. Backing
// store failures surface as a CommunicationError; callers degrade to an
// empty view rather than crash.
func (s *RecordStore) LoadAll(ctx context.Context) ([]models.Record, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(recordsCacheKey); ok {
			cached := v.([]models.Record)
			return append([]models.Record(nil), cached...), nil
		}
	}

	rows, err := s.api.LoadAllRows(ctx)
	if err != nil {
		return nil, &models.CommunicationError{Op: "loading records", Err: err}
	}

	if len(rows) == 0 {
		// Empty sheet: re-initialize the header so later appends land in
		// a well-formed table. Best effort, a failure here is not fatal.
		if err := s.api.ReplaceAll(ctx, models.Columns, nil); err != nil {
			log.Warn().Err(err).Msg("could not initialize sheet header")
		}
		return []models.Record{}, nil
	}

	idx := headerIndex(rows[0])
	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(row, idx))
	}

	if s.cache != nil {
		s.cache.Set(recordsCacheKey, append([]models.Record(nil), records...), cache.DefaultExpiration)
	}
	return records, nil
}

// Append persists exactly one new record. On failure the existing rows are
// left untouched.
func (s *RecordStore) Append(ctx context.Context, rec models.Record) error {
	if err := s.api.AppendRow(ctx, rec.Row()); err != nil {
		return &models.CommunicationError{Op: "appending record", Err: err}
	}
	s.Invalidate()
	return nil
}

// FindByKey locates the first row matching the distributor/city/state
// triple. Distributor matching is exact after trimming, city and state are
// case-insensitive. The returned index feeds UpdateAt.
func (s *RecordStore) FindByKey(ctx context.Context, distributor, city, state string) (int, bool, error) {
	rows, err := s.api.LoadAllRows(ctx)
	if err != nil {
		return 0, false, &models.CommunicationError{Op: "searching records", Err: err}
	}
	if len(rows) < 2 {
		return 0, false, nil
	}

	idx := headerIndex(rows[0])
	for i, row := range rows[1:] {
		if strings.TrimSpace(cell(row, idx[models.ColDistributor])) != strings.TrimSpace(distributor) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(cell(row, idx[models.ColCity])), strings.TrimSpace(city)) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(cell(row, idx[models.ColState])), strings.TrimSpace(state)) {
			continue
		}
		return i + 2, true, nil
	}
	return 0, false, nil
}

// FindPositions returns the 1-based row indexes of every row belonging to
// the distributor, in sheet order.
func (s *RecordStore) FindPositions(ctx context.Context, distributor string) ([]int, error) {
	rows, err := s.api.LoadAllRows(ctx)
	if err != nil {
		return nil, &models.CommunicationError{Op: "searching records", Err: err}
	}
	if len(rows) < 2 {
		return nil, nil
	}

	idx := headerIndex(rows[0])
	var positions []int
	for i, row := range rows[1:] {
		if strings.TrimSpace(cell(row, idx[models.ColDistributor])) == strings.TrimSpace(distributor) {
			positions = append(positions, i+2)
		}
	}
	return positions, nil
}

// UpdateAt overwrites one row in place.
func (s *RecordStore) UpdateAt(ctx context.Context, index int, rec models.Record) error {
	if err := s.api.UpdateRow(ctx, index, rec.Row()); err != nil {
		return &models.CommunicationError{Op: "updating record", Err: err}
	}
	s.Invalidate()
	return nil
}

// ReplaceAll rewrites the whole sheet from the given record set. Used for
// delete-by-distributor and shrinking edits; the backend makes the rewrite
// atomic where it can, and on failure the caller must not assume partial
// success.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []models.Record) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}
	if err := s.api.ReplaceAll(ctx, models.Columns, rows); err != nil {
		return &models.CommunicationError{Op: "rewriting records", Err: err}
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the read cache so the next LoadAll hits the backend.
func (s *RecordStore) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(recordsCacheKey)
	}
}

// headerIndex maps each fixed column to its position in the actual header,
// -1 when the column is missing (its values default to empty).
func headerIndex(header []string) []int {
	idx := make([]int, len(models.Columns))
	for i, want := range models.Columns {
		idx[i] = -1
		for j, got := range header {
			if strings.EqualFold(strings.TrimSpace(got), want) {
				idx[i] = j
				break
			}
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func recordFromRow(row []string, idx []int) models.Record {
	rec := models.Record{
		Distributor: cell(row, idx[models.ColDistributor]),
		Contact:     cell(row, idx[models.ColContact]),
		Email:       cell(row, idx[models.ColEmail]),
		State:       cell(row, idx[models.ColState]),
		City:        cell(row, idx[models.ColCity]),
	}
	lat, latOK := geo.ParseCoord(cell(row, idx[models.ColLatitude]))
	lon, lonOK := geo.ParseCoord(cell(row, idx[models.ColLongitude]))
	if latOK && lonOK && geo.ValidLatLon(lat, lon) {
		rec.SetCoordinates(lat, lon)
	}
	return rec
}
