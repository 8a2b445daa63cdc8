package distributors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusM9/distribuidores-render/filter"
	"github.com/matheusM9/distribuidores-render/geo"
	"github.com/matheusM9/distribuidores-render/geocode"
	"github.com/matheusM9/distribuidores-render/models"
	"github.com/matheusM9/distribuidores-render/store"
)

// mapProvider answers geocode lookups from a fixed city table and counts
// external calls, so tests can assert the at-most-once lookup guarantee.
type mapProvider struct {
	calls   int
	results map[string]geocode.Coordinates
}

func (p *mapProvider) Geocode(_ context.Context, query string) (*geocode.Coordinates, error) {
	p.calls++
	city, _, _ := strings.Cut(query, ",")
	if c, ok := p.results[city]; ok {
		return &geocode.Coordinates{Lat: c.Lat, Lon: c.Lon}, nil
	}
	return nil, nil
}

func newTestService(provider geocode.Provider) (*Service, *store.RecordStore) {
	rs := store.NewRecordStore(store.NewMemory(), cache.New(5*time.Minute, 10*time.Minute))
	gc := geocode.New(provider, time.Hour, 0)
	return NewService(rs, gc, geo.DefaultCapitals()), rs
}

func validInput() Input {
	return Input{
		Distributor: "Acme",
		Contact:     "(11) 91234-5678",
		Email:       "a@b.com",
		State:       "SP",
		Cities:      []string{"Campinas"},
	}
}

func TestCreateGeocodesAndPersists(t *testing.T) {
	provider := &mapProvider{results: map[string]geocode.Coordinates{
		"Campinas": {Lat: -22.90, Lon: -47.06},
	}}
	svc, rs := newTestService(provider)
	ctx := context.Background()

	written, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Len(t, written, 1)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].HasCoordinates())
	assert.Equal(t, -22.90, *records[0].Latitude)
	assert.Equal(t, -47.06, *records[0].Longitude)
	assert.Equal(t, "Acme", records[0].Distributor)
	assert.Equal(t, 1, provider.calls)
}

func TestCreateOutOfBoxResultStoredWithoutCoordinates(t *testing.T) {
	provider := &mapProvider{results: map[string]geocode.Coordinates{
		"Campinas": {Lat: 40.0, Lon: -70.0},
	}}
	svc, rs := newTestService(provider)
	ctx := context.Background()

	written, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.False(t, written[0].HasCoordinates())

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].HasCoordinates(), "implausible coordinates are never persisted")
}

func TestCreateOneRowPerCity(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "Sorocaba", "Santos"}
	written, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Sorocaba", records[1].City)
}

func TestCreateDuplicateName(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Cities = []string{"Santos"}
	_, err = svc.Create(ctx, in)

	var dup *models.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Acme", dup.Distributor)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "rejected create writes nothing")
}

func TestCreateCityConflict(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Distributor = "Beta"
	in.Cities = []string{"Santos", "campinas"}
	_, err = svc.Create(ctx, in)

	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict, "city occupancy is case-insensitive")
	assert.Equal(t, "Acme", conflict.Distributor)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "conflicting create writes nothing, not even the free city")
}

func TestCreateCapitalCityShared(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"São Paulo"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	in.Distributor = "Beta"
	_, err = svc.Create(ctx, in)
	assert.NoError(t, err, "capitals may host multiple distributors")
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"empty distributor", func(in *Input) { in.Distributor = "  " }, "distributor"},
		{"bad phone", func(in *Input) { in.Contact = "11 91234-5678" }, "contact"},
		{"bad email", func(in *Input) { in.Email = "not-an-email" }, "email"},
		{"unknown state", func(in *Input) { in.State = "XX" }, "state"},
		{"no cities", func(in *Input) { in.Cities = nil }, "cities"},
		{"blank city", func(in *Input) { in.Cities = []string{" "} }, "cities"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUpdateInPlaceAndAppend(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "Sorocaba"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	in.Contact = "(11) 98888-7777"
	in.Cities = []string{"Campinas", "Sorocaba", "Santos"}
	updated, err := svc.Update(ctx, "Acme", in)
	require.NoError(t, err)
	assert.Len(t, updated, 3)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, "(11) 98888-7777", rec.Contact)
	}
	assert.Equal(t, "Santos", records[2].City, "extra city appended after the reused rows")
}

func TestUpdateShrinkRewritesWithoutLeftovers(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "Sorocaba", "Santos"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	other := validInput()
	other.Distributor = "Beta"
	other.Cities = []string{"Bauru"}
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	in.Cities = []string{"Campinas"}
	updated, err := svc.Update(ctx, "Acme", in)
	require.NoError(t, err)
	assert.Len(t, updated, 1)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Beta", records[0].Distributor, "unrelated rows survive the rewrite")
	assert.Equal(t, "Acme", records[1].Distributor)
	assert.Equal(t, "Campinas", records[1].City)
}

func TestUpdateRename(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Distributor = "Acme Ltda"
	_, err = svc.Update(ctx, "Acme", in)
	require.NoError(t, err)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme Ltda", records[0].Distributor)
}

func TestUpdateRenameToExistingName(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	other := validInput()
	other.Distributor = "Beta"
	other.Cities = []string{"Santos"}
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	in := validInput()
	in.Distributor = "Beta"
	_, err = svc.Update(ctx, "Acme", in)

	var dup *models.DuplicateKeyError
	assert.ErrorAs(t, err, &dup)
}

func TestUpdateKeepingOwnCityIsNotAConflict(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Contact = "(11) 90000-0000"
	_, err = svc.Update(ctx, "Acme", in)
	assert.NoError(t, err, "a distributor's own rows never conflict with its edit")
}

func TestUpdateUnknownDistributor(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})

	_, err := svc.Update(context.Background(), "Ghost", validInput())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "Sorocaba"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	other := validInput()
	other.Distributor = "Beta"
	other.Cities = []string{"Santos"}
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "Acme"))

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Beta", records[0].Distributor)

	assert.ErrorIs(t, svc.Delete(ctx, "Acme"), models.ErrNotFound)
}

func TestViewReconcilesMissingCoordinates(t *testing.T) {
	// The provider knows nothing at create time, so the row persists
	// without coordinates.
	provider := &mapProvider{results: map[string]geocode.Coordinates{}}
	svc, rs := newTestService(provider)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)

	// The city becomes resolvable but the first lookup's negative result
	// is still cached, so the next render does not retry.
	provider.results["Campinas"] = geocode.Coordinates{Lat: -22.90, Lon: -47.06}
	view, err := svc.View(ctx, filter.Options{})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	assert.False(t, view.Records[0].HasCoordinates())
	assert.Equal(t, 1, provider.calls, "negative cache suppresses the retry")

	// With a fresh geocoder the render resolves the city and persists the
	// coordinates back to the store.
	svc.geocoder = geocode.New(provider, time.Hour, 0)
	view, err = svc.View(ctx, filter.Options{})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	require.True(t, view.Records[0].HasCoordinates())
	assert.Equal(t, 13, view.ViewState.Zoom)

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.True(t, records[0].HasCoordinates(), "resolution is written back")
	assert.Equal(t, -22.90, *records[0].Latitude)
	assert.Equal(t, 2, provider.calls)
}

func TestViewCitySearchNoMatches(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	view, err := svc.View(ctx, filter.Options{State: "SP", CityQuery: "Manaus - AM"})
	require.NoError(t, err)
	assert.Empty(t, view.Records)
	assert.Empty(t, view.CityMatches)
	assert.Equal(t, geo.StateCentroids["SP"], view.ViewState, "empty result keeps the state viewport")

	view, err = svc.View(ctx, filter.Options{CityQuery: "Manaus - AM"})
	require.NoError(t, err)
	assert.Equal(t, geo.NationalView, view.ViewState)
}

func TestViewCitySearchIgnoresStateFilter(t *testing.T) {
	svc, _ := newTestService(&mapProvider{})
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	view, err := svc.View(ctx, filter.Options{State: "RJ", CityQuery: "Campinas - SP"})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	require.Len(t, view.CityMatches, 1)
	assert.Equal(t, "Campinas", view.CityMatches[0].City)
}

func TestCreateDuplicateCitiesCollapse(t *testing.T) {
	svc, rs := newTestService(&mapProvider{})
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "campinas", " Campinas ", "Sorocaba"}
	written, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Len(t, written, 2, "repeated city names collapse to one row")

	records, err := rs.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Campinas", records[0].City)
	assert.Equal(t, "Sorocaba", records[1].City)
}

func TestViewCityMatchesCarryReconciledCoordinates(t *testing.T) {
	provider := &mapProvider{}
	svc, _ := newTestService(provider)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	// The city resolves only after the create, on the render itself.
	provider.results = map[string]geocode.Coordinates{
		"Campinas": {Lat: -22.90, Lon: -47.06},
	}
	svc.geocoder = geocode.New(provider, time.Hour, 0)

	view, err := svc.View(ctx, filter.Options{CityQuery: "Campinas - SP"})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	require.Len(t, view.CityMatches, 1)
	require.True(t, view.Records[0].HasCoordinates())
	require.True(t, view.CityMatches[0].HasCoordinates(),
		"city matches see the same render's resolutions")
	assert.Equal(t, *view.Records[0].Latitude, *view.CityMatches[0].Latitude)
}

// flakyAppendAPI accepts a limited number of appends and fails the rest,
// leaving reads and in-place updates working.
type flakyAppendAPI struct {
	*store.Memory
	okAppends int
	appends   int
}

func (f *flakyAppendAPI) AppendRow(ctx context.Context, values []string) error {
	f.appends++
	if f.appends > f.okAppends {
		return errors.New("backend unreachable")
	}
	return f.Memory.AppendRow(ctx, values)
}

func TestCreatePartialWriteFailureSurfaced(t *testing.T) {
	api := &flakyAppendAPI{Memory: store.NewMemory(), okAppends: 1}
	rs := store.NewRecordStore(api, nil)
	svc := NewService(rs, geocode.New(&mapProvider{}, time.Hour, 0), geo.DefaultCapitals())
	ctx := context.Background()

	in := validInput()
	in.Cities = []string{"Campinas", "Sorocaba"}
	written, err := svc.Create(ctx, in)

	var commErr *models.CommunicationError
	require.ErrorAs(t, err, &commErr, "the failed row is reported, not masked")
	require.Len(t, written, 1, "rows written before the failure stay written")
	assert.Equal(t, "Campinas", written[0].City)

	records, loadErr := rs.LoadAll(ctx)
	require.NoError(t, loadErr)
	require.Len(t, records, 1)
	assert.Equal(t, "Campinas", records[0].City)
}

func TestUpdatePartialWriteFailureSurfaced(t *testing.T) {
	api := &flakyAppendAPI{Memory: store.NewMemory(), okAppends: 0}
	rs := store.NewRecordStore(api, nil)
	svc := NewService(rs, geocode.New(&mapProvider{}, time.Hour, 0), geo.DefaultCapitals())
	ctx := context.Background()

	require.NoError(t, api.Memory.ReplaceAll(ctx, models.Columns, [][]string{
		{"Acme", "(11) 91234-5678", "a@b.com", "SP", "Campinas", "", ""},
		{"Acme", "(11) 91234-5678", "a@b.com", "SP", "Sorocaba", "", ""},
	}))

	in := validInput()
	in.Contact = "(11) 98888-7777"
	in.Cities = []string{"Campinas", "Sorocaba", "Santos"}
	_, err := svc.Update(ctx, "Acme", in)

	var commErr *models.CommunicationError
	require.ErrorAs(t, err, &commErr, "the failed append is reported alongside the applied updates")

	records, loadErr := rs.LoadAll(ctx)
	require.NoError(t, loadErr)
	require.Len(t, records, 2, "the extra row never landed")
	for _, rec := range records {
		assert.Equal(t, "(11) 98888-7777", rec.Contact, "in-place updates before the failure persist")
	}
}

type failingAPI struct{}

func (failingAPI) LoadAllRows(context.Context) ([][]string, error) {
	return nil, errors.New("backend unreachable")
}
func (failingAPI) AppendRow(context.Context, []string) error { return errors.New("backend unreachable") }
func (failingAPI) UpdateRow(context.Context, int, []string) error {
	return errors.New("backend unreachable")
}
func (failingAPI) ReplaceAll(context.Context, []string, [][]string) error {
	return errors.New("backend unreachable")
}
func (failingAPI) Clear(context.Context) error { return errors.New("backend unreachable") }

func TestViewDegradesOnStoreFailure(t *testing.T) {
	rs := store.NewRecordStore(failingAPI{}, nil)
	svc := NewService(rs, geocode.New(&mapProvider{}, time.Hour, 0), geo.DefaultCapitals())

	view, err := svc.View(context.Background(), filter.Options{State: "SP"})

	var commErr *models.CommunicationError
	require.ErrorAs(t, err, &commErr, "the failure is reported, not swallowed")
	assert.Empty(t, view.Records, "an empty view is still rendered")
	assert.Equal(t, geo.StateCentroids["SP"], view.ViewState)
}
