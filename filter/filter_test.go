package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matheusM9/distribuidores-render/models"
)

func rec(distributor, city, state string) models.Record {
	return models.Record{
		Distributor: distributor,
		Contact:     "(11) 91234-5678",
		Email:       "a@b.com",
		State:       state,
		City:        city,
	}
}

func sample() []models.Record {
	return []models.Record{
		rec("Acme", "Campinas", "SP"),
		rec("Beta", "Santos", "SP"),
		rec("Gamma", "Niterói", "RJ"),
		rec("Acme", "Curitiba", "PR"),
	}
}

func TestApplyNoFiltersReturnsInputUnchanged(t *testing.T) {
	in := sample()
	out := Apply(in, Options{})
	assert.Equal(t, in, out)
}

func TestApplyStateFilter(t *testing.T) {
	out := Apply(sample(), Options{State: "SP"})
	assert.Equal(t, []models.Record{
		rec("Acme", "Campinas", "SP"),
		rec("Beta", "Santos", "SP"),
	}, out)
}

func TestApplyDistributorFilter(t *testing.T) {
	out := Apply(sample(), Options{Distributors: []string{"Acme"}})
	assert.Equal(t, []models.Record{
		rec("Acme", "Campinas", "SP"),
		rec("Acme", "Curitiba", "PR"),
	}, out)
}

func TestApplyStaleDistributorSelectionMatchesNothing(t *testing.T) {
	out := Apply(sample(), Options{Distributors: []string{"Gone Inc"}})
	assert.Empty(t, out)
}

func TestApplyCityQueryShortCircuitsState(t *testing.T) {
	// The city search ignores the state narrowing: a city query for RJ
	// with an SP state filter still returns the RJ match.
	out := Apply(sample(), Options{State: "SP", CityQuery: "Niterói - RJ"})
	assert.Equal(t, []models.Record{rec("Gamma", "Niterói", "RJ")}, out)
}

func TestApplyCityQueryCaseInsensitive(t *testing.T) {
	out := Apply(sample(), Options{CityQuery: "campinas - sp"})
	assert.Equal(t, []models.Record{rec("Acme", "Campinas", "SP")}, out)
}

func TestApplyCityQueryWithDistributorNarrowing(t *testing.T) {
	records := append(sample(), rec("Delta", "Campinas", "SP"))

	out := Apply(records, Options{CityQuery: "Campinas - SP", Distributors: []string{"Delta"}})
	assert.Equal(t, []models.Record{rec("Delta", "Campinas", "SP")}, out)
}

func TestApplyCityQueryNoMatch(t *testing.T) {
	out := Apply(sample(), Options{CityQuery: "Manaus - AM"})
	assert.Empty(t, out)
}

func TestApplyIdempotent(t *testing.T) {
	opts := Options{State: "SP", Distributors: []string{"Acme", "Beta"}}
	once := Apply(sample(), opts)
	twice := Apply(once, opts)
	assert.Equal(t, once, twice)
}

func TestApplyPreservesSourceOrder(t *testing.T) {
	in := []models.Record{
		rec("Zeta", "Santos", "SP"),
		rec("Acme", "Campinas", "SP"),
	}
	out := Apply(in, Options{State: "SP"})
	assert.Equal(t, in, out, "no sorting is applied")
}

func TestSplitCityQuery(t *testing.T) {
	city, state, ok := SplitCityQuery("São José dos Campos - SP")
	assert.True(t, ok)
	assert.Equal(t, "São José dos Campos", city)
	assert.Equal(t, "SP", state)

	_, _, ok = SplitCityQuery("")
	assert.False(t, ok)
	_, _, ok = SplitCityQuery("Campinas")
	assert.False(t, ok)
}

func TestDistributorOptions(t *testing.T) {
	opts := DistributorOptions(sample(), "")
	assert.Equal(t, []string{"Acme", "Beta", "Gamma"}, opts, "sorted and de-duplicated")

	opts = DistributorOptions(sample(), "SP")
	assert.Equal(t, []string{"Acme", "Beta"}, opts)
}
