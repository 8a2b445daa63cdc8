// Package filter narrows a loaded record set per the user's map
// selections. It is pure: no I/O, deterministic, source order preserved.
package filter

import (
	"sort"
	"strings"

	"github.com/matheusM9/distribuidores-render/models"
)

// Options holds the map selections. CityQuery is a "City - UF" composite;
// when set it short-circuits the state filter and matches directly against
// the full record set, with the distributor selection still applied on top.
type Options struct {
	State        string
	Distributors []string
	CityQuery    string
}

// SplitCityQuery breaks a "City - UF" composite into its parts.
func SplitCityQuery(q string) (city, state string, ok bool) {
	i := strings.LastIndex(q, " - ")
	if i <= 0 || i+3 >= len(q) {
		return "", "", false
	}
	return strings.TrimSpace(q[:i]), strings.TrimSpace(q[i+3:]), true
}

// Apply narrows records by the given selections. Selected distributors not
// present in the set simply match nothing; stale selections never fail.
// Applying the same options twice yields the same result, and empty
// options return the input unchanged.
func Apply(records []models.Record, opts Options) []models.Record {
	out := records

	if city, state, ok := SplitCityQuery(opts.CityQuery); ok {
		out = matchCity(out, city, state)
	} else {
		if opts.State != "" {
			out = matchState(out, opts.State)
		}
	}
	if len(opts.Distributors) > 0 {
		out = matchDistributors(out, opts.Distributors)
	}
	return out
}

// DistributorOptions lists the distinct distributor names available for
// selection, optionally narrowed to one state, sorted for display.
func DistributorOptions(records []models.Record, state string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, rec := range records {
		if state != "" && !strings.EqualFold(rec.State, state) {
			continue
		}
		if rec.Distributor == "" {
			continue
		}
		if _, dup := seen[rec.Distributor]; dup {
			continue
		}
		seen[rec.Distributor] = struct{}{}
		names = append(names, rec.Distributor)
	}
	sort.Strings(names)
	return names
}

func matchState(records []models.Record, state string) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.State), strings.TrimSpace(state)) {
			out = append(out, rec)
		}
	}
	return out
}

func matchCity(records []models.Record, city, state string) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.City), city) &&
			strings.EqualFold(strings.TrimSpace(rec.State), state) {
			out = append(out, rec)
		}
	}
	return out
}

func matchDistributors(records []models.Record, selected []string) []models.Record {
	set := make(map[string]struct{}, len(selected))
	for _, d := range selected {
		set[d] = struct{}{}
	}
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := set[rec.Distributor]; ok {
			out = append(out, rec)
		}
	}
	return out
}
