package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/geo"
)

// Geocoder resolves (city, state) pairs through a Provider, validating
// results against the bounding box and caching every outcome. A cache hit
// short-circuits the external lookup, so each distinct key is looked up at
// most once per cache lifetime. Failed and out-of-box lookups are cached
// as negative entries.
type Geocoder struct {
	provider   Provider
	cache      *cache.Cache
	maxEntries int
}

type cacheEntry struct {
	lat, lon float64
	resolved bool
}

// New builds a Geocoder. ttl bounds how long outcomes are remembered and
// maxEntries caps the cache cardinality (0 = unbounded).
func New(provider Provider, ttl time.Duration, maxEntries int) *Geocoder {
	return &Geocoder{
		provider:   provider,
		cache:      cache.New(ttl, 2*ttl),
		maxEntries: maxEntries,
	}
}

// CacheKey normalizes a city/state pair into the cache key. The separator
// cannot occur in city names, so distinct pairs never collide.
func CacheKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

// Resolve returns the coordinates of a city, or ok == false when the pair
// cannot be resolved to an in-box point. Provider failures never propagate:
// every failure mode degrades to "no coordinates yet".
func (g *Geocoder) Resolve(ctx context.Context, city, state string) (lat, lon float64, ok bool) {
	key := CacheKey(city, state)
	if v, hit := g.cache.Get(key); hit {
		e := v.(cacheEntry)
		return e.lat, e.lon, e.resolved
	}

	entry := g.lookup(ctx, city, state)
	if g.maxEntries <= 0 || g.cache.ItemCount() < g.maxEntries {
		g.cache.Set(key, entry, cache.DefaultExpiration)
	}
	return entry.lat, entry.lon, entry.resolved
}

func (g *Geocoder) lookup(ctx context.Context, city, state string) cacheEntry {
	query := fmt.Sprintf("%s, %s, Brasil", strings.TrimSpace(city), strings.ToUpper(strings.TrimSpace(state)))
	coords, err := g.provider.Geocode(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Str("state", state).Msg("geocode lookup failed")
		return cacheEntry{}
	}
	if coords == nil {
		log.Debug().Str("city", city).Str("state", state).Msg("geocode lookup found nothing")
		return cacheEntry{}
	}
	if !geo.ValidLatLon(coords.Lat, coords.Lon) {
		log.Warn().
			Float64("lat", coords.Lat).
			Float64("lon", coords.Lon).
			Str("city", city).
			Str("state", state).
			Msg("geocode result outside bounding box, discarding")
		return cacheEntry{}
	}
	return cacheEntry{lat: coords.Lat, lon: coords.Lon, resolved: true}
}
