package config

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// NewRecordCache builds the short-lived read cache in front of the record
// store. The freshness window is small because every mutation invalidates
// the cache anyway; it only absorbs repeated renders.
func NewRecordCache(ttl time.Duration) *cache.Cache {
	return cache.New(ttl, 2*ttl)
}

// NewLocalityCache builds the long-lived cache for the administrative
// division feeds, which change essentially never.
func NewLocalityCache(ttl time.Duration) *cache.Cache {
	return cache.New(ttl, 2*ttl)
}
