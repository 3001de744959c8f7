package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	SetStore
	GeoStore
	Counter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SetStore provides unordered set operations used for secondary indexes.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// GeoHit is one GEOSEARCH result.
type GeoHit struct {
	Member   string
	Distance float64 // meters
}

// GeoMaxLatitude is the largest absolute latitude a Redis/Valkey geo set accepts.
const GeoMaxLatitude = 85.05112878

// GeoStore provides geospatial set operations.
type GeoStore interface {
	GeoAdd(ctx context.Context, key string, lon, lat float64, member string) error
	GeoRemove(ctx context.Context, key string, members ...string) error
	// GeoSearch returns members within radius meters of (lon, lat), nearest first.
	// limit <= 0 means unbounded.
	GeoSearch(ctx context.Context, key string, lon, lat, radius float64, limit int) ([]GeoHit, error)
}

// Counter provides atomic sequence generation.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}
