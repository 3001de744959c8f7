package domain

// DefaultKeyPrefix namespaces every storage key written by the service.
const DefaultKeyPrefix = "chirecs:"

// Listing and search limits.
const (
	DefaultNearbyLimit  = 50
	MaxNearbyLimit      = 500
	DefaultNearbyRadius = 1000.0 // meters
	MaxNearbyRadius     = 50_000.0
)
