package recommendation

import (
	"strings"
	"time"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
)

// MaxTextLength is the maximum rune length kept for free-text fields.
const MaxTextLength = 255

// UnknownNeighborhood labels recommendations stored without a neighborhood.
const UnknownNeighborhood = "Unknown"

// Recommendation is a user-submitted place suggestion (immutable value object).
type Recommendation struct {
	id           int64
	category     category.Category
	neighborhood string
	lat          float64
	lon          float64
	placeName    string
	createdAt    time.Time
}

// New validates and creates a Recommendation.
// Category must be one of category.All(). Neighborhood is required after trimming.
// Strings are trimmed and truncated to MaxTextLength runes.
func New(cat, neighborhood string, lat, lon float64, placeName string) (Recommendation, error) {
	c, err := category.Parse(cat)
	if err != nil {
		return Recommendation{}, domain.NewFieldError(domain.ErrInvalidRecommendation, "placeType",
			"must be one of "+joinCategories())
	}
	neighborhood = Sanitize(neighborhood)
	if neighborhood == "" {
		return Recommendation{}, domain.NewFieldError(domain.ErrInvalidRecommendation, "locationName",
			"is required")
	}
	// Negated so NaN fails too.
	if !(lat >= -90 && lat <= 90) {
		return Recommendation{}, domain.NewFieldError(domain.ErrInvalidRecommendation, "lat",
			"must be between -90 and 90")
	}
	if !(lon >= -180 && lon <= 180) {
		return Recommendation{}, domain.NewFieldError(domain.ErrInvalidRecommendation, "lng",
			"must be between -180 and 180")
	}

	return Recommendation{
		category:     c,
		neighborhood: neighborhood,
		lat:          lat,
		lon:          lon,
		placeName:    Sanitize(placeName),
	}, nil
}

// Reconstruct creates a Recommendation without validation (storage hydration).
func Reconstruct(
	id int64, cat category.Category, neighborhood string, lat, lon float64,
	placeName string, createdAt time.Time,
) Recommendation {
	return Recommendation{
		id: id, category: cat, neighborhood: neighborhood, lat: lat, lon: lon,
		placeName: placeName, createdAt: createdAt,
	}
}

// Sanitize trims s and truncates it to MaxTextLength runes.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= MaxTextLength {
		return s
	}
	r := []rune(s)
	if len(r) > MaxTextLength {
		r = r[:MaxTextLength]
	}
	return string(r)
}

// ID returns the storage-assigned identifier (0 before persistence).
func (r *Recommendation) ID() int64 { return r.id }

// Category returns the place type.
func (r *Recommendation) Category() category.Category { return r.category }

// Neighborhood returns the location label.
func (r *Recommendation) Neighborhood() string { return r.neighborhood }

// NeighborhoodKey returns the grouping key, "Unknown" for an empty label.
func (r *Recommendation) NeighborhoodKey() string {
	if r.neighborhood == "" {
		return UnknownNeighborhood
	}
	return r.neighborhood
}

// Lat returns latitude in degrees.
func (r *Recommendation) Lat() float64 { return r.lat }

// Lon returns longitude in degrees.
func (r *Recommendation) Lon() float64 { return r.lon }

// Point returns the coordinates as a geo.Point.
func (r *Recommendation) Point() geo.Point { return geo.Point{Lat: r.lat, Lon: r.lon} }

// PlaceName returns the optional place name.
func (r *Recommendation) PlaceName() string { return r.placeName }

// CreatedAt returns the creation timestamp.
func (r *Recommendation) CreatedAt() time.Time { return r.createdAt }

// DisplayName falls back to the neighborhood when no place name was given.
func (r *Recommendation) DisplayName() string {
	if r.placeName != "" {
		return r.placeName
	}
	return r.NeighborhoodKey()
}

// WithID returns a copy carrying the storage identity.
func (r *Recommendation) WithID(id int64, createdAt time.Time) Recommendation {
	c := *r
	c.id = id
	c.createdAt = createdAt
	return c
}

func joinCategories() string {
	all := category.All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Nearby is a recommendation with its distance from a query point.
type Nearby struct {
	Recommendation Recommendation
	Distance       float64 // meters
}
