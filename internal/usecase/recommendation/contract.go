package recommendation

import (
	"context"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// Repository defines the storage contract for recommendations.
type Repository interface {
	Create(ctx context.Context, rec *domrec.Recommendation) (domrec.Recommendation, error)
	Get(ctx context.Context, id int64) (domrec.Recommendation, error)
	List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context) (map[category.Category]int64, error)
	Nearby(ctx context.Context, cats []category.Category, p geo.Point, radius float64, limit int) ([]domrec.Nearby, error)
}

// Invalidator is told whenever the stored set changes.
type Invalidator interface {
	Invalidate()
}

// SeedSource provides the sample data used by Seed.
type SeedSource interface {
	Entries() ([]Input, error)
}
