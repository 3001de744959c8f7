package hotspot

import (
	"context"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// Source lists the recommendations a generation is built from.
type Source interface {
	List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error)
}

// Publisher pushes a freshly built generation to an external consumer.
type Publisher interface {
	Publish(ctx context.Context, gen *domhot.Generation) error
}
