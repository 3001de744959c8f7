package chirecs

import "github.com/windycity/chirecs/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound              = domain.ErrNotFound
	ErrInvalidRecommendation = domain.ErrInvalidRecommendation
	ErrInvalidCategory       = domain.ErrInvalidCategory
	ErrInvalidQuery          = domain.ErrInvalidQuery
)
