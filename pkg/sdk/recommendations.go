package chirecs

import (
	"context"
	"fmt"
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

// RecommendationService manages stored recommendations.
type RecommendationService struct {
	svc recommendationUseCase
	obs *observer
}

// Create validates and stores a recommendation.
func (s *RecommendationService) Create(
	ctx context.Context, in NewRecommendation,
) (_ Recommendation, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.create", start, err) }()

	rec, err := s.svc.Create(ctx, recuc.Input{
		PlaceType:    in.Category,
		LocationName: in.Neighborhood,
		Lat:          in.Lat,
		Lng:          in.Lon,
		PlaceName:    in.PlaceName,
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("create recommendation: %w", err)
	}
	return fromInternal(&rec), nil
}

// Get returns one recommendation by ID.
func (s *RecommendationService) Get(ctx context.Context, id int64) (_ Recommendation, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.get", start, err) }()

	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return Recommendation{}, fmt.Errorf("get recommendation: %w", err)
	}
	return fromInternal(&rec), nil
}

// List returns recommendations newest first, optionally limited to categories.
func (s *RecommendationService) List(
	ctx context.Context, categories ...string,
) (_ []Recommendation, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.list", start, err) }()

	cats, err := parseCategories(categories)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	recs, err := s.svc.List(ctx, cats)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	out := make([]Recommendation, len(recs))
	for i := range recs {
		out[i] = fromInternal(&recs[i])
	}
	return out, nil
}

// Delete removes a recommendation. Returns ErrNotFound when absent.
func (s *RecommendationService) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.delete", start, err) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}
	return nil
}

// Nearby returns recommendations within the query radius, nearest first.
func (s *RecommendationService) Nearby(
	ctx context.Context, q NearbyQuery,
) (_ []NearbyResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.nearby", start, err) }()

	cats, err := parseCategories(q.Categories)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	hits, err := s.svc.Nearby(ctx, recuc.NearbyQuery{
		Point:      geo.Point{Lat: q.Lat, Lon: q.Lon},
		Radius:     q.Radius,
		Limit:      q.Limit,
		Categories: cats,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	out := make([]NearbyResult, len(hits))
	for i := range hits {
		out[i] = NearbyResult{
			Recommendation: fromInternal(&hits[i].Recommendation),
			Distance:       hits[i].Distance,
		}
	}
	return out, nil
}

// Stats returns the count per category, largest first.
func (s *RecommendationService) Stats(ctx context.Context) (_ []CategoryCount, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.stats", start, err) }()

	rows, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	out := make([]CategoryCount, len(rows))
	for i, r := range rows {
		out[i] = CategoryCount{
			Category: string(r.Category),
			Label:    r.Category.Label(),
			Count:    r.Count,
		}
	}
	return out, nil
}

// Seed loads the configured built-in dataset, optionally clearing the store first.
func (s *RecommendationService) Seed(ctx context.Context, clearExisting bool) (_ SeedResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("recommendation.seed", start, err) }()

	res, err := s.svc.Seed(ctx, clearExisting)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: %w", err)
	}
	return SeedResult{Cleared: res.Cleared, Inserted: res.Inserted, Skipped: res.Errors}, nil
}

func fromInternal(r *domrec.Recommendation) Recommendation {
	return Recommendation{
		ID:           r.ID(),
		Category:     string(r.Category()),
		Neighborhood: r.Neighborhood(),
		Lat:          r.Lat(),
		Lon:          r.Lon(),
		PlaceName:    r.PlaceName(),
		CreatedAt:    r.CreatedAt(),
	}
}

// parseCategories validates a category filter; empty means all.
func parseCategories(in []string) ([]category.Category, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]category.Category, 0, len(in))
	for _, s := range in {
		c, err := category.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
