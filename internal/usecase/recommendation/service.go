package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	"github.com/windycity/chirecs/internal/logger"
	"github.com/windycity/chirecs/internal/metrics"
)

// Input is an unvalidated recommendation as submitted by a client or seed file.
type Input struct {
	PlaceType    string
	LocationName string
	Lat          float64
	Lng          float64
	PlaceName    string
}

// CategoryCount is one row of Stats.
type CategoryCount struct {
	Category category.Category
	Count    int64
}

// SeedResult summarizes a Seed run.
type SeedResult struct {
	Cleared  int
	Inserted int
	Errors   int
}

// NearbyQuery selects recommendations around a point.
type NearbyQuery struct {
	Point      geo.Point
	Radius     float64 // meters; 0 uses the default
	Limit      int     // 0 uses the default
	Categories []category.Category
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate() {}

// Service handles recommendation CRUD and keeps the hotspot view informed.
type Service struct {
	repo        Repository
	invalidator Invalidator
	seed        SeedSource
}

// New creates a recommendation service.
func New(repo Repository) *Service {
	return &Service{repo: repo, invalidator: noopInvalidator{}}
}

// WithInvalidator registers the component notified after every mutation.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	if inv != nil {
		s.invalidator = inv
	}
	return s
}

// WithSeedSource configures the sample data for Seed.
func (s *Service) WithSeedSource(src SeedSource) *Service {
	s.seed = src
	return s
}

// Create validates and stores a recommendation.
func (s *Service) Create(ctx context.Context, in Input) (domrec.Recommendation, error) {
	rec, err := domrec.New(in.PlaceType, in.LocationName, in.Lat, in.Lng, in.PlaceName)
	if err != nil {
		return domrec.Recommendation{}, err
	}
	saved, err := s.repo.Create(ctx, &rec)
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("create recommendation: %w", err)
	}
	metrics.RecommendationMutationsTotal.WithLabelValues("create").Inc()
	s.invalidator.Invalidate()
	return saved, nil
}

// Get returns one recommendation.
func (s *Service) Get(ctx context.Context, id int64) (domrec.Recommendation, error) {
	if id <= 0 {
		return domrec.Recommendation{}, domain.ErrNotFound
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domrec.Recommendation{}, fmt.Errorf("get recommendation %d: %w", id, err)
	}
	return rec, nil
}

// List returns recommendations newest first, optionally filtered by category.
func (s *Service) List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error) {
	recs, err := s.repo.List(ctx, cats)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// Delete removes a recommendation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recommendation %d: %w", id, err)
	}
	metrics.RecommendationMutationsTotal.WithLabelValues("delete").Inc()
	s.invalidator.Invalidate()
	return nil
}

// Stats returns the count per category, largest first. Categories without
// recommendations are omitted.
func (s *Service) Stats(ctx context.Context) ([]CategoryCount, error) {
	counts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	order := make(map[category.Category]int)
	for i, c := range category.All() {
		order[c] = i
	}
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		if n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return order[out[i].Category] < order[out[j].Category]
	})
	return out, nil
}

// Seed inserts the configured sample data. With clear set, every existing
// recommendation is removed first. Invalid entries are counted and skipped.
func (s *Service) Seed(ctx context.Context, clear bool) (SeedResult, error) {
	if s.seed == nil {
		return SeedResult{}, errors.New("seed: no seed source configured")
	}
	entries, err := s.seed.Entries()
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: load entries: %w", err)
	}

	var res SeedResult
	log := logger.FromContext(ctx)

	if clear {
		n, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return res, fmt.Errorf("seed: clear: %w", err)
		}
		res.Cleared = n
		metrics.RecommendationMutationsTotal.WithLabelValues("clear").Inc()
	}

	for i, in := range entries {
		if err := ctx.Err(); err != nil {
			s.invalidateAfterSeed(res)
			return res, fmt.Errorf("seed: %w", err)
		}
		rec, err := domrec.New(in.PlaceType, in.LocationName, in.Lat, in.Lng, in.PlaceName)
		if err != nil {
			res.Errors++
			log.Warn("Skipping invalid seed entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if _, err := s.repo.Create(ctx, &rec); err != nil {
			res.Errors++
			log.Error("Seed insert failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		res.Inserted++
	}

	metrics.RecommendationMutationsTotal.WithLabelValues("seed").Add(float64(res.Inserted))
	s.invalidateAfterSeed(res)
	return res, nil
}

func (s *Service) invalidateAfterSeed(res SeedResult) {
	if res.Inserted > 0 || res.Cleared > 0 {
		s.invalidator.Invalidate()
	}
}

// Nearby returns recommendations within a radius of a point, nearest first.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]domrec.Nearby, error) {
	if !q.Point.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidQuery)
	}
	radius := q.Radius
	if radius == 0 {
		radius = domain.DefaultNearbyRadius
	}
	if radius < 0 || radius > domain.MaxNearbyRadius {
		return nil, fmt.Errorf("%w: radius must be in (0, %.0f]", domain.ErrInvalidQuery, domain.MaxNearbyRadius)
	}
	limit := q.Limit
	if limit == 0 {
		limit = domain.DefaultNearbyLimit
	}
	if limit < 0 || limit > domain.MaxNearbyLimit {
		return nil, fmt.Errorf("%w: limit must be in [1, %d]", domain.ErrInvalidQuery, domain.MaxNearbyLimit)
	}

	res, err := s.repo.Nearby(ctx, q.Categories, q.Point, radius, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	return res, nil
}
