package chirecs

import (
	"context"
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	"github.com/windycity/chirecs/internal/transport/geojson"
	healthuc "github.com/windycity/chirecs/internal/usecase/health"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

// --- recommendationUseCase mock ---

type mockRecommendationUC struct {
	createFn func(ctx context.Context, in recuc.Input) (domrec.Recommendation, error)
	getFn    func(ctx context.Context, id int64) (domrec.Recommendation, error)
	listFn   func(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error)
	deleteFn func(ctx context.Context, id int64) error
	statsFn  func(ctx context.Context) ([]recuc.CategoryCount, error)
	seedFn   func(ctx context.Context, clear bool) (recuc.SeedResult, error)
	nearbyFn func(ctx context.Context, q recuc.NearbyQuery) ([]domrec.Nearby, error)
}

func (m *mockRecommendationUC) Create(ctx context.Context, in recuc.Input) (domrec.Recommendation, error) {
	return m.createFn(ctx, in)
}

func (m *mockRecommendationUC) Get(ctx context.Context, id int64) (domrec.Recommendation, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecommendationUC) List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error) {
	return m.listFn(ctx, cats)
}

func (m *mockRecommendationUC) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRecommendationUC) Stats(ctx context.Context) ([]recuc.CategoryCount, error) {
	return m.statsFn(ctx)
}

func (m *mockRecommendationUC) Seed(ctx context.Context, clear bool) (recuc.SeedResult, error) {
	return m.seedFn(ctx, clear)
}

func (m *mockRecommendationUC) Nearby(ctx context.Context, q recuc.NearbyQuery) ([]domrec.Nearby, error) {
	return m.nearbyFn(ctx, q)
}

// --- hotspot source ---

type staticSource struct {
	recs []domrec.Recommendation
	err  error
}

func (s *staticSource) List(_ context.Context, _ []category.Category) ([]domrec.Recommendation, error) {
	return s.recs, s.err
}

// --- health ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- helpers ---

func rec(id int64, cat category.Category, hood string, lat, lon float64, name string) domrec.Recommendation {
	return domrec.Reconstruct(id, cat, hood, lat, lon, name, time.Unix(1700000000+id, 0).UTC())
}

func sampleRecs() []domrec.Recommendation {
	return []domrec.Recommendation{
		rec(1, category.Cafe, "Wicker Park", 41.9076, -87.6774, "Big Shoulders"),
		rec(2, category.Cafe, "Wicker Park", 41.9092, -87.6792, ""),
		rec(3, category.Cafe, "The Loop", 41.8781, -87.6298, "Intelligentsia"),
		rec(4, category.Bar, "River North", 41.8917, -87.6244, "Three Dots"),
	}
}

// testHotspots returns a real hotspot service over static data, already refreshed.
func testHotspots(recs []domrec.Recommendation) hotspotUseCase {
	svc := hotuc.New(&staticSource{recs: recs}, domhot.DefaultParams())
	if _, err := svc.Refresh(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func testClient(recSvc recommendationUseCase, hotSvc hotspotUseCase) *Client {
	return &Client{
		recSvc:    recSvc,
		hotSvc:    hotSvc,
		healthSvc: &mockHealthUC{},
		pinger:    &mockPinger{},
		encoder:   geojson.NewEncoder(16),
	}
}
