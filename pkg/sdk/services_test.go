package chirecs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

// --- RecommendationService ---

func TestRecommendationService_Create(t *testing.T) {
	mock := &mockRecommendationUC{
		createFn: func(_ context.Context, in recuc.Input) (domrec.Recommendation, error) {
			if in.PlaceType != "cafe" || in.LocationName != "Wicker Park" || in.Lng != -87.6774 {
				t.Errorf("unexpected input: %+v", in)
			}
			return rec(7, category.Cafe, in.LocationName, in.Lat, in.Lng, in.PlaceName), nil
		},
	}

	svc := testClient(mock, nil).Recommendations()
	got, err := svc.Create(context.Background(), NewRecommendation{
		Category:     "cafe",
		Neighborhood: "Wicker Park",
		Lat:          41.9076,
		Lon:          -87.6774,
		PlaceName:    "Big Shoulders",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 || got.Category != "cafe" || got.PlaceName != "Big Shoulders" {
		t.Errorf("unexpected recommendation: %+v", got)
	}
}

func TestRecommendationService_Create_Invalid(t *testing.T) {
	mock := &mockRecommendationUC{
		createFn: func(context.Context, recuc.Input) (domrec.Recommendation, error) {
			return domrec.Recommendation{}, domain.NewFieldError(domain.ErrInvalidRecommendation, "latitude", "out of range")
		},
	}

	_, err := testClient(mock, nil).Recommendations().Create(context.Background(), NewRecommendation{})
	if !errors.Is(err, ErrInvalidRecommendation) {
		t.Fatalf("expected ErrInvalidRecommendation, got %v", err)
	}
}

func TestRecommendationService_Get_NotFound(t *testing.T) {
	mock := &mockRecommendationUC{
		getFn: func(context.Context, int64) (domrec.Recommendation, error) {
			return domrec.Recommendation{}, domain.ErrNotFound
		},
	}

	_, err := testClient(mock, nil).Recommendations().Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecommendationService_List(t *testing.T) {
	var gotCats []category.Category
	mock := &mockRecommendationUC{
		listFn: func(_ context.Context, cats []category.Category) ([]domrec.Recommendation, error) {
			gotCats = cats
			return sampleRecs()[:3], nil
		},
	}

	recs, err := testClient(mock, nil).Recommendations().List(context.Background(), "Cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotCats) != 1 || gotCats[0] != category.Cafe {
		t.Errorf("categories = %v, want [cafe]", gotCats)
	}
	if len(recs) != 3 || recs[2].Neighborhood != "The Loop" {
		t.Errorf("unexpected list: %+v", recs)
	}
}

func TestRecommendationService_List_InvalidCategory(t *testing.T) {
	mock := &mockRecommendationUC{
		listFn: func(context.Context, []category.Category) ([]domrec.Recommendation, error) {
			t.Fatal("list must not be called")
			return nil, nil
		},
	}

	_, err := testClient(mock, nil).Recommendations().List(context.Background(), "spaceship")
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestRecommendationService_Delete(t *testing.T) {
	var gotID int64
	mock := &mockRecommendationUC{
		deleteFn: func(_ context.Context, id int64) error {
			gotID = id
			return nil
		},
	}

	if err := testClient(mock, nil).Recommendations().Delete(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != 3 {
		t.Errorf("id = %d, want 3", gotID)
	}
}

func TestRecommendationService_Nearby(t *testing.T) {
	mock := &mockRecommendationUC{
		nearbyFn: func(_ context.Context, q recuc.NearbyQuery) ([]domrec.Nearby, error) {
			if q.Point.Lat != 41.88 || q.Radius != 2000 || len(q.Categories) != 1 {
				t.Errorf("unexpected query: %+v", q)
			}
			return []domrec.Nearby{{Recommendation: sampleRecs()[2], Distance: 150.5}}, nil
		},
	}

	hits, err := testClient(mock, nil).Recommendations().Nearby(context.Background(), NearbyQuery{
		Lat: 41.88, Lon: -87.63, Radius: 2000, Categories: []string{"cafe"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Distance != 150.5 || hits[0].PlaceName != "Intelligentsia" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestRecommendationService_Stats(t *testing.T) {
	mock := &mockRecommendationUC{
		statsFn: func(context.Context) ([]recuc.CategoryCount, error) {
			return []recuc.CategoryCount{{Category: category.Restaurant, Count: 12}}, nil
		},
	}

	rows, err := testClient(mock, nil).Recommendations().Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Category != "restaurant" || rows[0].Label != category.Restaurant.Label() || rows[0].Count != 12 {
		t.Errorf("unexpected stats: %+v", rows)
	}
}

func TestRecommendationService_Seed(t *testing.T) {
	mock := &mockRecommendationUC{
		seedFn: func(_ context.Context, clear bool) (recuc.SeedResult, error) {
			if !clear {
				t.Error("expected clear=true")
			}
			return recuc.SeedResult{Cleared: 2, Inserted: 5, Errors: 1}, nil
		},
	}

	res, err := testClient(mock, nil).Recommendations().Seed(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (SeedResult{Cleared: 2, Inserted: 5, Skipped: 1}) {
		t.Errorf("unexpected result: %+v", res)
	}
}

// --- HotspotService ---

func TestHotspotService_Refresh(t *testing.T) {
	svc := testClient(nil, testHotspots(sampleRecs())).Hotspots()

	snap, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Records != 4 || len(snap.Categories) != len(category.All()) {
		t.Errorf("unexpected snapshot: records=%d categories=%d", snap.Records, len(snap.Categories))
	}
	cafes := snap.Categories["cafe"]
	if len(cafes) != 2 {
		t.Fatalf("expected 2 cafe clusters, got %d", len(cafes))
	}
	wp := cafes[0]
	if wp.Neighborhood != "Wicker Park" || wp.Count != 2 || wp.Radius != 500 || wp.Scale != 1 {
		t.Errorf("unexpected Wicker Park cluster: %+v", wp)
	}
	if wp.Color != category.Cafe.Color() {
		t.Errorf("color = %q, want %q", wp.Color, category.Cafe.Color())
	}
	if wp.Places[0] != "Big Shoulders" || wp.Places[1] != "Wicker Park" {
		t.Errorf("unexpected places: %v", wp.Places)
	}
}

func TestHotspotService_Snapshot_Filter(t *testing.T) {
	svc := testClient(nil, testHotspots(sampleRecs())).Hotspots()

	snap, err := svc.Snapshot("bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Categories) != 1 || len(snap.Categories["bar"]) != 1 {
		t.Errorf("unexpected categories: %+v", snap.Categories)
	}
	// A singleton category scales to the midpoint.
	if got := snap.Categories["bar"][0].Scale; got != 0.5 {
		t.Errorf("scale = %v, want 0.5", got)
	}

	if _, err := svc.Snapshot("spaceship"); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestHotspotService_Lookup(t *testing.T) {
	svc := testClient(nil, testHotspots(sampleRecs())).Hotspots()

	hit, err := svc.Lookup(41.9084, -87.6783)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hit) != 1 || len(hit["cafe"]) != 1 || hit["cafe"][0].Neighborhood != "Wicker Park" {
		t.Errorf("unexpected matches: %+v", hit)
	}

	miss, err := svc.Lookup(41.9084, -87.6783, "bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if miss == nil || len(miss) != 0 {
		t.Errorf("expected empty non-nil map, got %#v", miss)
	}

	if _, err := svc.Lookup(91, 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestHotspotService_GeoJSON(t *testing.T) {
	svc := testClient(nil, testHotspots(sampleRecs())).Hotspots()

	data, err := svc.GeoJSON("cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 4 {
		t.Errorf("unexpected collection: type=%q features=%d", fc.Type, len(fc.Features))
	}
}

func TestHotspotService_PNG(t *testing.T) {
	c := testClient(nil, testHotspots(sampleRecs()))
	c.render.Width = 96

	var buf bytes.Buffer
	if err := c.Hotspots().PNG(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("expected PNG signature")
	}
}

func TestHotspotService_PNG_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := testClient(nil, testHotspots(sampleRecs())).Hotspots().PNG(ctx, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
