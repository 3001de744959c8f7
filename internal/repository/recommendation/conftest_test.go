package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/windycity/chirecs/internal/db"
	"github.com/windycity/chirecs/internal/domain/category"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) error
	incrFn         func(ctx context.Context, key string) (int64, error)
	saddFn         func(ctx context.Context, key string, members ...string) error
	sremFn         func(ctx context.Context, key string, members ...string) error
	smembersFn     func(ctx context.Context, key string) ([]string, error)
	scardFn        func(ctx context.Context, key string) (int64, error)
	geoAddFn       func(ctx context.Context, key string, lon, lat float64, member string) error
	geoRemoveFn    func(ctx context.Context, key string, members ...string) error
	geoSearchFn    func(ctx context.Context, key string, lon, lat, radius float64, limit int) ([]db.GeoHit, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func (m *mockStore) SAdd(ctx context.Context, key string, members ...string) error {
	if m.saddFn != nil {
		return m.saddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...string) error {
	if m.sremFn != nil {
		return m.sremFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SCard(ctx context.Context, key string) (int64, error) {
	if m.scardFn != nil {
		return m.scardFn(ctx, key)
	}
	return 0, nil
}

func (m *mockStore) GeoAdd(ctx context.Context, key string, lon, lat float64, member string) error {
	if m.geoAddFn != nil {
		return m.geoAddFn(ctx, key, lon, lat, member)
	}
	return nil
}

func (m *mockStore) GeoRemove(ctx context.Context, key string, members ...string) error {
	if m.geoRemoveFn != nil {
		return m.geoRemoveFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) GeoSearch(
	ctx context.Context, key string, lon, lat, radius float64, limit int,
) ([]db.GeoHit, error) {
	if m.geoSearchFn != nil {
		return m.geoSearchFn(ctx, key, lon, lat, radius, limit)
	}
	return nil, nil
}

var testNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "")
	repo.now = func() time.Time { return testNow }
	return repo, ms
}

func testRecommendation(t *testing.T) domrec.Recommendation {
	t.Helper()
	r, err := domrec.New("restaurant", "The Loop", 41.8781, -87.6298, "Alinea")
	if err != nil {
		t.Fatalf("build recommendation: %v", err)
	}
	return r
}

func hashFor(cat category.Category, hood string, lat, lng, createdMs string) map[string]string {
	return map[string]string{
		"category":      string(cat),
		"location_name": hood,
		"lat":           lat,
		"lng":           lng,
		"place_name":    "",
		"created_at":    createdMs,
	}
}
