package chi

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
)

// memRepo is an in-memory recommendation repository.
type memRepo struct {
	mu      sync.Mutex
	next    int64
	recs    map[int64]domrec.Recommendation
	listErr error
}

func newMemRepo() *memRepo {
	return &memRepo{recs: make(map[int64]domrec.Recommendation)}
}

func (m *memRepo) Create(_ context.Context, rec *domrec.Recommendation) (domrec.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	saved := rec.WithID(m.next, time.Unix(1_700_000_000+m.next, 0))
	m.recs[m.next] = saved
	return saved, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (domrec.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return domrec.Recommendation{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) List(_ context.Context, cats []category.Category) ([]domrec.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	want := make(map[category.Category]bool, len(cats))
	for _, c := range cats {
		want[c] = true
	}
	out := make([]domrec.Recommendation, 0, len(m.recs))
	for _, r := range m.recs {
		if len(want) == 0 || want[r.Category()] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() > out[j].ID() })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memRepo) DeleteAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.recs)
	m.recs = make(map[int64]domrec.Recommendation)
	return n, nil
}

func (m *memRepo) CountByCategory(_ context.Context) (map[category.Category]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[category.Category]int64)
	for _, r := range m.recs {
		out[r.Category()]++
	}
	return out, nil
}

func (m *memRepo) Nearby(
	ctx context.Context, cats []category.Category, p geo.Point, radius float64, limit int,
) ([]domrec.Nearby, error) {
	recs, err := m.List(ctx, cats)
	if err != nil {
		return nil, err
	}
	out := make([]domrec.Nearby, 0)
	for _, r := range recs {
		if d := geo.Distance(p, r.Point()); d <= radius {
			out = append(out, domrec.Nearby{Recommendation: r, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var errDBDown = errors.New("connection refused")
