package chirecs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/windycity/chirecs/internal/domain"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/render"
	healthuc "github.com/windycity/chirecs/internal/usecase/health"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_InvalidParams(t *testing.T) {
	p := domhot.DefaultParams()
	p.MaxRadius = 10

	_, err := New(context.Background(), WithRedis("localhost:6379", ""), WithHotspotParams(p))
	if err == nil {
		t.Fatal("expected error for max radius below min radius")
	}
}

func TestNew_UnknownDataset(t *testing.T) {
	_, err := New(context.Background(), WithRedis("localhost:6379", ""), WithSeedDataset("tokyo"))
	if err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestWarmUp_LoadsStoredRecords(t *testing.T) {
	hot := hotuc.New(&staticSource{recs: sampleRecs()}, domhot.DefaultParams())
	c := testClient(&mockRecommendationUC{}, hot)

	if err := c.warmUp(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := c.Hotspots().Snapshot("cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Records != 3 || len(snap.Categories["cafe"]) != 2 {
		t.Errorf("snapshot not populated: %+v", snap)
	}
	matches, err := c.Hotspots().Lookup(41.9084, -87.6783)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches["cafe"]) != 1 || matches["cafe"][0].Neighborhood != "Wicker Park" {
		t.Errorf("lookup after warm-up = %+v", matches)
	}
}

func TestWarmUp_SourceError(t *testing.T) {
	hot := hotuc.New(&staticSource{err: errors.New("connection refused")}, domhot.DefaultParams())
	c := testClient(&mockRecommendationUC{}, hot)

	if err := c.warmUp(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret").apply(cfg)
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v, want [localhost:6379]", cfg.addrs)
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithUsername("app").apply(cfg)
	WithDB(3).apply(cfg)
	if cfg.username != "app" || cfg.db != 3 {
		t.Errorf("acl = (%q, %d), want (app, 3)", cfg.username, cfg.db)
	}

	cfg2 := &clientConfig{}
	WithCluster("pass", "a:6379", "b:6379").apply(cfg2)
	if len(cfg2.addrs) != 2 || cfg2.password != "pass" {
		t.Errorf("cluster = (%v, %q)", cfg2.addrs, cfg2.password)
	}

	WithKeyPrefix("test:").apply(cfg2)
	if cfg2.keyPrefix != "test:" {
		t.Errorf("keyPrefix = %q, want test:", cfg2.keyPrefix)
	}

	p := domhot.DefaultParams()
	p.BlurLayers = 4
	WithHotspotParams(p).apply(cfg2)
	if cfg2.params.BlurLayers != 4 {
		t.Errorf("blur layers = %d, want 4", cfg2.params.BlurLayers)
	}

	WithSeedDataset("basic").apply(cfg2)
	if cfg2.seedDataset != "basic" {
		t.Errorf("seedDataset = %q, want basic", cfg2.seedDataset)
	}

	WithRender(render.Options{Width: 300}).apply(cfg2)
	WithGeoJSONSegments(24).apply(cfg2)
	if cfg2.render.Width != 300 || cfg2.segments != 24 {
		t.Errorf("render = (%d, %d), want (300, 24)", cfg2.render.Width, cfg2.segments)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg2)
	if cfg2.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg2)
	if cfg2.metricsReg != reg {
		t.Error("expected registerer to be set")
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 10 || cats[0] != "restaurant" || cats[9] != "attraction" {
		t.Errorf("unexpected categories: %v", cats)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestClient_Ping(t *testing.T) {
	c := testClient(nil, nil)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.pinger = &mockPinger{err: errors.New("connection refused")}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestClient_Health(t *testing.T) {
	c := testClient(nil, nil)
	c.healthSvc = &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}

	h := c.Health(context.Background())
	if h.Status != "error" || h.Checks["database"] != "error" {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := testClient(&mockRecommendationUC{
		deleteFn: func(context.Context, int64) error { return domain.ErrNotFound },
	}, nil)
	c.obs = obs

	_ = c.Ping(context.Background())
	_ = c.Recommendations().Delete(context.Background(), 42)

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("ping", "ok")); got != 1 {
		t.Errorf("ping ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("recommendation.delete", "not_found")); got != 1 {
		t.Errorf("delete not_found = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error on second registration: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrNotFound, "not_found"},
		{domain.NewFieldError(domain.ErrInvalidRecommendation, "latitude", "out of range"), "invalid"},
		{domain.ErrInvalidCategory, "invalid"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), nil)
}
