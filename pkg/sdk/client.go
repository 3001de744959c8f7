package chirecs

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/windycity/chirecs/internal/db/redis"
	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	domrec "github.com/windycity/chirecs/internal/domain/recommendation"
	"github.com/windycity/chirecs/internal/render"
	recrepo "github.com/windycity/chirecs/internal/repository/recommendation"
	"github.com/windycity/chirecs/internal/seed"
	"github.com/windycity/chirecs/internal/transport/geojson"
	healthuc "github.com/windycity/chirecs/internal/usecase/health"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type recommendationUseCase interface {
	Create(ctx context.Context, in recuc.Input) (domrec.Recommendation, error)
	Get(ctx context.Context, id int64) (domrec.Recommendation, error)
	List(ctx context.Context, cats []category.Category) ([]domrec.Recommendation, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]recuc.CategoryCount, error)
	Seed(ctx context.Context, clear bool) (recuc.SeedResult, error)
	Nearby(ctx context.Context, q recuc.NearbyQuery) ([]domrec.Nearby, error)
}

type hotspotUseCase interface {
	Refresh(ctx context.Context) (*domhot.Generation, error)
	Clusters(active []category.Category) *domhot.Generation
	Lookup(p geo.Point, active []category.Category) domhot.Matches
}

type closer interface {
	Close()
}

// Client is the chirecs SDK entry point.
type Client struct {
	store     closer
	recSvc    recommendationUseCase
	hotSvc    hotspotUseCase
	healthSvc healthUseCase
	pinger    healthuc.DBPinger
	encoder   *geojson.Encoder
	render    render.Options
	obs       *observer
	stop      context.CancelFunc
}

// New creates a Client, connects to the database and starts the hotspot
// refresh loop. The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:   domain.DefaultKeyPrefix,
		params:      domhot.DefaultParams(),
		seedDataset: seed.Expanded,
		segments:    geojson.DefaultSegments,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("chirecs: database address required (use WithRedis or WithCluster)")
	}
	if err := cfg.params.Validate(); err != nil {
		return nil, fmt.Errorf("chirecs: hotspot params: %w", err)
	}
	src, err := seed.Embedded(cfg.seedDataset)
	if err != nil {
		return nil, fmt.Errorf("chirecs: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("chirecs: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("chirecs: database not ready: %w", err)
	}

	c := wireClient(store, src, cfg, obs)
	if err := c.warmUp(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store *dbRedis.Store, src recuc.SeedSource, cfg *clientConfig, obs *observer) *Client {
	repo := recrepo.New(store, cfg.keyPrefix)
	hotSvc := hotuc.New(repo, cfg.params)
	recSvc := recuc.New(repo).
		WithInvalidator(hotSvc).
		WithSeedSource(src)

	runCtx, stop := context.WithCancel(context.Background())
	go hotSvc.Run(runCtx)

	return &Client{
		store:     store,
		recSvc:    recSvc,
		hotSvc:    hotSvc,
		healthSvc: healthuc.New(store, nil),
		pinger:    store,
		encoder:   geojson.NewEncoder(cfg.segments),
		render:    cfg.render,
		obs:       obs,
		stop:      stop,
	}
}

// warmUp builds the first hotspot generation from the records already stored,
// so a new client never serves an empty view of a populated store.
func (c *Client) warmUp(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("hotspot.refresh", start, err) }()

	if _, err = c.hotSvc.Refresh(ctx); err != nil {
		return fmt.Errorf("chirecs: initial hotspot refresh: %w", err)
	}
	return nil
}

// Close stops the refresh loop and releases all resources.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Recommendations returns the recommendation service.
func (c *Client) Recommendations() *RecommendationService {
	return &RecommendationService{svc: c.recSvc, obs: c.obs}
}

// Hotspots returns the hotspot service.
func (c *Client) Hotspots() *HotspotService {
	return &HotspotService{
		svc:     c.hotSvc,
		encoder: c.encoder,
		render:  c.render,
		obs:     c.obs,
	}
}
