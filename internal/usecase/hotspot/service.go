package hotspot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/metrics"
)

// DefaultDebounce coalesces bursts of invalidations into one refresh.
const DefaultDebounce = 100 * time.Millisecond

// Service owns the current hotspot generation. Readers always see a complete
// generation; a refresh replaces it in one swap.
type Service struct {
	source    Source
	params    domhot.Params
	publisher Publisher
	logger    *zap.Logger
	debounce  time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	current *domhot.Generation

	seq     atomic.Uint64
	trigger chan struct{}
}

// New creates a hotspot service with an empty current generation.
func New(source Source, params domhot.Params) *Service {
	empty := domhot.Build(nil, nil, params)
	return &Service{
		source:   source,
		params:   params,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		now:      time.Now,
		current:  empty,
		trigger:  make(chan struct{}, 1),
	}
}

// WithPublisher configures where new generations are pushed.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithLogger sets the logger used by the background loop.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithDebounce sets the quiet period Run waits for before refreshing.
func (s *Service) WithDebounce(d time.Duration) *Service {
	if d > 0 {
		s.debounce = d
	}
	return s
}

// Params returns the aggregation parameters.
func (s *Service) Params() domhot.Params { return s.params }

// Current returns the latest complete generation.
func (s *Service) Current() *domhot.Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clusters returns the current generation restricted to active.
// An empty active set returns every category.
func (s *Service) Clusters(active []category.Category) *domhot.Generation {
	gen := s.Current()
	if len(active) == 0 {
		return gen
	}
	return gen.Filter(active)
}

// Lookup finds the clusters of the active categories containing p.
func (s *Service) Lookup(p geo.Point, active []category.Category) domhot.Matches {
	m := s.Clusters(active).Lookup(p)
	if len(m) == 0 {
		metrics.HotspotLookupsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.HotspotLookupsTotal.WithLabelValues("hit").Inc()
	}
	return m
}

// Invalidate schedules a refresh. It never blocks; repeated calls before the
// loop wakes up collapse into one.
func (s *Service) Invalidate() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Refresh rebuilds the generation from the source and swaps it in.
// If a newer refresh finished first, the result is discarded and the newer
// generation is returned.
func (s *Service) Refresh(ctx context.Context) (*domhot.Generation, error) {
	seq := s.seq.Add(1)
	start := time.Now()

	recs, err := s.source.List(ctx, nil)
	if err != nil {
		metrics.HotspotRefreshTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	gen := domhot.Build(recs, nil, s.params)
	gen.Seq = seq
	gen.BuiltAt = s.now().UTC()

	s.mu.Lock()
	if s.current.Seq > seq {
		newer := s.current
		s.mu.Unlock()
		metrics.HotspotRefreshTotal.WithLabelValues("superseded").Inc()
		s.logger.Debug("Discarding superseded hotspot generation",
			zap.Uint64("seq", seq), zap.Uint64("current", newer.Seq))
		return newer, nil
	}
	s.current = gen
	s.mu.Unlock()

	metrics.HotspotRefreshDuration.Observe(time.Since(start).Seconds())
	metrics.HotspotRefreshTotal.WithLabelValues("ok").Inc()
	metrics.HotspotGeneration.Set(float64(seq))
	for _, c := range category.All() {
		metrics.HotspotClusters.WithLabelValues(string(c)).Set(float64(len(gen.Clusters[c])))
	}

	s.logger.Info("Hotspot generation built",
		zap.Uint64("seq", seq),
		zap.Int("recommendations", gen.RecordCount()),
		zap.Int("clusters", gen.ClusterCount()),
		zap.Int("shapes", len(gen.Shapes)),
		zap.Duration("duration", time.Since(start)),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, gen); err != nil {
			s.logger.Warn("Failed to publish hotspot generation", zap.Uint64("seq", seq), zap.Error(err))
		}
	}
	return gen, nil
}

// Run refreshes after each burst of invalidations has been quiet for the
// debounce period. Refreshes run one at a time. Run returns when ctx is done.
func (s *Service) Run(ctx context.Context) {
	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			timer.Reset(s.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Hotspot refresh failed", zap.Error(err))
			}
		}
	}
}
