package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/metrics"
)

// Defaults for PublisherConfig zero values.
const (
	DefaultPrefix           = "chirecs"
	DefaultPublishTimeout   = 2 * time.Second
	DefaultBatchSize        = 4
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
)

// PublisherConfig controls topics, delivery and the circuit breaker.
type PublisherConfig struct {
	Prefix           string
	QoS              byte
	Retain           bool
	PublishTimeout   time.Duration
	BatchSize        int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Publisher sends each hotspot generation to the broker:
// one message per active category on <prefix>/hotspots/<category>
// followed by a summary on <prefix>/hotspots.
type Publisher struct {
	client  paho.Client
	cfg     PublisherConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *zap.Logger
}

// NewPublisher creates a publisher over an existing client.
func NewPublisher(client paho.Client, cfg PublisherConfig, logger *zap.Logger) *Publisher {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.QoS > 2 {
		cfg.QoS = 0
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Publisher{client: client, cfg: cfg, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mqtt-publisher",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

// SummaryTopic returns the topic of the generation summary.
func (p *Publisher) SummaryTopic() string { return p.cfg.Prefix + "/hotspots" }

// CategoryTopic returns the topic for one category's clusters.
func (p *Publisher) CategoryTopic(cat category.Category) string {
	return p.SummaryTopic() + "/" + string(cat)
}

// Publish sends gen in batches of categories, checking ctx between batches.
// The summary goes last so that a consumer seeing a new seq there can rely
// on every category topic already carrying that seq.
func (p *Publisher) Publish(ctx context.Context, gen *domhot.Generation) error {
	if gen == nil {
		return nil
	}
	if !p.client.IsConnectionOpen() {
		metrics.HotspotPublishTotal.WithLabelValues("error").Inc()
		return ErrNotConnected
	}

	cats := gen.Active
	for start := 0; start < len(cats); start += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("publish generation %d: %w", gen.Seq, err)
		}
		end := min(start+p.cfg.BatchSize, len(cats))
		for _, cat := range cats[start:end] {
			if err := p.send(p.CategoryTopic(cat), toCategory(gen, cat)); err != nil {
				return fmt.Errorf("publish generation %d: %w", gen.Seq, err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish generation %d: %w", gen.Seq, err)
	}
	if err := p.send(p.SummaryTopic(), toSummary(gen)); err != nil {
		return fmt.Errorf("publish generation %d: %w", gen.Seq, err)
	}

	p.logger.Debug("generation published",
		zap.Uint64("seq", gen.Seq),
		zap.Int("categories", len(cats)),
	)
	return nil
}

func (p *Publisher) send(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
		if !token.WaitTimeout(p.cfg.PublishTimeout) {
			return struct{}{}, fmt.Errorf("publish to %s: timed out", topic)
		}
		if err := token.Error(); err != nil {
			return struct{}{}, fmt.Errorf("publish to %s: %w", topic, err)
		}
		return struct{}{}, nil
	})

	switch {
	case err == nil:
		metrics.HotspotPublishTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.HotspotPublishTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.HotspotPublishTotal.WithLabelValues("error").Inc()
	}
	return err
}

// HealthCheck reports whether the broker is reachable and publishing is allowed.
func (p *Publisher) HealthCheck(_ context.Context) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("mqtt: %w", gobreaker.ErrOpenState)
	}
	return nil
}

// BreakerState returns the circuit breaker state name.
func (p *Publisher) BreakerState() string { return p.breaker.State().String() }

// Close disconnects from the broker, allowing in-flight work to finish.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
