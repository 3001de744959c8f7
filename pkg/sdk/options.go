package chirecs

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/render"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix   string
	params      domhot.Params
	seedDataset string
	render      render.Options
	segments    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects to a single Redis or Valkey address.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCluster connects to a Redis or Valkey cluster through the given seed addresses.
func WithCluster(password string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string(nil), addrs...)
		c.password = password
	})
}

// WithUsername sets the ACL user. Default: none (the "default" user).
func WithUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithDB selects a logical database on a standalone server. Clusters only have DB 0.
func WithDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithKeyPrefix namespaces every key the client writes. Default: "chirecs:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithHotspotParams overrides the aggregation parameters.
// Invalid parameters make New fail.
func WithHotspotParams(p domhot.Params) Option {
	return optionFunc(func(c *clientConfig) {
		c.params = p
	})
}

// WithSeedDataset selects the built-in dataset used by Seed: "basic" or "expanded" (default).
func WithSeedDataset(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.seedDataset = name
	})
}

// WithRender sets the PNG export defaults.
func WithRender(opts render.Options) Option {
	return optionFunc(func(c *clientConfig) {
		c.render = opts
	})
}

// WithGeoJSONSegments sets how many vertices approximate each hotspot circle.
func WithGeoJSONSegments(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.segments = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
