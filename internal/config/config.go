package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/windycity/chirecs/internal/domain"
	"github.com/windycity/chirecs/internal/domain/hotspot"
)

// Config holds the chirecs configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Hotspot   HotspotConfig   `yaml:"hotspot"`
	Render    RenderConfig    `yaml:"render"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Seed      SeedConfig      `yaml:"seed"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Keys guard mutating routes only.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: ["*"]
	MaxAgeSec      int      `yaml:"max_age_sec"`
}

// RateLimitConfig limits mutating requests per client IP.
type RateLimitConfig struct {
	Requests  int `yaml:"requests"` // 0 disables
	WindowSec int `yaml:"window_sec"`
}

// HotspotConfig holds the aggregation parameters.
type HotspotConfig struct {
	MinRadius  float64 `yaml:"min_radius_m"`
	MaxRadius  float64 `yaml:"max_radius_m"`
	Tolerance  float64 `yaml:"tolerance"`
	BlurLayers int     `yaml:"blur_layers"`
	BlurStep   float64 `yaml:"blur_step"`
	Falloff    string  `yaml:"falloff"` // gaussian, power
	Sigma      float64 `yaml:"sigma"`
	Exponent   float64 `yaml:"exponent"`
	MaxOpacity float64 `yaml:"max_opacity"`
	DebounceMs int     `yaml:"debounce_ms"`
}

// RenderConfig holds PNG and GeoJSON export settings.
type RenderConfig struct {
	Width           int     `yaml:"width"`
	PaddingM        float64 `yaml:"padding_m"`
	Background      string  `yaml:"background"`
	BatchSize       int     `yaml:"batch_size"`
	GeoJSONSegments int     `yaml:"geojson_segments"`
}

// MQTTConfig holds broker settings. An empty broker disables publishing.
type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	ClientID         string `yaml:"client_id"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	TopicPrefix      string `yaml:"topic_prefix"`
	QoS              int    `yaml:"qos"`
	Retain           *bool  `yaml:"retain"` // default: true
	ConnectTimeout   int    `yaml:"connect_timeout_sec"`
	PublishTimeoutMs int    `yaml:"publish_timeout_ms"`
	BatchSize        int    `yaml:"batch_size"`
	FailureThreshold int    `yaml:"failure_threshold"`
	OpenTimeoutSec   int    `yaml:"open_timeout_sec"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// RetainOrDefault returns Retain, defaulting to true.
func (m MQTTConfig) RetainOrDefault() bool { return m.Retain == nil || *m.Retain }

// SeedConfig selects the sample dataset.
type SeedConfig struct {
	Dataset string `yaml:"dataset"` // basic, expanded (default)
	OnEmpty bool   `yaml:"on_empty"` // seed at startup when the store is empty
}

// HotspotParams converts the hotspot section to aggregation parameters.
func (c *Config) HotspotParams() hotspot.Params {
	return hotspot.Params{
		MinRadius:  c.Hotspot.MinRadius,
		MaxRadius:  c.Hotspot.MaxRadius,
		Tolerance:  c.Hotspot.Tolerance,
		BlurLayers: c.Hotspot.BlurLayers,
		BlurStep:   c.Hotspot.BlurStep,
		Falloff:    hotspot.Falloff(c.Hotspot.Falloff),
		Sigma:      c.Hotspot.Sigma,
		Exponent:   c.Hotspot.Exponent,
		MaxOpacity: c.Hotspot.MaxOpacity,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.DefaultKeyPrefix
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
	c.applyHotspotDefaults()
	if c.Render.Width <= 0 {
		c.Render.Width = 1024
	}
	if c.Render.PaddingM <= 0 {
		c.Render.PaddingM = 250
	}
	if c.Render.Background == "" {
		c.Render.Background = "#ffffff"
	}
	if c.Render.BatchSize <= 0 {
		c.Render.BatchSize = 64
	}
	if c.Render.GeoJSONSegments <= 0 {
		c.Render.GeoJSONSegments = 48
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "chirecs"
	}
	if c.MQTT.ConnectTimeout <= 0 {
		c.MQTT.ConnectTimeout = 10
	}
	if c.MQTT.PublishTimeoutMs <= 0 {
		c.MQTT.PublishTimeoutMs = 2000
	}
	if c.MQTT.BatchSize <= 0 {
		c.MQTT.BatchSize = 4
	}
	if c.MQTT.FailureThreshold <= 0 {
		c.MQTT.FailureThreshold = 5
	}
	if c.MQTT.OpenTimeoutSec <= 0 {
		c.MQTT.OpenTimeoutSec = 30
	}
	if c.Seed.Dataset == "" {
		c.Seed.Dataset = "expanded"
	}
}

func (c *Config) applyHotspotDefaults() {
	d := hotspot.DefaultParams()
	h := &c.Hotspot
	if h.MinRadius <= 0 {
		h.MinRadius = d.MinRadius
	}
	if h.MaxRadius <= 0 {
		h.MaxRadius = d.MaxRadius
	}
	if h.Tolerance <= 0 {
		h.Tolerance = d.Tolerance
	}
	if h.BlurLayers <= 0 {
		h.BlurLayers = d.BlurLayers
	}
	if h.BlurStep <= 0 {
		h.BlurStep = d.BlurStep
	}
	if h.Falloff == "" {
		h.Falloff = string(d.Falloff)
	}
	if h.Sigma <= 0 {
		h.Sigma = d.Sigma
	}
	if h.Exponent <= 0 {
		h.Exponent = d.Exponent
	}
	if h.MaxOpacity <= 0 {
		h.MaxOpacity = d.MaxOpacity
	}
	if h.DebounceMs <= 0 {
		h.DebounceMs = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.DB < 0 || c.Database.DB > 15 {
		return fmt.Errorf("database.db must be between 0 and 15, got %d", c.Database.DB)
	}
	if err := c.HotspotParams().Validate(); err != nil {
		return fmt.Errorf("hotspot: %w", err)
	}
	if c.Render.Width > 4096 {
		return fmt.Errorf("render.width must be at most 4096, got %d", c.Render.Width)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	switch c.Seed.Dataset {
	case "basic", "expanded":
		// ok
	default:
		return fmt.Errorf("seed.dataset must be \"basic\" or \"expanded\", got %q", c.Seed.Dataset)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
