package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/config"
	dbRedis "github.com/windycity/chirecs/internal/db/redis"
	logpkg "github.com/windycity/chirecs/internal/logger"
	"github.com/windycity/chirecs/internal/metrics"
	"github.com/windycity/chirecs/internal/render"
	recrepo "github.com/windycity/chirecs/internal/repository/recommendation"
	"github.com/windycity/chirecs/internal/seed"
	chiTransport "github.com/windycity/chirecs/internal/transport/chi"
	mqttTransport "github.com/windycity/chirecs/internal/transport/mqtt"
	healthuc "github.com/windycity/chirecs/internal/usecase/health"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
	"github.com/windycity/chirecs/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chirecs API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled()),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterHotspotMetrics()

	repo := recrepo.New(store, cfg.Storage.KeyPrefix)

	hotSvc := hotuc.New(repo, cfg.HotspotParams()).
		WithLogger(logger).
		WithDebounce(time.Duration(cfg.Hotspot.DebounceMs) * time.Millisecond)

	// Pass nil interface (not typed nil pointer!) to health when MQTT is off.
	var broker healthuc.BrokerChecker
	if cfg.MQTT.Enabled() {
		publisher, err := buildPublisher(ctx, cfg.MQTT, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer publisher.Close()
		hotSvc.WithPublisher(publisher)
		broker = publisher
	}

	seedSrc, err := seed.Embedded(cfg.Seed.Dataset)
	if err != nil {
		logger.Fatal("Failed to load seed dataset", zap.Error(err))
	}
	recSvc := recuc.New(repo).
		WithInvalidator(hotSvc).
		WithSeedSource(seedSrc)

	healthSvc := healthuc.New(store, broker)

	if cfg.Seed.OnEmpty {
		seedIfEmpty(ctx, recSvc, logger)
	}

	if _, err := hotSvc.Refresh(ctx); err != nil {
		logger.Error("Initial hotspot refresh failed", zap.Error(err))
	}
	go hotSvc.Run(ctx)

	server := chiTransport.NewServer(recSvc, hotSvc, healthSvc, logger).
		WithRenderOptions(render.Options{
			Width:      cfg.Render.Width,
			Padding:    cfg.Render.PaddingM,
			Background: cfg.Render.Background,
			BatchSize:  cfg.Render.BatchSize,
		}).
		WithGeoJSONSegments(cfg.Render.GeoJSONSegments)

	r := server.Router(chiTransport.RouterConfig{
		APIKeys: cfg.Auth.APIKeys,
		CORS: chiTransport.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:         cfg.CORS.MaxAgeSec,
		},
		RateLimit: chiTransport.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   time.Duration(cfg.RateLimit.WindowSec) * time.Second,
		},
	}, jsonRecoverer(logger), chiMiddleware.RequestID, wideEventMiddleware(logger))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	// Stop the refresh loop first so no publish races the broker disconnect.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildPublisher connects to the broker and wraps the client in a publisher.
func buildPublisher(ctx context.Context, mc config.MQTTConfig, logger *zap.Logger) (*mqttTransport.Publisher, error) {
	connectTimeout := time.Duration(mc.ConnectTimeout) * time.Second
	client := mqttTransport.NewClient(mqttTransport.ClientConfig{
		Broker:         mc.Broker,
		ClientID:       mc.ClientID,
		Username:       mc.Username,
		Password:       mc.Password,
		ConnectTimeout: connectTimeout,
	}, logger)

	if err := mqttTransport.Connect(ctx, client, connectTimeout); err != nil {
		return nil, err
	}
	logger.Info("Connected to MQTT broker", zap.String("broker", mc.Broker))

	return mqttTransport.NewPublisher(client, mqttTransport.PublisherConfig{
		Prefix:           mc.TopicPrefix,
		QoS:              byte(mc.QoS),
		Retain:           mc.RetainOrDefault(),
		PublishTimeout:   time.Duration(mc.PublishTimeoutMs) * time.Millisecond,
		BatchSize:        mc.BatchSize,
		FailureThreshold: uint32(mc.FailureThreshold),
		OpenTimeout:      time.Duration(mc.OpenTimeoutSec) * time.Second,
	}, logger), nil
}

// seedIfEmpty loads the sample dataset when the store holds no recommendations.
func seedIfEmpty(ctx context.Context, svc *recuc.Service, logger *zap.Logger) {
	stats, err := svc.Stats(ctx)
	if err != nil {
		logger.Error("Failed to read stats before seeding", zap.Error(err))
		return
	}
	if len(stats) > 0 {
		return
	}
	res, err := svc.Seed(ctx, false)
	if err != nil {
		logger.Error("Startup seed failed", zap.Error(err))
		return
	}
	logger.Info("Seeded empty store",
		zap.Int("inserted", res.Inserted),
		zap.Int("errors", res.Errors),
	)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
