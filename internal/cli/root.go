// Package cli implements chirecsctl, the operator command line for seeding,
// statistics and hotspot export.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/config"
	dbRedis "github.com/windycity/chirecs/internal/db/redis"
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	logpkg "github.com/windycity/chirecs/internal/logger"
	"github.com/windycity/chirecs/internal/render"
	recrepo "github.com/windycity/chirecs/internal/repository/recommendation"
	"github.com/windycity/chirecs/internal/seed"
	hotuc "github.com/windycity/chirecs/internal/usecase/hotspot"
	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
	"github.com/windycity/chirecs/internal/version"
)

// Recommendations is the part of the recommendation service the CLI drives.
type Recommendations interface {
	Seed(ctx context.Context, clear bool) (recuc.SeedResult, error)
	Stats(ctx context.Context) ([]recuc.CategoryCount, error)
}

// Hotspots is the part of the hotspot service the CLI drives.
type Hotspots interface {
	Refresh(ctx context.Context) (*domhot.Generation, error)
	Clusters(active []category.Category) *domhot.Generation
	Lookup(p geo.Point, active []category.Category) domhot.Matches
}

// App holds the services a command runs against.
type App struct {
	Recommendations Recommendations
	Hotspots        Hotspots
	Render          render.Options
	Segments        int
	Logger          *zap.Logger
}

// Builder constructs the App for one invocation. The returned func releases it.
type Builder func(ctx context.Context, env string) (*App, func(), error)

type appKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	Env     string
	Timeout time.Duration
}

// session owns the resources built for one invocation.
type session struct {
	release func()
}

func (s *session) close() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// Execute runs the command line and releases whatever the builder opened,
// whether or not the command succeeded.
func Execute(ctx context.Context, build Builder, args []string) error {
	sess := &session{}
	defer sess.close()

	cmd := newRoot(build, sess)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(build Builder) *cobra.Command {
	return newRoot(build, &session{})
}

func newRoot(build Builder, sess *session) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "chirecsctl",
		Short:   "Operate a chirecs recommendations store",
		Long:    "chirecsctl seeds the recommendations store, prints statistics and exports\nneighborhood hotspots as JSON, GeoJSON or PNG.",
		Version: fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, done, err := build(ctx, opts.Env)
			if err != nil {
				return err
			}
			sess.release = done
			cmd.SetContext(context.WithValue(ctx, appKey{}, app))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.Env, "env", "e", config.GetEnv(), "config environment (reads config/<env>.yaml)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		newSeedCmd(opts),
		newStatsCmd(opts),
		newHotspotsCmd(opts),
		newLookupCmd(opts),
	)
	return cmd
}

func appFrom(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, errors.New("cli: app not initialized")
	}
	return app, nil
}

// withTimeout derives the per-command context.
func withTimeout(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), opts.Timeout)
}

// DefaultBuilder wires the services against the configured store.
func DefaultBuilder(ctx context.Context, env string) (*App, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}

	src, err := seed.Embedded(cfg.Seed.Dataset)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	repo := recrepo.New(store, cfg.Storage.KeyPrefix)
	app := &App{
		Recommendations: recuc.New(repo).WithSeedSource(src),
		Hotspots:        hotuc.New(repo, cfg.HotspotParams()).WithLogger(logger),
		Render: render.Options{
			Width:      cfg.Render.Width,
			Padding:    cfg.Render.PaddingM,
			Background: cfg.Render.Background,
			BatchSize:  cfg.Render.BatchSize,
		},
		Segments: cfg.Render.GeoJSONSegments,
		Logger:   logger,
	}
	return app, func() {
		store.Close()
		_ = logger.Sync()
	}, nil
}
