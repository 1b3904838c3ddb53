package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/bootstrap"
	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/config"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookshelf/internal/library"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/redis"
	"github.com/MrSnakeDoc/bookshelf/internal/sources/seed"
	redisstore "github.com/MrSnakeDoc/bookshelf/internal/store/redis"
	"github.com/MrSnakeDoc/bookshelf/internal/store/sqlite"
	"github.com/MrSnakeDoc/bookshelf/internal/utils"
	"github.com/MrSnakeDoc/bookshelf/internal/version"
	"github.com/MrSnakeDoc/bookshelf/internal/view"
)

// backend is a persister the app can also restore from and report on.
type backend interface {
	library.Persister
	deps.Storage
}

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	populator *bootstrap.Populator
	closers   map[string]io.Closer
}

// New wires storage, the library, the board and the HTTP server from cfg.
// The returned App owns the storage connections until Run returns.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	closers := make(map[string]io.Closer)

	store, err := openBackend(ctx, cfg, loggerClient, closers)
	if err != nil {
		return nil, err
	}

	var (
		books  *library.Store
		source bootstrap.Source
		status deps.Storage
	)
	if store != nil {
		books = library.NewPersistentStore(store, loggerClient)
		source = store
		status = store
	} else {
		loggerClient.Info("memory-only storage, books are lost on restart")
		books = library.NewStore()
	}

	board := view.NewBoard()
	dispatcher := command.NewDispatcher(books, board, loggerClient)

	renderer, err := view.NewRenderer(view.RendererOptions{ServeCovers: cfg.CoversDir != ""})
	if err != nil {
		closeAll(closers, loggerClient)
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	populator := bootstrap.NewPopulator(
		source,
		seed.NewLoader(cfg.SeedFile),
		cfg.Seed,
		dispatcher,
		loggerClient,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		PageTitle:    cfg.PageTitle,
		Dispatcher:   dispatcher,
		Board:        board,
		Renderer:     renderer,
		Storage:      status,
		CoversDir:    cfg.CoversDir,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RateLimit: mw.RateLimit(mw.RateLimitConfig{
			Burst:        cfg.RateBurst,
			RefillPerMin: cfg.RateRefillMin,
			MaxEntries:   10_000,
			TrustProxy:   cfg.TrustProxy,
			Logger:       loggerClient,
		}),
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    httpserver.New(cfg, loggerClient, d),
		populator: populator,
		closers:   closers,
	}, nil
}

// openBackend returns nil for memory storage. Opened connections are
// registered in closers.
func openBackend(ctx context.Context, cfg *config.Config, log logger.Logger, closers map[string]io.Closer) (backend, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		// Fail fast if unavailable
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers["redis"] = client
		return redisstore.NewStore(client, log), nil

	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		log.Info("sqlite opened", logger.String("path", cfg.SQLitePath))
		closers["sqlite"] = db
		return db, nil

	default:
		return nil, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("📚 Starting Bookshelf %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Bookshelf %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	defer closeAll(a.closers, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := a.populator.Populate(ctx)
	if err != nil {
		return fmt.Errorf("failed to populate library: %w", err)
	}
	a.logger.Info("library ready",
		logger.String("storage", a.cfg.Storage),
		logger.Int("restored", sum.Restored),
		logger.Int("seeded", sum.Seeded))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Bookshelf stopped cleanly")
	return nil
}

func closeAll(closers map[string]io.Closer, log logger.Logger) {
	for name, c := range closers {
		utils.CloseLogged(c, name, log)
	}
}
