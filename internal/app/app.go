package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tally/internal/config"
	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/httpserver"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/redis"
	"github.com/MrSnakeDoc/tally/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/tally/internal/store/redis"
	"github.com/MrSnakeDoc/tally/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	console     *console.Controller
	redisClient *goredis.Client
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var (
		extra       console.Options
		redisClient *goredis.Client
		store       *redisstore.Store
	)

	// Redis only backs the warm start, the thumbnail cache and the action
	// log. The console runs without it.
	if cfg.RedisEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisConnectTimeout+cfg.RedisPingTimeout)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		cancel()
		if err != nil {
			loggerClient.Warn("redis unavailable, starting without warm start", logger.Error(err))
		} else {
			loggerClient.Info("Redis initialized successfully")
			redisClient = client
			store = redisstore.NewStore(client, cfg.SnapshotTTL)
			extra = console.Options{Persister: store, Auditor: store, Thumbnails: store}
		}
	} else {
		loggerClient.Info("redis not configured, warm start disabled")
	}

	c, _, err := NewConsole(&cfg.ClientConfig, loggerClient, extra)
	if err != nil {
		loggerClient.Errorf("Failed to build console: %v", err)
		os.Exit(1)
	}

	// Seed the snapshot before the first poll so the console has something
	// to show while the monitoring API answers.
	if store != nil {
		syncer := scheduler.NewRedisSyncer(store, c.Store(), loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to restore snapshot from redis, starting cold",
				logger.Error(err))
		}
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		APIBase:      cfg.APIBase,
		Console:      c,
		RedisClient:  redisClient,
	}
	var gc *scheduler.GarbageCollector
	if store != nil {
		d.Actions = store
		gc = scheduler.NewGarbageCollector(store, c.Store(), loggerClient,
			cfg.ThumbnailGCInterval, cfg.ThumbnailGCThreshold)
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		console:     c,
		redisClient: redisClient,
		gc:          gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting tally v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String("tally"),
		logger.String("api_base", a.cfg.APIBase),
		logger.String("profile", a.console.Profile().Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First refresh round runs right away, then every refresh interval.
	a.console.Start(ctx)
	if a.gc != nil {
		a.gc.Start(ctx)
		defer a.gc.Stop()
	}

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
		a.console.Stop()
		return err
	}

	// Cancels in-flight polls and waits for the loops.
	a.console.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ tally stopped cleanly")
	return nil
}
