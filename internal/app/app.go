package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/jobfeed/internal/bookmark"
	"github.com/MrSnakeDoc/jobfeed/internal/config"
	"github.com/MrSnakeDoc/jobfeed/internal/feed"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/jobsapi"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/redis"
	"github.com/MrSnakeDoc/jobfeed/internal/scheduler"
	"github.com/MrSnakeDoc/jobfeed/internal/store"
	badgerstore "github.com/MrSnakeDoc/jobfeed/internal/store/badger"
	"github.com/MrSnakeDoc/jobfeed/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/jobfeed/internal/store/redis"
	"github.com/MrSnakeDoc/jobfeed/internal/utils"
	"github.com/MrSnakeDoc/jobfeed/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	storage   store.KV
	feed      *feed.Controller
	refresher *scheduler.FeedRefresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Storage first - fail fast if the bookmark backend is unavailable
	storage, err := openStorage(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s storage: %v", cfg.Storage, err)
		os.Exit(1)
	}
	loggerClient.Info("bookmark storage ready", logger.String("backend", cfg.Storage))

	api, err := jobsapi.NewClient(cfg.APIEndpoint, cfg.HTTPTimeout, loggerClient)
	if err != nil {
		loggerClient.Errorf("Invalid jobs API endpoint: %v", err)
		os.Exit(1)
	}

	ctrl := feed.NewController(api, bookmark.NewStore(storage, loggerClient), loggerClient)

	refreshTrigger := make(chan struct{}, 1)
	refresher := scheduler.NewFeedRefresher(ctrl, loggerClient, refreshTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Feed:            ctrl,
		Storage:         storage,
		StorageKind:     cfg.Storage,
		RefreshTrigger:  refreshTrigger,
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    httpserver.New(cfg, loggerClient, d),
		storage:   storage,
		feed:      ctrl,
		refresher: refresher,
	}
}

func openStorage(cfg *config.Config, log logger.Logger) (store.KV, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("memory storage selected, bookmarks are lost on exit")
		return memory.New(), nil

	case config.StorageRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
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
			return nil, err
		}

		s := redisstore.NewStore(client)
		if slots, err := s.Slots(context.Background()); err != nil {
			log.Warn("failed to list stored slots", logger.Error(err))
		} else {
			log.Info("redis slots found", logger.Int("count", len(slots)))
		}
		return s, nil

	default:
		log.Info("opening badger storage", logger.String("dir", cfg.DataDir))
		s, err := badgerstore.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting jobfeed v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Feed startup: bookmarks, then page 1. The server answers probes and
	// reports the loading view meanwhile. A failed first fetch is not fatal,
	// it is reported in the feed view and a refresh retries it.
	started := make(chan struct{})
	go func() {
		defer close(started)
		if err := a.feed.Start(ctx); err != nil {
			a.logger.Warn("initial feed fetch failed", logger.Error(err))
		}
	}()

	a.refresher.Start(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		stop()
		<-started
		a.refresher.Stop()
		utils.MustClose(a.storage, a.cfg.Storage, a.logger)
		return err
	}

	<-started
	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.MustClose(a.storage, a.cfg.Storage, a.logger)

	a.logger.Info("✅ jobfeed stopped cleanly")
	return nil
}
