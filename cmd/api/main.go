package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Siddarth2230/url-mapping-service/internal/config"
	"github.com/Siddarth2230/url-mapping-service/internal/handler"
	"github.com/Siddarth2230/url-mapping-service/internal/logger"
	"github.com/Siddarth2230/url-mapping-service/internal/repository"
	"github.com/Siddarth2230/url-mapping-service/internal/service"
	"github.com/Siddarth2230/url-mapping-service/pkg/cache"
	"github.com/Siddarth2230/url-mapping-service/pkg/idgen"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		})
		defer func() { _ = redisClient.Close() }()

		// fail fast if redis is down
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}

	counter, err := newCounter(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	gen := idgen.NewCodeGenerator(counter, store, cfg.CodeMaxAttempts)

	var caches []cache.Cache
	if cfg.CacheSize > 0 {
		caches = append(caches, cache.NewLRUCache(cfg.CacheSize))
	}
	if redisClient != nil {
		caches = append(caches, cache.NewRedisCache(redisClient, cfg.CachePrefix, cfg.CacheTTL))
	}

	svc := service.NewURLService(store, gen, log,
		service.WithCaches(caches...),
		service.WithMaxAttempts(cfg.ShortenMaxAttempts),
	)
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler.NewRouter(handler.NewURLHandler(svc, log, cfg.BaseURL), log, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", cfg.ServerAddress),
			zap.String("counter", cfg.CounterBackend),
			zap.Bool("postgres", cfg.DatabaseDSN != ""),
			zap.Bool("redis", redisClient != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		log.Warn("DATABASE_DSN not set, mappings are kept in memory")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect failed: %w", err)
	}
	store := repository.NewPostgresStore(db, log)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func newCounter(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (idgen.Counter, error) {
	switch cfg.CounterBackend {
	case config.CounterRedis:
		return idgen.NewRedisCounter(ctx, redisClient, cfg.CounterKey, cfg.CounterStep)
	case config.CounterSnowflake:
		return idgen.NewSnowflakeCounter(cfg.NodeID, 0)
	default:
		return idgen.NewAtomicCounter(0, uint64(cfg.CounterStep)), nil
	}
}
