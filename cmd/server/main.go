package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"trinket-service/internal/config"
	httpctl "trinket-service/internal/controllers/http"
	"trinket-service/internal/infra/cache"
	"trinket-service/internal/infra/database"
	"trinket-service/internal/infra/rabbitmq"
	"trinket-service/internal/repository"
	"trinket-service/internal/repository/gormrepo"
	"trinket-service/internal/repository/memory"
	"trinket-service/internal/services"
)

func main() {
	app := &cli.App{
		Name:  "trinket-service",
		Usage: "collectible trinket shop backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("trinket-service stopped")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "LOG_LEVEL %q", cfg.LogLevel)
	}
	log.SetLevel(level)
	return cfg, nil
}

func migrate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		log.Info("memory store needs no migration")
		return nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("schema migrated")
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := c.Context

	var store repository.Store
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store; data is lost on exit")
		store = memory.NewStore()
	} else {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			return err
		}
		store = gormrepo.NewStore(db)
	}

	var (
		productCache cache.ProductCacheInterface = cache.NopProductCache{}
		rdb          *redis.Client
	)
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		productCache = cache.NewProductCache(rdb, cfg.Redis.CacheTTL)
	} else {
		log.Info("REDIS_ADDR not set; product cache and rate limiting disabled")
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return errors.Wrap(err, "init publisher")
		}
		defer p.Close()
		publisher = p
	} else {
		log.Info("RABBITMQ_URL not set; order events are dropped")
	}

	handler := httpctl.NewHandler(
		services.NewOrderService(store, productCache, publisher),
		services.NewCatalogService(store, productCache),
		services.NewReviewService(store),
		services.NewUserService(store),
	)

	var limiter gin.HandlerFunc
	if rdb != nil {
		limiter = httpctl.RateLimiter(rdb, cfg.RateLimitCount, cfg.RateLimitPeriod)
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpctl.NewRouter(handler, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting trinket service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	waitForKillSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	log.Info("http server stopped")
	return nil
}

func waitForKillSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	switch <-quit {
	case os.Interrupt:
		log.Info("got SIGINT, shutting down")
	case syscall.SIGTERM:
		log.Info("got SIGTERM, shutting down")
	}
}
