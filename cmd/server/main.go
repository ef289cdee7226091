package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/invoice-admin/internal/api"
	"github.com/ignite/invoice-admin/internal/config"
	"github.com/ignite/invoice-admin/internal/pkg/listcache"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
	"github.com/ignite/invoice-admin/internal/repository/postgres"
	"github.com/ignite/invoice-admin/internal/service/invoice"
)

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	os.Exit(1)
}

// extractHost returns the host part of a DSN so it can be logged without
// credentials.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fatal("failed to load config", "path", configPath, "error", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		fatal("failed to open database", "error", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		fatal("database ping failed", "host", extractHost(cfg.Database.URL), "error", err)
	}
	logger.Info("connected to database", "host", extractHost(cfg.Database.URL))

	var (
		redisClient *redis.Client
		cache       invoice.ListCache
	)
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			fatal("invalid redis url", "error", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		cache = listcache.NewRedis(redisClient, cfg.Redis.KeyPrefix, cfg.Cache.TTL())
		logger.Info("list cache backed by redis", "addr", opts.Addr)
	} else {
		cache = listcache.NewMemory(cfg.Cache.TTL())
		logger.Info("list cache in memory (REDIS_URL not set)")
	}

	svc := invoice.NewService(postgres.NewInvoiceRepo(db), cache)
	router := api.SetupRoutes(
		api.NewInvoiceHandlers(svc),
		api.NewHealthChecker(db, redisClient),
		cfg.CORS.AllowedOrigins,
	)
	server := api.NewServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fatal("http server failed", "error", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
