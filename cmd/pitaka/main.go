package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"time"

	"pitaka/internal/amqp"
	"pitaka/internal/auth"
	"pitaka/internal/cache"
	"pitaka/internal/cli"
	"pitaka/internal/config"
	"pitaka/internal/core"
	apphttp "pitaka/internal/http"
	"pitaka/internal/log"
	"pitaka/internal/services"
	"pitaka/internal/subscription"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	st, closeStore := cli.InitStore(context.Background(), logger, cfg)

	cacheManager := cache.NewManager(logger)
	var dashboards cache.Cache[core.Summary]
	if cfg.DashboardCacheTTL > 0 {
		lru := cache.NewLRUCache[core.Summary](1000, cfg.DashboardCacheTTL)
		cacheManager.Register(lru)
		dashboards = lru
	}

	hub := subscription.NewHub(subscription.StoreLoader(st), logger)

	recordOpts := services.Options{
		Notifier:   hub,
		Dashboards: dashboards,
		Location:   cfg.Location(),
		DateLayout: cfg.DisplayDateLayout,
	}

	// Change events feed the history mirror; without a broker the app
	// still serves every record.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, history mirror disabled", log.FieldError, err)
		} else {
			amqpClient = c
			recordOpts.Publisher = c
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	records := services.NewRecordService(st, recordOpts, logger)

	authSvc, err := auth.NewService(st, records, auth.Options{
		Secret:     sessionSecret(cfg, logger),
		TTL:        cfg.SessionTTL,
		SeedToken:  cfg.SessionToken,
		SeedUserID: cfg.SessionTokenUser,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize auth", log.FieldError, err)
		os.Exit(1)
	}
	for _, c := range authSvc.Caches() {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CurrencySymbol:     cfg.CurrencySymbol,
	}, records, authSvc, hub, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		hub.Close()
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if closeStore != nil {
			if err := closeStore(); err != nil {
				logger.Error("Failed to close store", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting pitaka server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"app", cfg.AppName,
		"mirror", amqpClient != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// sessionSecret returns the configured signing secret. Without one, sessions
// are signed with a random key and do not survive a restart.
func sessionSecret(cfg *config.Config, logger *log.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logger.Error("Failed to generate session secret", log.FieldError, err)
		os.Exit(1)
	}
	logger.Warn("SESSION_SECRET not set, using a random secret; sessions end on restart")
	return []byte(hex.EncodeToString(buf))
}
