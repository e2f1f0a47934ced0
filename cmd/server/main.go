package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pumpfun-chat-relay/internal/cache"
	"pumpfun-chat-relay/internal/chat"
	applog "pumpfun-chat-relay/internal/log"
	"pumpfun-chat-relay/internal/payout"
	"pumpfun-chat-relay/internal/pkg/config"
	"pumpfun-chat-relay/internal/server"
	"pumpfun-chat-relay/internal/server/usecase"
	"pumpfun-chat-relay/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка и валидация конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := applog.NewMaskedLogger(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 4. Инициализация зависимостей
	var walletCache cache.Store
	if cfg.Cache.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := rdb.Ping(appCtx).Err(); err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
		walletCache = cache.NewRedisStore(rdb, logger)
		defer rdb.Close()
	} else {
		memStore := cache.NewMemoryStore()
		memStore.StartCleanupTicker(appCtx, cfg.CacheCleanupInterval())
		walletCache = memStore
	}

	up := upstream.NewClient(cfg.Upstream, upstream.WithLogger(logger))
	creds := up.Credentials()
	if viewer, ok := upstream.ViewerFromJWT(upstream.ExtractJWT(creds.Cookie, creds.JWT)); ok {
		slog.Info("authenticated viewer identity", "address", viewer.Address, "username", viewer.Username)
	} else {
		slog.Warn("no upstream credentials, chat history may be limited")
	}

	resolver := chat.NewCachedResolver(up, walletCache, cfg.ProfileCacheTTL())
	scraper := usecase.NewScrapeChatUseCase(cfg, up, resolver, logger)
	payouts := payout.NewLedger(cfg.Payout.LedgerPath, logger)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, logger, scraper, up, payouts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}
