package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soltown/promenade/internal/api"
	"github.com/soltown/promenade/internal/factory"
	"github.com/soltown/promenade/internal/session"
	redisstorage "github.com/soltown/promenade/internal/storage/redis"
	"github.com/soltown/promenade/internal/ws"
)

type serverOptions struct {
	port         int
	storageType  string
	redisURL     string
	syncInterval time.Duration
	chatHistory  int
}

func main() {
	opts := &serverOptions{}
	defaults := session.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "promenade",
		Short: "Zone-scoped presence and broadcast server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().IntVar(&opts.port, "port", envInt("PROMENADE_PORT", 8080), "Listen port (env: PROMENADE_PORT)")
	rootCmd.Flags().StringVar(&opts.storageType, "storage", envStr("PROMENADE_STORAGE", factory.StorageTypeMemory), "Storage backend: memory, redis (env: PROMENADE_STORAGE)")
	rootCmd.Flags().StringVar(&opts.redisURL, "redis-url", os.Getenv("PROMENADE_REDIS_URL"), "Redis URL, required for redis storage (env: PROMENADE_REDIS_URL)")
	rootCmd.Flags().DurationVar(&opts.syncInterval, "sync-interval", envDuration("PROMENADE_SYNC_INTERVAL", defaults.SyncInterval), "Scene sync interval (env: PROMENADE_SYNC_INTERVAL)")
	rootCmd.Flags().IntVar(&opts.chatHistory, "chat-history", envInt("PROMENADE_CHAT_HISTORY", defaults.ChatHistory), "Chat messages replayed to new connections (env: PROMENADE_CHAT_HISTORY)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts *serverOptions) error {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	sessionCfg := session.DefaultConfig()
	sessionCfg.SyncInterval = opts.syncInterval
	sessionCfg.ChatHistory = opts.chatHistory

	cfg := factory.Config{
		Logger:        logger,
		StorageType:   opts.storageType,
		SessionConfig: sessionCfg,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		if opts.redisURL == "" {
			logger.Error("redis URL required when storage is redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = opts.redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Storage.Close(); err != nil {
			logger.Warn("storage close failed", slog.String("error", err.Error()))
		}
	}()

	// Create the router with the websocket endpoint mounted
	wsHandler := ws.NewHandler(app.Sessions, app.Router, logger)
	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		Registry:         app.Registry,
		Storage:          app.Storage,
		WSHandler:        wsHandler,
		LeaderboardLimit: sessionCfg.LeaderboardLimit,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = opts.port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
