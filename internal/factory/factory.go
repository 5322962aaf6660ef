package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/soltown/promenade/internal/broadcast"
	"github.com/soltown/promenade/internal/dependencies/clock"
	"github.com/soltown/promenade/internal/dependencies/random"
	"github.com/soltown/promenade/internal/game"
	"github.com/soltown/promenade/internal/session"
	"github.com/soltown/promenade/internal/storage"
	"github.com/soltown/promenade/internal/storage/memory"
	redisstorage "github.com/soltown/promenade/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Game components
	Registry *game.Registry
	Router   *broadcast.Router
	Sessions *session.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig holds session tuning (optional)
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, sessionDefaults(cfg.SessionConfig), logger), nil
}

// sessionDefaults fills each zero field from session.DefaultConfig, keeping
// the fields the caller did set.
func sessionDefaults(cfg session.Config) session.Config {
	def := session.DefaultConfig()
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = def.SyncInterval
	}
	if cfg.BumpRadius == 0 {
		cfg.BumpRadius = def.BumpRadius
	}
	if cfg.ChatHistory == 0 {
		cfg.ChatHistory = def.ChatHistory
	}
	if cfg.LeaderboardLimit == 0 {
		cfg.LeaderboardLimit = def.LeaderboardLimit
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, sessionCfg session.Config, logger *slog.Logger) *App {
	registry := game.NewRegistry(store, clk, rnd, logger)
	router := broadcast.NewRouter(logger)
	sessions := session.NewManager(registry, router, store, clk, sessionCfg, logger)

	return &App{
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Registry: registry,
		Router:   router,
		Sessions: sessions,
	}
}
