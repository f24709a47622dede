package stathub

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/clusterstats/stathub/channels"
	"github.com/clusterstats/stathub/core"
	"github.com/clusterstats/stathub/handlers"
	"github.com/clusterstats/stathub/message"
	"github.com/clusterstats/stathub/registry"
	"github.com/clusterstats/stathub/server"
	mongostore "github.com/clusterstats/stathub/store/mongo"

	noopstats "github.com/clusterstats/stathub/statistics/noop"
	redisstats "github.com/clusterstats/stathub/statistics/redis"
)

// StatsBackendType selects the statistics backend.
type StatsBackendType string

const (
	StatsBackendRedis StatsBackendType = "redis"
	StatsBackendNoop  StatsBackendType = "noop"
)

// Settings holds broker configuration.
type Settings struct {
	// Listen settings
	ListenAddr string
	WSPath     string

	// Pool settings
	PoolSize        int
	SubmitBuffer    int
	ShutdownTimeout time.Duration

	// Liveness settings
	PingPeriod time.Duration

	// MongoDB settings
	MongoURI      string
	MongoDatabase string

	// Statistics settings
	StatsBackend   StatsBackendType
	RedisURI       string
	RedisNamespace string
}

// DefaultSettings returns settings with environment-aware defaults.
// MONGODB_URI and REDIS_URL are honored when set.
func DefaultSettings() Settings {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	redisURI := os.Getenv("REDIS_URL")
	if redisURI == "" {
		redisURI = "redis://localhost:6379/"
	}

	return Settings{
		ListenAddr:      ":8080",
		WSPath:          "/ws",
		PoolSize:        4,
		SubmitBuffer:    256,
		ShutdownTimeout: 30 * time.Second,
		PingPeriod:      30 * time.Second,
		MongoURI:        mongoURI,
		MongoDatabase:   "stathub",
		StatsBackend:    StatsBackendRedis,
		RedisURI:        redisURI,
		RedisNamespace:  "stathub:",
	}
}

// Broker is a fully wired stathub instance.
type Broker struct {
	engine *core.Engine
	server *server.Server
}

// New wires a broker from settings: MongoDB store, job handlers, worker
// pool, dispatcher, channel registry, and the WebSocket supervisor.
func New(settings Settings) (*Broker, error) {
	if settings.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", settings.PoolSize)
	}

	storeOpts := mongostore.DefaultOptions()
	storeOpts.URI = settings.MongoURI
	if settings.MongoDatabase != "" {
		storeOpts.Database = settings.MongoDatabase
	}
	st := mongostore.New(storeOpts)

	var stats core.Statistics
	switch settings.StatsBackend {
	case StatsBackendRedis:
		statsOpts := redisstats.DefaultOptions()
		statsOpts.URI = settings.RedisURI
		if settings.RedisNamespace != "" {
			statsOpts.Namespace = settings.RedisNamespace
		}
		stats = redisstats.NewStatistics(statsOpts)
	case StatsBackendNoop, "":
		stats = noopstats.NewStatistics()
	default:
		return nil, fmt.Errorf("unsupported statistics backend: %s", settings.StatsBackend)
	}

	reg := registry.NewRegistry()
	if err := handlers.Register(reg, st); err != nil {
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}

	pool := core.NewWorkerPool(settings.PoolSize, reg, stats)
	dispatcher := core.NewDispatcher(pool, core.WithSubmitBufferSize(settings.SubmitBuffer))

	chreg := channels.NewRegistry(dispatcher, message.ChannelStats, message.Channels())

	srv := server.New(server.Config{
		Addr:       settings.ListenAddr,
		Path:       settings.WSPath,
		PingPeriod: settings.PingPeriod,
	}, chreg)

	engine := core.NewEngine(st, stats, dispatcher, srv,
		core.WithShutdownTimeout(settings.ShutdownTimeout))

	return &Broker{engine: engine, server: srv}, nil
}

// Run starts the broker and blocks until ctx is cancelled or a shutdown
// signal arrives.
func (b *Broker) Run(ctx context.Context) error {
	return b.engine.Run(ctx)
}

// Start brings the broker up without blocking. Use Stop to shut down.
func (b *Broker) Start(ctx context.Context) error {
	return b.engine.Start(ctx)
}

// Stop gracefully shuts the broker down.
func (b *Broker) Stop() error {
	return b.engine.Stop()
}

// Health returns the current health snapshot.
func (b *Broker) Health() core.HealthStatus {
	return b.engine.Health()
}

// Server exposes the connection supervisor, mainly for its bound address.
func (b *Broker) Server() *server.Server {
	return b.server
}
