package main

import (
	"context"
	"flag"
	"log"

	stathub "github.com/clusterstats/stathub"
)

func main() {
	settings := stathub.DefaultSettings()

	flag.StringVar(&settings.ListenAddr, "listen", settings.ListenAddr, "listen address")
	flag.StringVar(&settings.WSPath, "ws-path", settings.WSPath, "WebSocket endpoint path")
	flag.IntVar(&settings.PoolSize, "pool-size", settings.PoolSize, "number of workers in the pool")
	flag.DurationVar(&settings.PingPeriod, "ping-period", settings.PingPeriod, "liveness probe period")
	flag.DurationVar(&settings.ShutdownTimeout, "shutdown-timeout", settings.ShutdownTimeout, "graceful shutdown timeout")
	flag.StringVar(&settings.MongoURI, "mongo-uri", settings.MongoURI, "MongoDB connection URI")
	flag.StringVar(&settings.MongoDatabase, "mongo-database", settings.MongoDatabase, "MongoDB database name")
	flag.StringVar((*string)(&settings.StatsBackend), "stats", string(settings.StatsBackend), "statistics backend: redis or noop")
	flag.StringVar(&settings.RedisURI, "redis-uri", settings.RedisURI, "Redis URI for the statistics backend")
	flag.StringVar(&settings.RedisNamespace, "redis-namespace", settings.RedisNamespace, "Redis key namespace")
	flag.Parse()

	broker, err := stathub.New(settings)
	if err != nil {
		log.Fatal("Error: ", err)
	}

	if err := broker.Run(context.Background()); err != nil {
		log.Fatal("Error: ", err)
	}
}
