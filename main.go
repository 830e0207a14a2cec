package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/api"
	"github.com/valentinmtg/video-portfolio-backend/auth"
	"github.com/valentinmtg/video-portfolio-backend/config"
	"github.com/valentinmtg/video-portfolio-backend/database"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)

	kv, cleanup, err := openStore(c)
	if err != nil {
		log.Error().Err(err).Msg("Error opening store")
		os.Exit(1)
	}
	defer cleanup()

	bus := realtime.NewBroadcaster()
	syncService := realtime.NewSyncService(kv, bus,
		config.GetDuration(c, "SYNC_POLL_INTERVAL", realtime.DefaultPollInterval))

	db := database.New(kv, syncService, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Error loading project list")
		os.Exit(1)
	}

	listener := realtime.NewListener(kv, bus, db.ProjectRepo())
	listener.Start(ctx)
	defer listener.Stop()

	syncService.Start(ctx)
	defer syncService.Stop()

	// The Redis store notifies other instances of writes; bridge those
	// notifications onto the local broadcaster.
	if redisKV, ok := kv.(*store.RedisKV); ok {
		bridge := realtime.NewStorageBridge(redisKV, bus)
		bridge.Start(ctx)
		defer bridge.Stop()
	}

	gate := auth.NewGate(c, kv, bus)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(db, gate, bus, c)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing server")
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// openStore picks the shared store implementation. "redis" shares the
// portfolio across instances; the default in-memory store is for a single
// instance.
func openStore(c map[string]string) (store.KV, func(), error) {
	switch config.GetString(c, "STORE_TYPE", "memory") {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.GetString(c, "REDIS_ADDR", "localhost:6379"),
			Password: config.GetString(c, "REDIS_PASSWORD", ""),
			DB:       config.GetInt(c, "REDIS_DB", 0),
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}

		return store.NewRedisKV(client), func() { client.Close() }, nil
	case "memory":
		return store.NewMemoryKV(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORE_TYPE %q", config.GetString(c, "STORE_TYPE", ""))
	}
}

func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(c, "LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
