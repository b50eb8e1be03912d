package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/feed"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/gateway"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/quote"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/registry"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/repository"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/scheduler"
	"github.com/bryanmjl/Real-Time-Quote-Server/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Quote snapshot cache: in-memory by default, Redis when enabled
	var store repository.QuoteStore = repository.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		store = repository.NewRedisStore(rdb)
	}

	var publisher feed.Publisher = feed.NopPublisher{}
	if cfg.Kafka.Enabled {
		feed.EnsureTopic(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publisher = feed.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}

	reg := registry.New()
	hub := gateway.NewHub(reg, store, logger)
	generator := quote.NewGenerator(nil)

	sched := scheduler.New(logger, reg, generator, hub, store, publisher, cfg.Stream.TickInterval)

	schedCtx, stopSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		sched.Run(schedCtx)
		close(schedDone)
	}()

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(req, w)
		if err != nil {
			return
		}
		client := gateway.NewClient(conn, hub, logger)
		client.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: r}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	stopSched()
	<-schedDone

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Error("Error closing feed publisher", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("Error closing quote store", zap.Error(err))
	}

	logger.Info("Shutdown Complete")
}
