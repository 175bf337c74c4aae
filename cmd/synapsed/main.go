// Command synapsed serves the hybrid semantic store over HTTP: ingest,
// vector/hybrid/graph search, SPARQL and reasoning, one namespace per
// tenant.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/synapseos/hybridstore/internal/authtoken"
	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/config"
	"github.com/synapseos/hybridstore/internal/embedding"
	"github.com/synapseos/hybridstore/internal/events"
	"github.com/synapseos/hybridstore/internal/lock"
	"github.com/synapseos/hybridstore/internal/namespace"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.FromEnv()

	hot, err := cache.New(cfg.CacheMaxCost, cfg.CacheTTL, logger)
	if err != nil {
		logger.Fatal("failed to construct cache", zap.Error(err))
	}
	defer hot.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	lockMgr := lock.NewManager(redisClient, logger)

	pub, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		pub, _ = events.Connect("", logger)
	}
	defer pub.Close()

	embCfg := embedding.ConfigFromEnv()
	nsManager, err := namespace.New(cfg.StoragePath, embCfg.Dim, embCfg, hot, pub, logger)
	if err != nil {
		logger.Fatal("failed to construct namespace manager", zap.Error(err))
	}
	defer nsManager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	nsManager.StartCompactionSweep(ctx, cfg.CompactionInterval)

	auth := authtoken.New()
	auth.LoadFromEnv()

	srv := &server{
		namespaces: nsManager,
		lockMgr:    lockMgr,
		auth:       auth,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/ingest", srv.handleIngest).Methods(http.MethodPost)
	router.HandleFunc("/v1/search", srv.handleSearch).Methods(http.MethodPost)
	router.HandleFunc("/v1/hybrid-search", srv.handleHybridSearch).Methods(http.MethodPost)
	router.HandleFunc("/v1/neighbors", srv.handleNeighbors).Methods(http.MethodPost)
	router.HandleFunc("/v1/sparql", srv.handleSPARQL).Methods(http.MethodPost)
	router.HandleFunc("/v1/reason", srv.handleReason).Methods(http.MethodPost)
	router.HandleFunc("/v1/namespaces/{name}", srv.handleDeleteNamespace).Methods(http.MethodDelete)

	handler := handlers.CombinedLoggingHandler(os.Stdout, router)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("synapsed listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
