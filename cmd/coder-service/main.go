package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/aurevtech/coder/pkg/cache"
	"github.com/aurevtech/coder/pkg/common/config"
	"github.com/aurevtech/coder/pkg/common/database"
	"github.com/aurevtech/coder/pkg/common/kafka"
	"github.com/aurevtech/coder/pkg/common/logger"
	"github.com/aurevtech/coder/pkg/common/middleware"
	"github.com/aurevtech/coder/pkg/engine"
	"github.com/aurevtech/coder/pkg/history"
	"github.com/aurevtech/coder/pkg/observability/metrics"
	"github.com/aurevtech/coder/pkg/terminology"
)

func main() {
	logger.Init()
	cfg := config.Load()

	store, err := terminology.Load(cfg.TerminologyPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.TerminologyPath).
			Warn("failed to load terminology tables, using built-in defaults")
		store = terminology.DefaultStore()
	}

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := history.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate coding history tables")
	}

	producer := kafka.NewProducer(cfg.CodingKafkaTopic)
	defer producer.Close()

	results := cache.New(database.GetRedis(), cfg.ResultCacheTTL)

	eng := engine.New(store)
	svc := engine.NewService(eng, repo, results, producer)
	handler := engine.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Recovery)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"version": engine.Version,
		}).Info("Coder Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := svc.Cleanup(context.Background(), cfg.HistoryTTL); err != nil {
					logger.Log.WithError(err).Warn("history cleanup job failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Coder Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Warn("failed to close postgres connection")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Warn("failed to close redis connection")
	}

	logger.Log.Info("Coder Service stopped")
}
