package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parlayiq/picks-engine/internal/api"
	"github.com/parlayiq/picks-engine/internal/mlmodels"
	"github.com/parlayiq/picks-engine/internal/store"
	"github.com/parlayiq/picks-engine/pkg/config"
	"github.com/parlayiq/picks-engine/pkg/database"
	"github.com/parlayiq/picks-engine/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	log := logger.InitLogger("info", cfg.IsDevelopment())

	if err := cfg.ValidateServer(); err != nil {
		log.WithError(err).Fatal("Configuration incomplete")
	}

	db, err := database.NewConnection(cfg.DSN(), cfg.IsDevelopment(), database.Options{
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Database connection failed")
	}
	defer db.Close()

	registry, err := mlmodels.LoadRegistry(cfg.ModelsDir, log)
	if err != nil {
		log.WithError(err).Fatal("Could not load model artifacts")
	}
	if registry.Len() == 0 {
		log.WithField("dir", cfg.ModelsDir).Warn("No model artifacts loaded, every predict call will 404")
	}

	st := store.New(db, log)
	handler := api.NewHandler(st, registry, log, cfg.StatsGameWindow)
	router := api.NewRouter(cfg, handler, log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Prediction server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Server stopped")
}
