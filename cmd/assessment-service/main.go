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

	"github.com/earlyguard/platform/pkg/aggregation"
	"github.com/earlyguard/platform/pkg/api"
	"github.com/earlyguard/platform/pkg/common/config"
	"github.com/earlyguard/platform/pkg/common/database"
	"github.com/earlyguard/platform/pkg/common/events"
	"github.com/earlyguard/platform/pkg/common/httpclient"
	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/extraction"
	"github.com/earlyguard/platform/pkg/simulation"
)

func main() {
	logger.Init()
	cfg := config.Load()

	rules, err := extraction.LoadRules(cfg.ExtractionRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to built-in extraction rules")
	}
	parser, err := extraction.NewParser(rules)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to compile extraction rules")
	}
	recognizer := extraction.NewHTTPRecognizer(cfg.RecognizerBaseURL, cfg.RecognizerTimeout)

	predictorClient := httpclient.NewAuthenticated(
		cfg.PredictionTimeout,
		cfg.PredictorTokenURL,
		cfg.PredictorClientID,
		cfg.PredictorClientSec,
	)
	clients := aggregation.NewDomainClients(cfg.PredictorURLs, predictorClient)

	health := aggregation.NewHealthCache(database.GetRedis(), cfg.HealthCacheTTL)
	engine := aggregation.New(clients, health)
	sim := simulation.New(engine)

	var producer *events.Producer
	if cfg.EventsEnabled {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := api.NewSessionStore(parser, recognizer, cfg.SessionTTL)
	store.StartSweeper(ctx, 5*time.Minute)

	router := mux.NewRouter()
	router.Use(api.Logging, api.Recovery)
	api.Register(router, &api.Handler{
		Store:    store,
		Engine:   engine,
		Sim:      sim,
		Producer: producer,
		Cfg:      cfg,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Assessment Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Assessment Service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("Failed to close Redis")
	}

	logger.Log.Info("Assessment Service stopped")
}
