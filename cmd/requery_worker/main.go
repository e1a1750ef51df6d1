package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/data/mongo"
	"github.com/movaapp/mova-backend/internal/data/postgres"
	"github.com/movaapp/mova-backend/internal/logger"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
	"github.com/movaapp/mova-backend/internal/platform/provider"
	"github.com/movaapp/mova-backend/internal/requery"
	"github.com/movaapp/mova-backend/internal/vas"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("requery_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Delivery Requery Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producers (domain events and reconciliation alerts)
	eventProducer, err := producers.NewEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize event producer", "error", err)
		os.Exit(1)
	}

	alertProducer, err := producers.NewAlertProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize alert producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	purchaseRepo := postgres.NewPurchaseRepository(log, postgresDB)
	alertRepo := mongo.NewAlertRepository(log, mongoDB.Database())
	providerCallRepo := mongo.NewProviderCallRepository(log, mongoDB.Database())

	// Every provider exchange goes through the auditing decorator so the raw
	// request and response survive in Mongo for reconciliation
	gateway := provider.NewAuditingGateway(log, provider.NewHTTPGateway(log, &cfg.Provider), providerCallRepo)

	// Initialize the requery service and its worker pool
	alertRecorder := vas.NewAlertRecorder(log, alertRepo, alertProducer)
	requerySvc := vas.NewRequeryService(log, purchaseRepo, gateway, alertRecorder, eventProducer)

	workerPool, err := requery.NewWorkerPoolService(requerySvc, &cfg.Worker, log)
	if err != nil {
		log.Error("Failed to initialize requery worker pool", "error", err)
		os.Exit(1)
	}

	poller := requery.NewPoller(&cfg.Worker, purchaseRepo, workerPool, log)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start the poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal
	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	workerPool.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for the poller to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing event producer", "error", err)
	}

	if err = alertProducer.Close(); err != nil {
		log.Error("Error closing alert producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if err != nil {
		log.Error("Delivery Requery Worker shutdown completed with errors")
	} else {
		log.Info("Delivery Requery Worker shutdown completed successfully")
	}
}
