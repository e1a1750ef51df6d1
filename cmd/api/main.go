package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/movaapp/mova-backend/internal/api"
	"github.com/movaapp/mova-backend/internal/api/service"
	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/data/mongo"
	"github.com/movaapp/mova-backend/internal/data/postgres"
	"github.com/movaapp/mova-backend/internal/fares"
	"github.com/movaapp/mova-backend/internal/logger"
	"github.com/movaapp/mova-backend/internal/pin"
	"github.com/movaapp/mova-backend/internal/platform/messaging/producers"
	"github.com/movaapp/mova-backend/internal/platform/persistence"
	"github.com/movaapp/mova-backend/internal/platform/provider"
	"github.com/movaapp/mova-backend/internal/posting"
	"github.com/movaapp/mova-backend/internal/transfer"
	"github.com/movaapp/mova-backend/internal/vas"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
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
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	purchaseRepo := postgres.NewPurchaseRepository(log, postgresDB)
	tripRepo := postgres.NewTripRepository(log, postgresDB)
	settlementRepo := postgres.NewSettlementRepository(log, postgresDB)
	alertRepo := mongo.NewAlertRepository(log, mongoDB.Database())
	providerCallRepo := mongo.NewProviderCallRepository(log, mongoDB.Database())

	// Every provider exchange goes through the auditing decorator so the raw
	// request and response survive in Mongo for reconciliation
	gateway := provider.NewAuditingGateway(log, provider.NewHTTPGateway(log, &cfg.Provider), providerCallRepo)

	// Initialize core services
	ledgerWriter := posting.NewWriter(log, postgresDB, walletRepo, transactionRepo)
	alertRecorder := vas.NewAlertRecorder(log, alertRepo, alertProducer)

	purchaseSvc := vas.NewPurchaseService(
		log,
		&cfg.Vas,
		&cfg.Provider,
		vas.NewCatalog(),
		postgresDB,
		idempotencyRepo,
		walletRepo,
		purchaseRepo,
		ledgerWriter,
		gateway,
		alertRecorder,
		eventProducer,
	)
	requerySvc := vas.NewRequeryService(log, purchaseRepo, gateway, alertRecorder, eventProducer)

	pinLimiter := pin.NewLimiter(log, redisClient, &cfg.Pin)
	settlementEngine, err := fares.NewEngine(
		log,
		&cfg.Settlement,
		postgresDB,
		tripRepo,
		settlementRepo,
		walletRepo,
		ledgerWriter,
		pinLimiter,
		eventProducer,
	)
	if err != nil {
		log.Error("Failed to initialize settlement engine", "error", err)
		os.Exit(1)
	}

	transferSvc := transfer.NewService(
		log,
		cfg.Vas.ReservationStaleAfter,
		postgresDB,
		idempotencyRepo,
		ledgerWriter,
		eventProducer,
	)

	// Initialize API services
	purchaseService := service.NewPurchaseService(purchaseSvc, requerySvc, purchaseRepo)
	walletService := service.NewWalletService(walletRepo, transactionRepo)
	transferService := service.NewTransferService(transferSvc)
	settlementService := service.NewSettlementService(settlementEngine)

	// Initialize REST server
	server := api.NewServer(log, cfg, purchaseService, walletService, transferService, settlementService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no request arrives on closed dependencies
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing event producer", "error", err)
	}

	if err = alertProducer.Close(); err != nil {
		log.Error("Error closing alert producer", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
