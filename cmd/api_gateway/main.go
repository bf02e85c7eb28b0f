package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartbank-ledger/internal/api_gateway"
	"github.com/smartbank-ledger/internal/audit"
	"github.com/smartbank-ledger/internal/config"
	"github.com/smartbank-ledger/internal/data/memory"
	"github.com/smartbank-ledger/internal/data/mongo"
	"github.com/smartbank-ledger/internal/data/postgres"
	"github.com/smartbank-ledger/internal/domain/account"
	"github.com/smartbank-ledger/internal/domain/ledger"
	"github.com/smartbank-ledger/internal/domain/transaction"
	"github.com/smartbank-ledger/internal/engine"
	"github.com/smartbank-ledger/internal/logger"
	"github.com/smartbank-ledger/internal/platform/messaging/producers"
	"github.com/smartbank-ledger/internal/platform/persistence"
	"github.com/smartbank-ledger/internal/registry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"env", cfg.Application.Env,
		"backend", cfg.Ledger.Backend,
	)

	// Initialize the selected storage backend
	var (
		accountRepo account.Repository
		ledgerStore ledger.Store
		txnLog      transaction.Log
		postgresDB  *persistence.PostgresDB
		mongoDB     *persistence.MongoDB
	)

	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}

		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}

		accountRepo = postgres.NewAccountRepository(log, postgresDB)
		ledgerStore = postgres.NewLedgerStore(log, postgresDB)
		txnLog = mongo.NewTransactionLog(log, mongoDB.Database())

	default:
		store := memory.NewStore(log)
		accountRepo = store
		ledgerStore = store
		txnLog = memory.NewTransactionLog(log)
	}

	// Initialize audit event notification. With the postgres backend,
	// events go through the transactional outbox and the audit publisher
	// drains it; with the memory backend they go straight to Kafka.
	var notifier engine.AuditNotifier
	var kafkaProducer *producers.AuditEventProducer
	if cfg.Kafka.Enabled {
		if cfg.Ledger.Backend == config.BackendPostgres {
			notifier = audit.NewOutboxNotifier(log, postgres.NewOutboxRepository(log, postgresDB))
		} else {
			kafkaProducer, err = producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
			if err != nil {
				log.Error("Failed to initialize audit event producer", "error", err)
				os.Exit(1)
			}
			notifier = audit.NewDirectNotifier(log, kafkaProducer)
		}
	}

	// Initialize the account registry and the transfer engine
	accountRegistry := registry.New(log, accountRepo,
		registry.WithNumberPrefix(cfg.Ledger.NumberPrefix),
		registry.WithMaxAttempts(cfg.Ledger.NumberMaxAttempts),
	)

	transferEngine := engine.New(log, accountRepo, ledgerStore, txnLog, notifier)

	pooledEngine, err := engine.NewPooledService(transferEngine, engine.WorkerPoolConfig{Size: cfg.WorkerPool.Size}, log)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountRegistry, pooledEngine, txnLog)
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

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the worker pool before closing its downstream dependencies
	log.Info("Shutting down worker pool", "running_workers", pooledEngine.Running())
	pooledEngine.Shutdown()

	if kafkaProducer != nil {
		if err = kafkaProducer.Close(); err != nil {
			log.Error("Error closing audit event producer", "error", err)
		}
	}

	if postgresDB != nil {
		postgresDB.Close()
	}

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
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
