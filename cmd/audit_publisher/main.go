package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/smartbank-ledger/internal/audit"
	"github.com/smartbank-ledger/internal/config"
	"github.com/smartbank-ledger/internal/data/postgres"
	"github.com/smartbank-ledger/internal/logger"
	"github.com/smartbank-ledger/internal/platform/messaging/producers"
	"github.com/smartbank-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("audit_publisher")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Audit Publisher",
		"env", cfg.Application.Env,
		"topic", cfg.Kafka.AuditTopic,
	)

	// The publisher only drains the transactional outbox, which exists
	// only with the postgres backend.
	if cfg.Ledger.Backend != config.BackendPostgres {
		log.Error("Audit publisher requires the postgres backend", "backend", cfg.Ledger.Backend)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled {
		log.Error("Audit publisher requires Kafka to be enabled")
		os.Exit(1)
	}

	// Initialize PostgreSQL with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize Kafka producers
	auditProducer, err := producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. The poller is nil-safe.

	// Initialize outbox poller
	var poller *audit.Poller
	if dlqProducer != nil {
		poller = audit.NewPoller(&cfg.Outbox, outboxRepo, auditProducer, dlqProducer, log)
	} else {
		poller = audit.NewPoller(&cfg.Outbox, outboxRepo, auditProducer, nil, log)
	}

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Outbox poller stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing audit event producer", "error", err)
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if err != nil {
		log.Error("Audit Publisher shutdown completed with errors")
	} else {
		log.Info("Audit Publisher shutdown completed successfully")
	}
}
