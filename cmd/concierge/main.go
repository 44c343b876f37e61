package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sabing2005/meal-backend/internal/app/chainverify"
	"github.com/sabing2005/meal-backend/internal/app/ledger"
	"github.com/sabing2005/meal-backend/internal/app/reconciler"
	"github.com/sabing2005/meal-backend/internal/app/tickets"
	"github.com/sabing2005/meal-backend/internal/config"
	actor_middleware "github.com/sabing2005/meal-backend/internal/handler/http/middleware"
	http_orders "github.com/sabing2005/meal-backend/internal/handler/http/orders"
	http_payments "github.com/sabing2005/meal-backend/internal/handler/http/payments"
	http_tickets "github.com/sabing2005/meal-backend/internal/handler/http/tickets"
	kafka_handler "github.com/sabing2005/meal-backend/internal/handler/kafka"
	"github.com/sabing2005/meal-backend/internal/infrastructure/database"
	"github.com/sabing2005/meal-backend/internal/infrastructure/kafka"
	"github.com/sabing2005/meal-backend/internal/infrastructure/solana"
	"github.com/sabing2005/meal-backend/internal/outbox"
	postgres_inbox_repo "github.com/sabing2005/meal-backend/internal/repository/inbox_repo/postgres"
	postgres_order_repo "github.com/sabing2005/meal-backend/internal/repository/order_repo/postgres"
	postgres_outbox_repo "github.com/sabing2005/meal-backend/internal/repository/outbox_repo/postgres"
	postgres_payment_repo "github.com/sabing2005/meal-backend/internal/repository/payment_repo/postgres"
	postgres_ticket_repo "github.com/sabing2005/meal-backend/internal/repository/ticket_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Concierge service starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New(cfg.MigrationsPath, migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	txManager := database.NewTxManager(db, appLogger)
	orderRepository := postgres_order_repo.NewOrderRepository(appLogger)
	paymentRepository := postgres_payment_repo.NewPaymentRepository(appLogger)
	ticketRepository := postgres_ticket_repo.NewTicketRepository(appLogger)
	inboxRepository := postgres_inbox_repo.NewInboxRepository(appLogger)
	outboxRepository := postgres_outbox_repo.NewOutboxRepository(db, appLogger)

	rpcClient := solana.NewClient(cfg.SolanaRPCURL, appLogger.With(zap.String("component", "SolanaRPC")))
	verifier := chainverify.NewVerifier(rpcClient, cfg.VerifyMaxAttempts, cfg.VerifyRetryDelay, appLogger.With(zap.String("component", "ChainVerifier")))

	ledgerService := ledger.NewLedgerService(txManager, orderRepository, outboxRepository, appLogger.With(zap.String("component", "LedgerService")))
	reconcilerService := reconciler.NewReconcilerService(
		txManager,
		orderRepository,
		paymentRepository,
		ticketRepository,
		outboxRepository,
		inboxRepository,
		verifier,
		cfg.SolanaRecipient,
		appLogger.With(zap.String("component", "ReconcilerService")),
	)
	ticketService := tickets.NewTicketService(txManager, ticketRepository, orderRepository, outboxRepository, appLogger.With(zap.String("component", "TicketService")))

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	outboxProcessor := outbox.NewProcessor(outboxRepository, kafkaProducer, appLogger.With(zap.String("component", "OutboxProcessor")))
	go func() {
		ticker := time.NewTicker(cfg.OutboxPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(rootCtx, cfg.OutboxPollTimeout)
				if err := outboxProcessor.ProcessPending(ctx); err != nil {
					appLogger.Error("Error processing outbox", zap.Error(err))
				}
				cancel()
			}
		}
	}()
	appLogger.Info("Transactional outbox sender started.")

	verificationConsumer := kafka_handler.NewVerificationConsumer(reconcilerService, appLogger.With(zap.String("component", "VerificationConsumer")))
	go func() {
		err := kafka.RunConsumer(
			rootCtx,
			cfg.GetKafkaBrokers(),
			cfg.KafkaVerificationTopic,
			cfg.KafkaConsumerGroup,
			verificationConsumer.HandleMessage,
			appLogger,
		)
		if err != nil {
			appLogger.Error("Verification task consumer stopped", zap.Error(err))
		}
	}()
	appLogger.Info("Verification task consumer started.")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_payments.RegisterWebhookRoutes(r, reconcilerService, cfg.StripeWebhookSecret, appLogger)

	r.Group(func(r chi.Router) {
		r.Use(actor_middleware.Actor)
		http_orders.RegisterRoutes(r, ledgerService, appLogger)
		http_payments.RegisterRoutes(r, reconcilerService, cfg.StripeWebhookSecret, appLogger)
		http_tickets.RegisterRoutes(r, ticketService, appLogger)
	})

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Concierge service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down concierge service...")
	rootCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Concierge service stopped.")
}
