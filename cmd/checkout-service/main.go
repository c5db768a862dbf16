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
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ela-checkout/internal/checkout"
	"ela-checkout/internal/checkout/api"
	checkoutdb "ela-checkout/internal/checkout/db"
	"ela-checkout/internal/config"
	"ela-checkout/internal/database/migrations"
	"ela-checkout/internal/gateway"
	"ela-checkout/internal/kafka"
	"ela-checkout/internal/logger"
	"ela-checkout/internal/mirror"
	"ela-checkout/internal/tickets"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Checkout Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", "No .env file found, relying on environment variables")
	}

	cfg := config.Load()

	// --- PostgreSQL (system of record) ---
	bunDB := connectPostgres(cfg.Primary, log)
	defer bunDB.Close()

	if cfg.Primary.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Primary.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.Initialize(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to initialize migrations: %v", err))
		}
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
	}

	store := &checkoutdb.DB{Bun: bunDB}

	// --- MySQL mirror (best-effort reporting copy) ---
	var replica mirror.Store
	if cfg.Mirror.Enabled() {
		mysqlStore, err := mirror.NewMySQLStore(cfg.Mirror, log)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to MySQL mirror: %v", err))
		}
		defer mysqlStore.Close()
		replica = mysqlStore
	} else {
		log.Warn("DATABASE", "MySQL mirror not configured, orders will only be written to PostgreSQL")
	}

	// --- Redis customer cache ---
	var customerCache *gateway.CustomerCache
	if cfg.Redis.Enabled {
		cache, err := gateway.InitializeCustomerCache(cfg.Redis.Addr, cfg.Redis.CustomerTTL, log)
		if err != nil {
			log.Warn("REDIS", fmt.Sprintf("Customer cache unavailable, continuing without it: %v", err))
		} else {
			customerCache = cache
			defer cache.Client.Close()
		}
	}

	// --- Kafka order events ---
	var events checkout.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
		log.Info("KAFKA", fmt.Sprintf("Order events will be published to topic %s", cfg.Kafka.Topic))
	}

	// --- Stripe gateway ---
	stripeGateway, err := gateway.NewStripeGateway(cfg.Stripe.SecretKey, customerCache, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Failed to initialize Stripe gateway: %v", err))
	}

	qr := tickets.NewQRGenerator(cfg.Checkout.QRSecret)

	service := checkout.NewCheckoutService(
		stripeGateway, store, replica, events, qr,
		checkout.DefaultTiers(), cfg.Stripe.Currency, log,
	)
	handler := api.NewHandler(service, log)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Post("/api/v1/payment-intents", handler.CreatePaymentIntent)
	r.Post("/api/v1/payment-intents/confirm", handler.ConfirmPayment)
	r.Post("/api/v1/leads", handler.CaptureLead)
	r.Get("/api/v1/orders/{paymentIntentId}/ticket", handler.TicketQR)
	r.Get("/health", handler.Health)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("🚀 Checkout Service running on :%s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("APP", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("APP", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("APP", "✅ Server exited gracefully")
}
