package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/coreybb/resurface/api"
	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/digest"
	"github.com/coreybb/resurface/imports"
	"github.com/coreybb/resurface/ingestion"
	"github.com/coreybb/resurface/reminder"
	rh "github.com/coreybb/resurface/route-handlers"
	"github.com/coreybb/resurface/scheduler"
)

const (
	defaultPort         = "8080"
	defaultDatabaseURL  = "user=postgres password=password dbname=resurface host=localhost port=5432 sslmode=disable"
	defaultSendGridFrom = "digest@resurface.dev"
	defaultSendGridName = "Resurface"
	dbPingTimeout       = 5 * time.Second
	schemaTimeout       = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
	dbMaxOpenConns      = 25
	dbMaxIdleConns      = 25
	dbConnMaxLifetime   = 5 * time.Minute
)

type config struct {
	port              string
	databaseURL       string
	sendGridAPIKey    string
	sendGridFromEmail string
	sendGridFromName  string
	pocketConsumerKey string
	mockEmail         bool
	pollInterval      time.Duration
}

func main() {
	cfg := loadConfig()

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancelSchema()
	if err := datastore.EnsureSchema(schemaCtx, db); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	userRepo := datastore.NewUserRepository(db)
	itemRepo := datastore.NewItemRepository(db)
	reminderRepo := datastore.NewReminderRepository(db)

	// Initialize digest delivery
	var provider digest.Provider
	if cfg.mockEmail || cfg.sendGridAPIKey == "" {
		provider = digest.MockProvider{}
		log.Println("WARNING: Using mock email provider. Digests will be logged, not sent.")
	} else {
		provider = digest.NewSendGridProvider(cfg.sendGridAPIKey, cfg.sendGridFromEmail, cfg.sendGridFromName)
	}
	digestService := digest.NewService(userRepo, itemRepo, provider)

	// Initialize scheduler and the reminder API around it
	digestScheduler := scheduler.New(digestService, cfg.pollInterval)
	reminderService := reminder.NewService(reminderRepo, digestScheduler)

	// Rebuild the trigger table from persisted preferences before serving
	// requests, so a restart never silently drops reminders.
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancelRestore()
	restored, err := reminderService.RestoreTriggers(restoreCtx)
	if err != nil {
		log.Fatalf("Trigger reconciliation failed: %v", err)
	}
	log.Printf("Restored %d reminder triggers from persisted preferences", restored)

	// Initialize importers and page metadata enrichment
	metadataFetcher := ingestion.NewMetadataFetcher()
	pocketClient := imports.NewPocketClient(cfg.pocketConsumerKey, itemRepo)
	youtubeClient := imports.NewYouTubeClient(itemRepo)

	userHandler := rh.NewUserHandler(userRepo)
	itemHandler := rh.NewItemHandler(itemRepo, metadataFetcher)
	reminderHandler := rh.NewReminderHandler(reminderService)
	importHandler := rh.NewImportHandler(pocketClient, youtubeClient)

	apiRouter := api.SetupRoutes(userHandler, itemHandler, reminderHandler, importHandler)

	mainRouter := chi.NewRouter()
	mainRouter.Mount("/", apiRouter)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan struct{})
	go func() {
		digestScheduler.Run(runCtx)
		close(schedulerDone)
	}()

	startServer(runCtx, cfg.port, mainRouter)

	// The clock drains in-flight dispatches before returning.
	<-schedulerDone
	log.Println("Scheduler stopped")
}

func loadConfig() config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}

	sendGridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendGridAPIKey == "" {
		log.Println("WARNING: SENDGRID_API_KEY not set. Falling back to mock email delivery.")
	}

	sendGridFrom := os.Getenv("SENDGRID_FROM_EMAIL")
	if sendGridFrom == "" {
		sendGridFrom = defaultSendGridFrom
	}

	sendGridName := os.Getenv("SENDGRID_FROM_NAME")
	if sendGridName == "" {
		sendGridName = defaultSendGridName
	}

	pocketConsumerKey := os.Getenv("POCKET_CONSUMER_KEY")
	if pocketConsumerKey == "" {
		log.Println("WARNING: POCKET_CONSUMER_KEY not set. Pocket imports will fail at runtime.")
	}

	mockEmail := os.Getenv("MOCK_EMAIL") == "true"

	pollInterval := time.Duration(0)
	if raw := os.Getenv("SCHEDULER_INTERVAL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Printf("WARNING: Invalid SCHEDULER_INTERVAL_SECONDS %q, using default.", raw)
		} else {
			pollInterval = time.Duration(seconds) * time.Second
		}
	}

	return config{
		port:              port,
		databaseURL:       dbURL,
		sendGridAPIKey:    sendGridAPIKey,
		sendGridFromEmail: sendGridFrom,
		sendGridFromName:  sendGridName,
		pocketConsumerKey: pocketConsumerKey,
		mockEmail:         mockEmail,
		pollInterval:      pollInterval,
	}
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	// The database may still be coming up alongside us; retry the first
	// ping with backoff before giving up.
	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
			defer cancel()
			return db.PingContext(ctx)
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("WARNING: Database ping attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(ctx context.Context, port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done() // Block until shutdown signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
