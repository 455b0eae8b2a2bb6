// Package admin holds the papyrd daemon commands.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/papyrai/internal/api/handlers"
	"github.com/cloo-solutions/papyrai/internal/config"
	"github.com/cloo-solutions/papyrai/internal/database"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/jobs"
	"github.com/cloo-solutions/papyrai/internal/openai"
	"github.com/cloo-solutions/papyrai/internal/parser"
	"github.com/cloo-solutions/papyrai/internal/repository"
	"github.com/cloo-solutions/papyrai/internal/server"
	"github.com/cloo-solutions/papyrai/internal/service"
	"github.com/cloo-solutions/papyrai/internal/storage"
	"github.com/cloo-solutions/papyrai/internal/store"
	"github.com/cloo-solutions/papyrai/internal/telemetry"
)

const indexPollInterval = 2 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the papyr API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("PAPYR_OPENAI_API_KEY is required: the pipeline needs embedding and completion access")
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentrySampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	// Stores: Postgres when configured, otherwise in-process memory.
	var (
		sessions  service.SessionStoreInterface
		docs      service.DocumentStoreInterface
		reminders service.ReminderStoreInterface
		actionLog service.ActionLogStoreInterface

		txRunner service.TxRunnerInterface
		docRepo  *repository.DocumentRepository
	)
	if cfg.HasPostgres() {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		docRepo = repository.NewDocumentRepository(pool)
		sessions = repository.NewSessionRepository(pool)
		docs = docRepo
		reminders = repository.NewReminderRepository(pool)
		actionLog = repository.NewActionLogRepository(pool)
		txRunner = repository.NewTxRunner(pool)
	} else {
		log.Println("no database configured, using in-memory stores")
		sessions = store.NewMemorySessionStore()
		docs = store.NewMemoryDocumentStore()
		reminders = store.NewMemoryReminderStore()
		actionLog = store.NewMemoryActionLogStore()
	}

	idx := index.NewMemory()
	if docRepo != nil {
		if err := docRepo.LoadIndex(ctx, idx.Add); err != nil {
			return fmt.Errorf("failed to warm vector index: %w", err)
		}
		stats := idx.Stats()
		log.Printf("vector index warmed: %d chunks from %d documents", stats.ChunkCount, stats.DocumentCount)
	}

	var archiver service.ArchiverInterface
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	aiClient := openai.NewClient(cfg.OpenAIAPIKey)

	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.WindowSize = cfg.ChunkWindowSize
	chunkCfg.Overlap = cfg.ChunkOverlap

	ingestSvc := service.NewIngestService(parser.New(), docs, aiClient, idx, archiver, chunkCfg)
	retrievalSvc := service.NewRetrievalService(aiClient, idx, docs)

	locks := service.NewSessionLocks()
	confirmSvc := service.NewConfirmationService(sessions, reminders, actionLog, locks, txRunner)
	orchestrator := service.NewOrchestrator(sessions, ingestSvc, retrievalSvc, aiClient, confirmSvc, locks, service.OrchestratorConfig{
		RetrievalK:       cfg.RetrievalK,
		HistoryWindow:    cfg.HistoryWindow,
		PromptByteBudget: cfg.PromptByteBudget,
	})

	indexProcessor := jobs.NewIndexProcessor(ingestSvc, cfg.IndexQueueSize)
	indexWorker := jobs.NewWorker("indexer", indexProcessor, indexPollInterval)
	go indexWorker.Start(ctx)
	log.Println("index worker started")

	router := server.NewRouter(server.RouterConfig{
		UploadHandler:   handlers.NewUploadHandler(ingestSvc, indexProcessor, docs, cfg.MaxUploadBytes),
		ChatHandler:     handlers.NewChatHandler(orchestrator),
		ConfirmHandler:  handlers.NewConfirmHandler(confirmSvc),
		StatsHandler:    handlers.NewStatsHandler(idx, cfg.HasOpenAI()),
		ReminderHandler: handlers.NewReminderHandler(reminders),
		HistoryHandler:  handlers.NewHistoryHandler(sessions, actionLog),
		MaxBodyBytes:    cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	indexWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
