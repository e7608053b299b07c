package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"testbrain/app/config"
	"testbrain/app/usecase"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/embedding"
	"testbrain/internal/infrastructure/metrics"
	"testbrain/internal/infrastructure/prompt"
	"testbrain/internal/infrastructure/store/filesystem"
	mongorepo "testbrain/internal/infrastructure/store/mongodb"
	"testbrain/internal/infrastructure/store/postgres"
	"testbrain/internal/infrastructure/store/vector"
	"testbrain/internal/infrastructure/transport"
	"testbrain/internal/infrastructure/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Connect to MongoDB
	mongoClient, err := mongorepo.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	logger.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))
	db := mongoClient.Database(cfg.Mongo.Database)

	// Repositories
	jobRepo := mongorepo.NewMongoJobRepo(db, logger)
	knowledgeRepo := mongorepo.NewMongoKnowledgeRepo(db, logger)
	caseRepo, reviewRepo, closeCases, err := testCaseStore(ctx, cfg, db)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return err
	}
	defer closeCases()

	docRepo, err := filesystem.NewFileRepository(cfg.Storage.UploadsDir)
	if err != nil {
		return err
	}
	vectors, err := vector.NewSQLiteStore(cfg.Storage.VectorDBPath, logger)
	if err != nil {
		return err
	}
	defer vectors.Close()

	embedder, err := embedding.NewEngine(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Endpoint: cfg.Embedding.Endpoint,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
		TaskType: cfg.Embedding.TaskType,
	}, logger)
	if err != nil {
		return err
	}

	// LLM providers and prompts
	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	prompts, err := prompt.New()
	if err != nil {
		return err
	}

	// Usecases / services
	knowledgeSvc := usecase.NewKnowledgeService(knowledgeRepo, vectors, embedder, cfg.Knowledge.TopK, logger)
	generator := newBatchGenerator(cfg, registry, knowledgeSvc, prompts)
	jobWorker := usecase.NewJobWorker(jobRepo, docRepo, generator, cfg.Batch.PollInterval, logger)
	jobWorker.Start(ctx) // background worker

	handler := transport.NewHandler(transport.Services{
		TestCases:    usecase.NewTestCaseService(caseRepo, logger),
		Requirements: usecase.NewRequirementGenerator(registry, knowledgeSvc, prompts, logger),
		Reviewer:     usecase.NewReviewer(caseRepo, reviewRepo, registry, knowledgeSvc, prompts, logger),
		Knowledge:    knowledgeSvc,
		Definitions:  usecase.NewAPIDefinitionService(docRepo, validator.NewAPIDocumentValidator(), generator, logger),
		Jobs:         usecase.NewJobService(jobRepo, docRepo),
		PRD:          usecase.NewPRDAnalyser(registry, prompts),
		Providers:    registry.Names(),
	}, logger)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
	recovered := handlers.RecoveryHandler(handlers.PrintRecoveryStack(verbose))(corsHandler)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      transport.AccessLog(logger, recovered),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			logger.Info("starting metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := metrics.StartMetricsServer(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("stopping job worker")
	cancel()
	jobWorker.Stop()

	logger.Info("disconnecting mongo")
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("mongo disconnect error", zap.Error(err))
	}

	logger.Info("service stopped")
	return nil
}

// testCaseStore returns the configured test case and review repositories.
func testCaseStore(ctx context.Context, cfg *config.Config, db *mongo.Database) (repository.TestCaseRepository, repository.ReviewRepository, func(), error) {
	if cfg.Storage.TestCaseStore != "postgres" {
		return mongorepo.NewMongoTestCaseRepo(db, logger), mongorepo.NewMongoReviewRepo(db, logger), func() {}, nil
	}

	if err := postgres.Migrate(cfg.Storage.PostgresDSN, logger); err != nil {
		return nil, nil, nil, err
	}
	pg, err := postgres.NewDB(ctx, cfg.Storage.PostgresDSN, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, nil, nil, err
	}
	logger.Info("using postgres test case store")
	return postgres.NewTestCaseRepository(pg), postgres.NewReviewRepository(pg), pg.Close, nil
}
