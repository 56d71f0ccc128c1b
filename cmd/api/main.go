package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/animathic/backend/internal/adapters"
	"github.com/animathic/backend/internal/api"
	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/awsinfra"
	"github.com/animathic/backend/internal/concurrency"
	"github.com/animathic/backend/internal/config"
	"github.com/animathic/backend/internal/coordinator"
	"github.com/animathic/backend/internal/orchestrator"
	"github.com/animathic/backend/internal/renderer"
	"github.com/animathic/backend/internal/repository"
	"github.com/animathic/backend/internal/sandbox"
	"github.com/animathic/backend/internal/secrets"
	"github.com/animathic/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting animathic API",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("aws_region", cfg.AWSRegion),
	)

	if err := checkDependencies(cfg.RendererToolPath); err != nil {
		zapLogger.Fatal("system dependency check failed", zap.Error(err))
	}
	zapLogger.Info("renderer tool found in PATH", zap.String("tool", cfg.RendererToolPath))

	awsConfig, err := awsinfra.NewConfig(cfg.AWSRegion)
	if err != nil {
		zapLogger.Fatal("failed to initialize AWS config", zap.Error(err))
	}
	awsClients := awsinfra.NewClients(awsConfig)
	zapLogger.Info("AWS clients initialized")

	jobVideoRepo := repository.NewDynamoDBRepository(
		awsClients.DynamoDB,
		cfg.JobTable,
		cfg.VideoTable,
		cfg.LogsTable,
		zapLogger,
	)

	assetRepo := repository.NewS3AssetRepository(
		awsClients.S3,
		cfg.AssetsBucket,
		zapLogger,
	)

	secretsService := secrets.NewService(awsClients.SecretsManager, zapLogger)
	replicateAPIKey, err := secretsService.GetReplicateAPIKey(context.Background(), cfg.ReplicateSecretARN)
	if err != nil {
		zapLogger.Fatal("failed to retrieve Replicate API key", zap.Error(err))
	}

	primaryBackend := adapters.NewReplicateBackend(cfg.LLMPrimary, replicateAPIKey, cfg.LLMModelVersion, zapLogger)
	var fallbackBackend adapters.SpecBackend
	if cfg.LocalModelVersion != "" {
		fallbackBackend = adapters.NewLocalBackend(replicateAPIKey, cfg.LocalModelVersion, zapLogger)
	}
	orch := orchestrator.New(primaryBackend, fallbackBackend, cfg.LLMAttemptBudget, zapLogger)

	sb := sandbox.New(sandbox.Config{
		BaseDir:       cfg.SandboxBaseDir,
		MemoryMiB:     cfg.SandboxMemoryMiB,
		WallTimeoutS:  cfg.SandboxWallTimeoutS,
		CPUTimeoutS:   cfg.SandboxCPUTimeoutS,
		DisableLimits: cfg.SandboxDisableLimits,
	}, zapLogger)

	rd := renderer.New(cfg.RendererToolPath, sb, zapLogger)

	coord := coordinator.New(orch, sb, rd, jobVideoRepo, jobVideoRepo, assetRepo, cfg.LLMAttemptBudget, zapLogger)
	workerPool := coordinator.NewWorkerPool(coord, cfg.WorkerConcurrency)

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", cfg.JWTIssuer)
	jwtValidator := auth.NewJWTValidator(jwksURL, cfg.JWTIssuer, "", zapLogger)
	if !cfg.SkipAuth {
		if err := jwtValidator.FetchJWKS(); err != nil {
			if cfg.Environment == "production" {
				zapLogger.Fatal("failed to fetch JWKS", zap.Error(err))
			}
			zapLogger.Warn("failed to fetch JWKS (continuing in development mode)", zap.Error(err))
		}
	}

	admissionSem := concurrency.NewSemaphore(cfg.QueueMax)

	server := api.NewServer(&api.ServerConfig{
		Port:         cfg.Port,
		Environment:  cfg.Environment,
		Logger:       zapLogger,
		JobRepo:      jobVideoRepo,
		VideoRepo:    jobVideoRepo,
		AssetRepo:    assetRepo,
		Coordinator:  workerPool,
		Semaphore:    admissionSem,
		JobDeadline:  time.Duration(cfg.JobDeadlineS) * time.Second,
		JWTValidator: jwtValidator,
		MaxBodyBytes: 1 << 20,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server exited cleanly")
}

// checkDependencies verifies the renderer tool binary is reachable.
func checkDependencies(rendererTool string) error {
	if _, err := exec.LookPath(rendererTool); err != nil {
		return fmt.Errorf("%s not found in PATH - required for rendering (§4.3)", rendererTool)
	}
	return nil
}
