package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/enerdoc/docingest/internal/classifier"
	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/enhance"
	"github.com/enerdoc/docingest/internal/pipeline"
	"github.com/enerdoc/docingest/internal/preprocess"
	"github.com/enerdoc/docingest/internal/progress"
	"github.com/enerdoc/docingest/internal/recognize"
	repo "github.com/enerdoc/docingest/internal/repository"
	"github.com/enerdoc/docingest/internal/server"
	"github.com/enerdoc/docingest/internal/tables"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entc, pool, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(entc, pool, logger)

	if err := repo.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database health OK")

	recognizer, err := recognize.NewTesseract(cfg.Recognize, logger)
	if err != nil {
		// The daemon still serves text-native documents without an engine.
		logger.Warn("recognition engine unavailable", "error", err)
		recognizer = nil
	} else {
		defer recognizer.Close()
	}

	var enhancer enhance.Enhancer
	if cfg.Enhance.APIKey != "" {
		enhancer = enhance.NewClient(cfg.Enhance, logger)
	} else {
		logger.Info("no AI_API_KEY set; enhancement stage disabled")
	}

	orch := pipeline.NewOrchestrator(
		classifier.New(cfg.Classifier, logger),
		tables.DefaultRegistry(),
		preprocess.New(cfg.Preprocess, logger),
		recognizerOrNil(recognizer),
		enhancer,
		cfg.Recognize,
		logger,
	)
	tracker := progress.NewTracker(logger)
	svc := pipeline.NewService(
		orch,
		tracker,
		repo.NewDocumentFileRepository(entc, logger),
		repo.NewExtractJobRepository(entc, logger),
		logger,
	)

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	httpSrv := server.NewStatusServer(svc, cfg.Server.HTTPAddr, logger)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil {
			logger.Warn("status server stopped", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	grpcServer.GracefulStop()
	_ = httpSrv.Shutdown(context.Background())
	logger.Info("stopped")
}

// recognizerOrNil keeps the nil interface nil; a typed nil pointer would
// defeat the orchestrator's availability check.
func recognizerOrNil(r *recognize.TesseractRecognizer) recognize.Recognizer {
	if r == nil {
		return nil
	}
	return r
}
