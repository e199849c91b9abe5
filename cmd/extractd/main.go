package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/async"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/ingest"
	"github.com/joseph-ayodele/yacht-extract/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $YACHT_CONFIG)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.Options{OCR: true, Store: true})
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		logger.Error("DB health failed", "error", err)
		os.Exit(1)
	}
	logger.Info("DB health OK", "driver", a.DB.Dialect)

	// Inbox watcher feeding the worker queue
	var queue *async.WorkerQueue
	if cfg.Ingest.InboxDir != "" {
		queue = async.NewWorkerQueue(async.HandlerFunc(func(ctx context.Context, job async.Job) error {
			_, err := a.Processor.ProcessFile(common.WithRequestID(ctx, job.TraceID), job.Path, job.CategoryHint)
			return err
		}), logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		)
		inbox := ingest.NewInbox(ingest.WatchConfig{
			Roots:       []string{cfg.Ingest.InboxDir},
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
			Logger:      logger,
		}, queue)
		go func() {
			if err := inbox.Run(ctx); err != nil {
				logger.Error("inbox stopped", "error", err)
			}
		}()
		logger.Info("watching inbox", "dir", cfg.Ingest.InboxDir)
	}

	svc := server.NewExtractionService(a.Processor, a.Jobs, a.Merger, logger)
	grpcServer, hs := server.New(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC serving", "addr", lis.Addr().String())

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	if queue != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		queue.Shutdown(drainCtx)
		cancel()
	}
	logger.Info("stopped")
}
