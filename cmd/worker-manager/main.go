// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qualification-workers/internal/common/aws"
	"qualification-workers/internal/common/camunda"
	"qualification-workers/internal/common/config"
	"qualification-workers/internal/common/database"
	"qualification-workers/internal/common/logger"
	"qualification-workers/internal/common/observability"
	"qualification-workers/internal/qualification/bulk"
	"qualification-workers/internal/qualification/catalog"
	"qualification-workers/internal/qualification/emailsignals"
	"qualification-workers/internal/qualification/orchestrator"
	"qualification-workers/internal/qualification/scheduler"
	"qualification-workers/internal/store"

	aqe "qualification-workers/internal/workers/qualification/auto-qualify-email"
	bq "qualification-workers/internal/workers/qualification/bulk-qualify"
	qf "qualification-workers/internal/workers/qualification/qualification-form"
	ql "qualification-workers/internal/workers/qualification/qualify-lead"
	ts "qualification-workers/internal/workers/qualification/tier-statistics"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintext,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected")

	if cfg.Database.Postgres.AutoMigrate {
		if err := store.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("schema migrated")
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected")

	// --- Qualification engine ---
	crm := store.NewPostgres(pg.DB)

	orchOpts := []orchestrator.Option{}
	if hl := cfg.Notifications.HotLead; hl.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, hl.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		orchOpts = append(orchOpts, orchestrator.WithNotifier(aws.NewHotLeadNotifier(snsClient, hl.TopicARN)))
		zapLog.Info("hot lead alerts enabled", zap.String("topicArn", hl.TopicARN))
	}

	sequences := catalog.NewResolver(crm, rdb.Client, cfg.Qualification.CacheTTL(), log)
	sched := scheduler.New(crm, log, scheduler.WithPolicy(cfg.Qualification.ExecutionPolicy))
	orch := orchestrator.New(crm, sequences, sched, orchestrator.Settings{
		LeadCreationThreshold: cfg.Qualification.LeadCreationThreshold,
		TagPolicy:             cfg.Qualification.TagPolicy,
	}, log, orchOpts...)
	extractor := emailsignals.NewExtractor(crm, log)
	runner := bulk.NewRunner(orch, crm, log, bulk.WithMaxItems(cfg.Qualification.BulkMaxItems))

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(name, taskType string, enabled bool, maxJobs int, timeout time.Duration, handler camunda.JobHandler) {
		if !enabled {
			zapLog.Info("worker disabled", zap.String("worker", name))
			return
		}
		workers = append(workers, camunda.StartWorker(zeebe.Zeebe(), taskType, camunda.WorkerOptions{
			MaxJobsActive: maxJobs,
			Timeout:       timeout,
		}, handler, zapLog))
	}

	qlCfg := ql.ConfigFromApp(cfg)
	start(ql.WorkerName, ql.TaskType, qlCfg.Enabled, qlCfg.MaxJobsActive, qlCfg.Timeout,
		ql.NewHandler(qlCfg, orch, obs, log))

	aqeCfg := aqe.ConfigFromApp(cfg)
	start(aqe.WorkerName, aqe.TaskType, aqeCfg.Enabled, aqeCfg.MaxJobsActive, aqeCfg.Timeout,
		aqe.NewHandler(aqeCfg, extractor, orch, obs, log))

	bqCfg := bq.ConfigFromApp(cfg)
	start(bq.WorkerName, bq.TaskType, bqCfg.Enabled, bqCfg.MaxJobsActive, bqCfg.Timeout,
		bq.NewHandler(bqCfg, runner, obs, log))

	qfCfg := qf.ConfigFromApp(cfg)
	start(qf.WorkerName, qf.TaskType, qfCfg.Enabled, qfCfg.MaxJobsActive, qfCfg.Timeout,
		qf.NewHandler(qfCfg, obs, log))

	tsCfg := ts.ConfigFromApp(cfg)
	start(ts.WorkerName, ts.TaskType, tsCfg.Enabled, tsCfg.MaxJobsActive, tsCfg.Timeout,
		ts.NewHandler(tsCfg, crm, obs, log))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "postgres unavailable")
			return
		}
		if err := rdb.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error flushing metrics", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
