// cmd/scoring-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"credit-scoring-workers/internal/api"
	"credit-scoring-workers/internal/audit"
	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/database"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/observability"
	"credit-scoring-workers/internal/store"

	sdn "credit-scoring-workers/internal/workers/notification/score-decision-notify"
	ccs "credit-scoring-workers/internal/workers/scoring/calculate-credit-score"
	cdf "credit-scoring-workers/internal/workers/scoring/calculate-derived-fields"
	vad "credit-scoring-workers/internal/workers/scoring/validate-applicant-data"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scoring manager...")

	obs := observability.New("scoring-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Configuration Store ---
	cacheTTL := time.Duration(cfg.Scoring.ConfigCacheTTL) * time.Millisecond
	st := store.New(pg.DB, redis.Client, cacheTTL, log)

	if err := st.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	if err := st.Seed(ctx); err != nil {
		zapLog.Fatal("configuration seed failed", zap.Error(err))
	}
	zapLog.Info("Scoring configuration store ready")

	auditor := audit.NewIndexer(esClient.Client, cfg.Scoring.AuditIndex, log)

	// --- Register Scoring Workers ---
	if cfg.Workers[vad.TaskType].Enabled {
		handler := vad.NewHandler(
			&vad.Config{
				Timeout: time.Duration(cfg.Workers[vad.TaskType].Timeout) * time.Millisecond,
			},
			st, log,
		)
		startWorker(zeebeClient, vad.TaskType, cfg.Workers[vad.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cdf.TaskType].Enabled {
		handler := cdf.NewHandler(
			&cdf.Config{
				Timeout: time.Duration(cfg.Workers[cdf.TaskType].Timeout) * time.Millisecond,
			},
			st, log,
		)
		startWorker(zeebeClient, cdf.TaskType, cfg.Workers[cdf.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ccs.TaskType].Enabled {
		ccsConfig := ccs.LoadConfigFrom(cfg.Scoring)
		ccsConfig.Timeout = time.Duration(cfg.Workers[ccs.TaskType].Timeout) * time.Millisecond
		handler := ccs.NewHandler(ccsConfig, st, auditor, obs, log)
		startWorker(zeebeClient, ccs.TaskType, cfg.Workers[ccs.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sdn.TaskType].Enabled {
		handler, err := sdn.NewHandler(
			&sdn.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      time.Duration(cfg.Workers[sdn.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create score-decision-notify handler", zap.Error(err))
		}
		startWorker(zeebeClient, sdn.TaskType, cfg.Workers[sdn.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All scoring workers registered successfully")

	// --- Admin API Server (also serves /healthz and /metrics) ---
	adminServer := &http.Server{
		Addr:         cfg.Admin.Address,
		Handler:      api.NewServer(st, cfg.Scoring, log).Routes(),
		ReadTimeout:  time.Duration(cfg.Admin.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Admin.WriteTimeout) * time.Millisecond,
	}
	go func() {
		zapLog.Info("Admin API listening", zap.String("address", cfg.Admin.Address))
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Admin API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping admin API server", zap.Error(err))
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Scoring manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
