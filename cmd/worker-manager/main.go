// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"siba-workers/internal/common/camunda"
	"siba-workers/internal/common/config"
	"siba-workers/internal/common/database"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/observability"
	"siba-workers/internal/gateways/catalog"
	"siba-workers/internal/gateways/channelmanager"
	"siba-workers/internal/gateways/localtax"
	"siba-workers/internal/siba/dashboard"
	"siba-workers/internal/siba/reconcile"
	"siba-workers/internal/siba/status"
	"siba-workers/internal/siba/submission"

	bd "siba-workers/internal/workers/compliance/build-dashboard"
	rs "siba-workers/internal/workers/compliance/resolve-status"
	sr "siba-workers/internal/workers/registration/submit-registration"
	vr "siba-workers/internal/workers/registration/validate-registration"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	// The audit trail is best-effort: after the retries run out we keep
	// going without it rather than blocking compliance work.
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Warn("elasticsearch unavailable, dashboard audit trail disabled", zap.Error(err))
		esClient = nil
	} else {
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Upstream Gateway Clients ---
	channelManager := channelmanager.NewClient(cfg.Gateways.ChannelManager)
	localTax := localtax.NewClient(cfg.Gateways.LocalTax, log)
	propertyCatalog := catalog.NewClient(cfg.Gateways.Catalog)

	zapLog.Info("All upstream gateway clients initialized")

	// --- Wire the SIBA core ---
	resolver := status.NewResolver(channelManager, localTax, cfg.Policy, log)
	reconciler := reconcile.NewReconciler(channelManager, redis.GetClient(), cfg.Policy.LookbackDays, log)
	validator := reconcile.NewValidator(reconciler, localTax, log)
	journal := submission.NewJournal(pg.GetDB(), log)
	pipeline := submission.NewPipeline(validator, localTax, journal, log)

	var audit dashboard.AuditSink
	if esClient != nil {
		audit = dashboard.NewAuditIndexer(esClient.Client, log)
	}
	builder := dashboard.NewBuilder(propertyCatalog, resolver, channelManager, localTax, audit, cfg.Policy, log)

	// --- Register Workers ---

	var activeWorkers []*camunda.CamundaWorker

	if taskType := rs.TaskType; config.IsWorkerEnabled(cfg, "resolve-status") {
		handler, err := rs.NewHandler(rs.HandlerOptions{
			AppConfig: cfg,
			Camunda:   camundaClient,
			Resolver:  resolver,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create resolve-status handler", zap.Error(err))
		}
		if w := startWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, "resolve-status"), handler.Handle, zapLog); w != nil {
			activeWorkers = append(activeWorkers, w)
		}
	}

	if taskType := bd.TaskType; config.IsWorkerEnabled(cfg, "build-dashboard") {
		handler, err := bd.NewHandler(bd.HandlerOptions{
			AppConfig: cfg,
			Camunda:   camundaClient,
			Builder:   builder,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create build-dashboard handler", zap.Error(err))
		}
		if w := startWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, "build-dashboard"), handler.Handle, zapLog); w != nil {
			activeWorkers = append(activeWorkers, w)
		}
	}

	if taskType := vr.TaskType; config.IsWorkerEnabled(cfg, "validate-registration") {
		handler, err := vr.NewHandler(vr.HandlerOptions{
			AppConfig: cfg,
			Camunda:   camundaClient,
			Validator: pipeline,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create validate-registration handler", zap.Error(err))
		}
		if w := startWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, "validate-registration"), handler.Handle, zapLog); w != nil {
			activeWorkers = append(activeWorkers, w)
		}
	}

	if taskType := sr.TaskType; config.IsWorkerEnabled(cfg, "submit-registration") {
		handler, err := sr.NewHandler(sr.HandlerOptions{
			AppConfig: cfg,
			Camunda:   camundaClient,
			Pipeline:  pipeline,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create submit-registration handler", zap.Error(err))
		}
		if w := startWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, "submit-registration"), handler.Handle, zapLog); w != nil {
			activeWorkers = append(activeWorkers, w)
		}
	}

	zapLog.Info("All workers registered successfully")

	// --- Health, Metrics & Dashboard Server ---
	srv := &http.Server{Addr: ":8080"}
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(builder.Build(r.Context()))
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range activeWorkers {
		w.Stop(shutdownCtx)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandlerFunc, log *zap.Logger) *camunda.CamundaWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	return camunda.NewWorker(client, taskType, wcfg.MaxJobsActive, time.Duration(wcfg.Timeout)*time.Millisecond, handlerFunc, log)
}
