// Package builddashboard serves the siba.dashboard.build task: aggregate
// the whole fleet into the prioritized compliance dashboard. The
// aggregator itself cannot fail, so jobs only fail on infrastructure
// errors talking back to the broker.
package builddashboard

import (
	"context"
	"fmt"
	"time"

	"siba-workers/internal/common/camunda"
	"siba-workers/internal/common/config"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "siba.dashboard.build"

// DashboardBuilder is implemented by the siba dashboard package.
type DashboardBuilder interface {
	Build(ctx context.Context) models.Dashboard
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	camunda *camunda.Client
	builder DashboardBuilder
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Builder      DashboardBuilder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for build-dashboard: %w", err)
	}
	if opts.Builder == nil {
		return nil, fmt.Errorf("build-dashboard requires a dashboard builder")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		camunda: opts.Camunda,
		builder: opts.Builder,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing dashboard build request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	output := h.Execute(ctx)

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) Execute(ctx context.Context) *Output {
	return &Output{Dashboard: h.builder.Build(ctx)}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"sibaDashboard": output.Dashboard,
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	var sendErr error
	if h.camunda != nil {
		_, sendErr = h.camunda.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
			return request.Send(ctx)
		}, "complete "+TaskType)
	} else {
		_, sendErr = request.Send(ctx)
	}
	if sendErr != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  sendErr.Error(),
			"worker": TaskType,
		})
	} else {
		h.logger.Info("Dashboard build completed", map[string]interface{}{
			"jobKey":     job.GetKey(),
			"properties": output.Dashboard.Summary.TotalProperties,
			"overdue":    output.Dashboard.Summary.Overdue,
			"worker":     TaskType,
		})
	}
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers["build-dashboard"]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
	}
	return cfg
}
