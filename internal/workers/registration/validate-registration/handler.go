// Package validateregistration serves the siba.registration.validate
// task: check a raw reservation payload (or a batch) for submission
// readiness. A negative validation is a normal job result, not a job
// failure; only malformed job input fails the job.
package validateregistration

import (
	"context"
	"fmt"
	"time"

	"siba-workers/internal/common/camunda"
	"siba-workers/internal/common/config"
	"siba-workers/internal/common/errors"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/common/validation"
	"siba-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "siba.registration.validate"

// RegistrationValidator is implemented by the submission pipeline.
type RegistrationValidator interface {
	BulkValidate(ctx context.Context, propertyID int64, batch []models.RawReservation) []models.ValidationResult
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	errorHandler *errors.ErrorHandler
	validator    RegistrationValidator
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Validator    RegistrationValidator
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for validate-registration: %w", err)
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("validate-registration requires a validator")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		validator:    opts.Validator,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing registration validation request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.failJob(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	if len(input.Reservations) > 0 {
		return &Output{Results: h.validator.BulkValidate(ctx, input.PropertyID, input.Reservations)}
	}

	results := h.validator.BulkValidate(ctx, input.PropertyID, []models.RawReservation{input.Reservation})
	return &Output{Result: &results[0]}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	schema := GetInputSchema()
	validationResult := validation.ValidateInput(variables, schema)
	if !validationResult.Valid {
		return nil, errors.NewInvalidJobInputError(
			fmt.Sprintf("validation errors: %v", validationResult.GetErrorMessages()))
	}

	input := &Input{}
	if id, ok := variables["propertyId"].(float64); ok {
		input.PropertyID = int64(id)
	}
	if raw, ok := variables["reservationData"].(map[string]interface{}); ok {
		input.Reservation = models.RawReservation(raw)
	}
	if batch, ok := variables["reservations"].([]interface{}); ok {
		for _, item := range batch {
			if raw, ok := item.(map[string]interface{}); ok {
				input.Reservations = append(input.Reservations, models.RawReservation(raw))
			}
		}
	}

	if input.Reservation == nil && len(input.Reservations) == 0 {
		return nil, errors.NewInvalidJobInputError("either reservationData or reservations is required")
	}

	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{}
	if output.Result != nil {
		variables["validationResult"] = output.Result
	}
	if output.Results != nil {
		variables["validationResults"] = output.Results
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
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func extractErrorCode(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers["validate-registration"]; exists {
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
