package submitregistration

import (
	"context"
	"encoding/json"
	"testing"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	outcome     models.SubmissionOutcome
	submitCalls int
	bulkCalls   int
	lastID      int64
	lastLen     int
}

func (s *stubPipeline) Submit(_ context.Context, propertyID int64, _ models.RawReservation) models.SubmissionOutcome {
	s.submitCalls++
	s.lastID = propertyID
	return s.outcome
}

func (s *stubPipeline) BulkSubmit(_ context.Context, propertyID int64, batch []models.RawReservation) []models.SubmissionOutcome {
	s.bulkCalls++
	s.lastID = propertyID
	s.lastLen = len(batch)
	outcomes := make([]models.SubmissionOutcome, len(batch))
	for i := range outcomes {
		outcomes[i] = s.outcome
	}
	return outcomes
}

func newTestHandler(t *testing.T, pipeline SubmissionPipeline) *Handler {
	t.Helper()
	handler, err := NewHandler(HandlerOptions{
		Pipeline: pipeline,
		Logger:   logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return handler
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                key,
			Type:               TaskType,
			ProcessInstanceKey: key + 1000,
			Retries:            3,
			Variables:          string(variablesJSON),
		},
	}
}

func TestNewHandler_RequiresPipeline(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewTestLogger(t)})
	assert.Error(t, err)
}

func TestParseInput_SingleReservation(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	job := createMockJob(1, map[string]interface{}{
		"propertyId": float64(1001),
		"reservationData": map[string]interface{}{
			"guestName": "Maria Garcia",
			"checkIn":   "2026-07-01",
			"checkOut":  "2026-07-05",
			"adults":    float64(2),
		},
	})

	input, err := handler.parseInput(job)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), input.PropertyID)
	assert.Equal(t, "Maria Garcia", input.Reservation["guestName"])
}

func TestParseInput_Batch(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	job := createMockJob(2, map[string]interface{}{
		"propertyId": float64(1001),
		"reservations": []interface{}{
			map[string]interface{}{"guestName": "Maria Garcia"},
			map[string]interface{}{"guestName": "Joao Santos"},
			map[string]interface{}{"guestName": "Anna Keller"},
		},
	})

	input, err := handler.parseInput(job)
	require.NoError(t, err)
	assert.Len(t, input.Reservations, 3)
}

func TestNewHandler_WiresErrorReporting(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})
	assert.NotNil(t, handler.errorHandler)
}

func TestParseInput_RejectsEmptyPayload(t *testing.T) {
	handler := newTestHandler(t, &stubPipeline{})

	job := createMockJob(3, map[string]interface{}{
		"propertyId": float64(1001),
	})

	_, err := handler.parseInput(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reservationData or reservations")
}

func TestExecute_SingleOutcome(t *testing.T) {
	pipeline := &stubPipeline{outcome: models.SubmissionOutcome{
		Success:      true,
		SubmissionID: "SIBA-2026-000123",
	}}
	handler := newTestHandler(t, pipeline)

	output := handler.Execute(context.Background(), &Input{
		PropertyID:  1001,
		Reservation: models.RawReservation{"guestName": "Maria Garcia"},
	})

	require.NotNil(t, output.Outcome)
	assert.True(t, output.Outcome.Success)
	assert.Equal(t, "SIBA-2026-000123", output.Outcome.SubmissionID)
	assert.Nil(t, output.Outcomes)
	assert.Equal(t, 1, pipeline.submitCalls)
	assert.Equal(t, 0, pipeline.bulkCalls)
}

func TestExecute_BatchOutcomes(t *testing.T) {
	pipeline := &stubPipeline{outcome: models.SubmissionOutcome{
		Success:      false,
		SubmissionID: models.LocalSubmissionPrefix + "1784124000000",
		Warning:      "authoritative submission failed; submission recorded locally",
	}}
	handler := newTestHandler(t, pipeline)

	output := handler.Execute(context.Background(), &Input{
		PropertyID: 1001,
		Reservations: []models.RawReservation{
			{"guestName": "Maria Garcia"},
			{"guestName": "Joao Santos"},
		},
	})

	assert.Nil(t, output.Outcome)
	require.Len(t, output.Outcomes, 2)
	assert.Equal(t, 1, pipeline.bulkCalls)
	assert.Equal(t, 2, pipeline.lastLen)
	assert.Contains(t, output.Outcomes[0].SubmissionID, models.LocalSubmissionPrefix)
}

func TestGetInputSchema(t *testing.T) {
	schema := GetInputSchema()

	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Required, "propertyId")
	assert.Contains(t, schema.Properties, "reservationData")
	assert.Contains(t, schema.Properties, "reservations")
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
