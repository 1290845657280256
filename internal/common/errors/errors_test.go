package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardErrorRendersDetails(t *testing.T) {
	err := NewInvalidJobInputError("either reservationData or reservations is required")

	assert.Contains(t, err.Error(), "INVALID_JOB_INPUT")
	assert.Contains(t, err.Error(), "Invalid job input")
	assert.Contains(t, err.Error(), "either reservationData or reservations is required")
}

func TestStandardErrorWithoutDetails(t *testing.T) {
	err := &StandardError{Code: ErrCodeTimeout, Message: "Operation timed out"}

	assert.Equal(t, "StandardError[TIMEOUT]: Operation timed out", err.Error())
}

func TestBPMNFailureMessageCarriesDetails(t *testing.T) {
	stdErr := NewInvalidJobInputError("propertyId is required")
	bpmnErr := ConvertToBPMNError(stdErr)

	msg := bpmnErr.FailureMessage()
	assert.Contains(t, msg, "[INVALID_JOB_INPUT]")
	assert.Contains(t, msg, "propertyId is required")
}

func TestConvertToBPMNErrorRetries(t *testing.T) {
	retryable := ConvertToBPMNError(NewGatewayTimeoutError("channel_manager", assert.AnError))
	assert.Equal(t, 1, retryable.Retries)

	terminal := ConvertToBPMNError(NewInvalidJobInputError("bad payload"))
	assert.Equal(t, 0, terminal.Retries)
	assert.False(t, terminal.Retryable)
}
