package camunda

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"siba-workers/internal/common/errors"
)

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(fmt.Errorf("rpc error: connection refused")))
	assert.True(t, isRetryableZeebeError(fmt.Errorf("context deadline exceeded")))
	assert.True(t, isRetryableZeebeError(fmt.Errorf("UNAVAILABLE: gateway unreachable")))
	assert.False(t, isRetryableZeebeError(fmt.Errorf("element not found")))
	assert.False(t, isRetryableZeebeError(fmt.Errorf("invalid argument")))
}

func TestMapZeebeError(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: DefaultRetryConfig}}

	err := c.mapZeebeError(fmt.Errorf("connection refused"), "complete job", 2)
	stdErr, ok := err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeExternalServiceError, stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 2 attempts")

	err = c.mapZeebeError(fmt.Errorf("deadline exceeded"), "fail job", 0)
	stdErr, ok = err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)

	err = c.mapZeebeError(fmt.Errorf("process not found"), "create instance", 0)
	stdErr, ok = err.(*errors.StandardError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCodeResourceNotFound, stdErr.Code)
}
