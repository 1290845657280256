// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrCodeGatewayTimeout     ErrorCode = "GATEWAY_TIMEOUT"
	ErrCodeGatewayMalformed   ErrorCode = "GATEWAY_MALFORMED_RESPONSE"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeRegistrationValidationFailed ErrorCode = "REGISTRATION_VALIDATION_FAILED"
	ErrCodeReservationCodeNotFound      ErrorCode = "RESERVATION_CODE_NOT_FOUND"
	ErrCodeSubmissionRejected           ErrorCode = "SUBMISSION_REJECTED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeJournalWriteFailed       ErrorCode = "JOURNAL_WRITE_FAILED"
	ErrCodeStatusLogWriteFailed     ErrorCode = "STATUS_LOG_WRITE_FAILED"
	ErrCodeAuditIndexFailed         ErrorCode = "AUDIT_INDEX_FAILED"

	ErrCodeInvalidJobInput ErrorCode = "INVALID_JOB_INPUT"

	ErrCodeExternalServiceError  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout               ErrorCode = "TIMEOUT"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthenticationFailed  ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeBusinessRuleViolation ErrorCode = "BUSINESS_RULE_VIOLATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("BPMNError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// FailureMessage renders the message reported to the workflow engine on a
// failed job. The details carry the actionable reason (which schema check
// failed, which variable is missing), so they must survive into the
// engine-visible message.
func (e *BPMNError) FailureMessage() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewGatewayUnavailableError marks an upstream vendor call that threw or
// could not be reached. Retryable at the workflow level; the siba core
// itself never retries and absorbs these into fallback chains.
func NewGatewayUnavailableError(gateway string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnavailable,
		Message:   fmt.Sprintf("Gateway %s unavailable", gateway),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"gateway": gateway},
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayTimeoutError marks an upstream vendor call that exceeded its
// per-call deadline.
func NewGatewayTimeoutError(gateway string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayTimeout,
		Message:   fmt.Sprintf("Gateway %s timed out", gateway),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"gateway": gateway},
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayMalformedError marks an upstream payload that decoded but did
// not carry the expected shape.
func NewGatewayMalformedError(gateway, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayMalformed,
		Message:   fmt.Sprintf("Gateway %s returned malformed data", gateway),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"gateway": gateway},
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError marks a property-catalog failure. The
// dashboard absorbs this by switching to the fallback fleet.
func NewCatalogUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Property catalog unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistrationValidationError is the one hard-failure class: genuinely
// malformed reservation input.
func NewRegistrationValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistrationValidationFailed,
		Message:   "Reservation failed registration validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReservationCodeNotFoundError marks a reservation for which no
// external reference code could be resolved.
func NewReservationCodeNotFoundError(propertyID int64, guestName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReservationCodeNotFound,
		Message:   "No reservation code could be resolved",
		Details:   fmt.Sprintf("property %d, guest %q", propertyID, guestName),
		Retryable: false,
		Metadata:  map[string]interface{}{"propertyId": propertyID},
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionRejectedError marks a non-success status from the
// municipal send endpoint.
func NewSubmissionRejectedError(status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionRejected,
		Message:   "Registration submission rejected by authority",
		Details:   fmt.Sprintf("upstream status %q", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable infrastructure error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewJournalWriteError marks a failed submission-journal insert. Callers
// swallow it after logging; the journal is best-effort by contract.
func NewJournalWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJournalWriteFailed,
		Message:   "Submission journal write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusLogWriteError marks a failed status-log write to the local-tax
// gateway. Best-effort, always swallowed by callers.
func NewStatusLogWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusLogWriteFailed,
		Message:   "Status log write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditIndexError marks a failed Elasticsearch audit write.
func NewAuditIndexError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditIndexFailed,
		Message:   "Compliance audit index write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidJobInputError marks unparseable or schema-invalid job variables.
func NewInvalidJobInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBusinessRuleError creates a generic non-retryable business error.
func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRuleViolation,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable external service error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalServiceError,
		Message:   fmt.Sprintf("External service %s failed", service),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation against %s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes
// (identical by convention).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeGatewayUnavailable:           "GATEWAY_UNAVAILABLE",
	ErrCodeGatewayTimeout:               "GATEWAY_TIMEOUT",
	ErrCodeGatewayMalformed:             "GATEWAY_MALFORMED_RESPONSE",
	ErrCodeCatalogUnavailable:           "CATALOG_UNAVAILABLE",
	ErrCodeRegistrationValidationFailed: "REGISTRATION_VALIDATION_FAILED",
	ErrCodeReservationCodeNotFound:      "RESERVATION_CODE_NOT_FOUND",
	ErrCodeSubmissionRejected:           "SUBMISSION_REJECTED",
	ErrCodeDatabaseConnectionFailed:     "DATABASE_CONNECTION_FAILED",
	ErrCodeJournalWriteFailed:           "JOURNAL_WRITE_FAILED",
	ErrCodeStatusLogWriteFailed:         "STATUS_LOG_WRITE_FAILED",
	ErrCodeAuditIndexFailed:             "AUDIT_INDEX_FAILED",
	ErrCodeInvalidJobInput:              "INVALID_JOB_INPUT",
	ErrCodeExternalServiceError:         "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                      "TIMEOUT",
	ErrCodeResourceNotFound:             "RESOURCE_NOT_FOUND",
	ErrCodeAuthenticationFailed:         "AUTHENTICATION_FAILED",
	ErrCodeBusinessRuleViolation:        "BUSINESS_RULE_VIOLATION",
}

// GetRetryCount returns the recommended workflow-level retry count.
// Gateway degradation inside the siba core is handled by fallback chains,
// so these only apply when a handler hard-fails a job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeJournalWriteFailed,
		ErrCodeStatusLogWriteFailed,
		ErrCodeAuditIndexFailed,
		ErrCodeExternalServiceError:
		return 3 // Retryable technical errors

	case ErrCodeGatewayUnavailable,
		ErrCodeCatalogUnavailable:
		return 2

	case ErrCodeGatewayTimeout,
		ErrCodeTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GATEWAY") || strings.Contains(codeStr, "CATALOG"):
		return "GATEWAY"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "RESERVATION"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "JOURNAL"):
		return "DATABASE"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "STATUS_LOG"):
		return "AUDIT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
