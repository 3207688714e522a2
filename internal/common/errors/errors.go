// Package errors provides standardized error handling for the assistant and its BPMN workers.
package errors

import (
	stderrors "errors"
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
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeQueryParseDegraded     ErrorCode = "QUERY_PARSE_DEGRADED"
	ErrCodeFilterEliminationGuard ErrorCode = "FILTER_ELIMINATION_GUARD"
	ErrCodeNoResults              ErrorCode = "NO_RESULTS"

	ErrCodeSearchCollaboratorFailed ErrorCode = "SEARCH_COLLABORATOR_FAILED"
	ErrCodeSearchTimeout            ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeInferenceFailed         ErrorCode = "INFERENCE_COLLABORATOR_FAILED"
	ErrCodeInferenceTimeout        ErrorCode = "INFERENCE_TIMEOUT"
	ErrCodeInferencePayloadInvalid ErrorCode = "INFERENCE_PAYLOAD_INVALID"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
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
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

// NewQueryParseDegradedError marks a parse that fell back to the minimal query.
func NewQueryParseDegradedError(utterance string, cause interface{}) *StandardError {
	return newError(ErrCodeQueryParseDegraded, "Query parsing degraded to minimal query",
		fmt.Sprintf("utterance: %q, cause: %v", utterance, cause), false)
}

// NewFilterEliminationGuardError describes a post-filter that was reverted.
func NewFilterEliminationGuardError(criterion string, inputCount int) *StandardError {
	return newError(ErrCodeFilterEliminationGuard, "Filter would eliminate every product",
		fmt.Sprintf("criterion: %s, inputCount: %d", criterion, inputCount), false)
}

// NewNoResultsError describes a legitimate empty search.
func NewNoResultsError(term string) *StandardError {
	return newError(ErrCodeNoResults, "No products matched the request", fmt.Sprintf("term: %q", term), false)
}

// NewSearchCollaboratorError wraps a search/extraction failure.
func NewSearchCollaboratorError(operation string, err error) *StandardError {
	return newError(ErrCodeSearchCollaboratorFailed, "Search collaborator error",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true).WithMetadata("operation", operation)
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(operation string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search collaborator timeout", fmt.Sprintf("operation: %s", operation), true)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewInferenceFailedError wraps an inference collaborator failure.
func NewInferenceFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeInferenceFailed, "Inference collaborator error",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true).WithMetadata("operation", operation)
}

// NewInferenceTimeoutError creates a retryable inference timeout error.
func NewInferenceTimeoutError(operation string) *StandardError {
	return newError(ErrCodeInferenceTimeout, "Inference collaborator timeout",
		fmt.Sprintf("operation: %s", operation), true).WithMetadata("operation", operation)
}

// NewInferencePayloadInvalidError marks a response that failed schema validation.
func NewInferencePayloadInvalidError(operation, details string) *StandardError {
	return newError(ErrCodeInferencePayloadInvalid, "Inference payload failed validation",
		fmt.Sprintf("operation: %s, %s", operation, details), false).WithMetadata("operation", operation)
}

// NewSessionNotFoundError creates a non-retryable missing session error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

// NewSessionStoreFailedError creates a retryable session persistence error.
func NewSessionStoreFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeQueryParseDegraded:       "QUERY_PARSE_DEGRADED",
	ErrCodeFilterEliminationGuard:   "FILTER_ELIMINATION_GUARD",
	ErrCodeNoResults:                "NO_RESULTS",
	ErrCodeSearchCollaboratorFailed: "SEARCH_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeInferenceFailed:          "INFERENCE_FAILED",
	ErrCodeInferenceTimeout:         "INFERENCE_TIMEOUT",
	ErrCodeInferencePayloadInvalid:  "INFERENCE_PAYLOAD_INVALID",
	ErrCodeSessionNotFound:          "SESSION_NOT_FOUND",
	ErrCodeSessionStoreFailed:       "SESSION_STORE_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchCollaboratorFailed,
		ErrCodeInferenceFailed,
		ErrCodeSessionStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeInferenceTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
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
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "INFERENCE"):
		return "AI"
	case strings.Contains(codeStr, "PARSE") || strings.Contains(codeStr, "FILTER") || strings.Contains(codeStr, "NO_RESULTS"):
		return "DEGRADATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
