package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Constructors & Conversion
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{"search failure retries", NewSearchCollaboratorError("search", stderrors.New("503")), "SEARCH_FAILED", 3},
		{"inference timeout retries twice", NewInferenceTimeoutError("createPlan"), "INFERENCE_TIMEOUT", 2},
		{"invalid input never retries", NewInvalidInputError("utterance is required"), "INVALID_INPUT", 0},
		{"payload invalid is not retryable", NewInferencePayloadInvalidError("compare", "missing summary"), "INFERENCE_PAYLOAD_INVALID", 0},
		{"unknown code falls back to itself", NewBusinessRuleError("nope", ""), "BUSINESS_RULE_VIOLATION", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmn.Code)
			assert.Equal(t, tt.expectedRetries, bpmn.Retries)
			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
		})
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	base := NewSessionNotFoundError("abc")
	wrapped := fmt.Errorf("load: %w", base)

	assert.Equal(t, ErrCodeSessionNotFound, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeSessionNotFound))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
}

func TestNormalize(t *testing.T) {
	std := Normalize(stderrors.New("raw"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), std.Code)
	assert.Equal(t, "raw", std.Details)

	orig := NewNoResultsError("laptop")
	assert.Same(t, orig, Normalize(fmt.Errorf("ctx: %w", orig)))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchCollaboratorFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexNotFound))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeInferencePayloadInvalid))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionStoreFailed))
	assert.Equal(t, "DEGRADATION", GetErrorCategory(ErrCodeFilterEliminationGuard))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING"))
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(1), remainingRetries(1, 3))
	assert.Equal(t, int32(3), remainingRetries(5, 3))
	assert.Equal(t, int32(2), remainingRetries(0, 2))
}

func TestStandardError_Message(t *testing.T) {
	err := NewFilterEliminationGuardError("material", 4)
	assert.Equal(t, "StandardError[FILTER_ELIMINATION_GUARD]: Filter would eliminate every product", err.Error())
	assert.Contains(t, err.Details, "material")
	assert.False(t, IsRetryableErrorCode(err.Code))
}
