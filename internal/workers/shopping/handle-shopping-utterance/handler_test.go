// internal/workers/shopping/handle-shopping-utterance/handler_test.go
package handleshoppingutterance

import (
	"context"
	"testing"
	"time"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
	"shopping-assistant/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type replyHandler struct{}

func (replyHandler) HandleUtterance(_ context.Context, state *models.ConversationState, text string) *models.Response {
	state.AppendMessage(models.RoleUser, text)
	q := models.Query{ProductType: text}
	state.ActiveQuery = &q
	reply := state.AppendMessage(models.RoleAssistant, "looking for "+text)
	return &models.Response{
		SessionID:   state.SessionID,
		Intent:      models.IntentSearch,
		Message:     reply.Content,
		Products:    []models.ScoredProduct{},
		Suggestions: []models.Suggestion{},
		Phase:       state.Phase(),
	}
}

func createTestConfig() *Config {
	return &Config{
		Timeout:       3 * time.Second,
		CreateMissing: true,
	}
}

func newTestManager(t *testing.T) *session.Manager {
	return session.NewManager(session.NewMemoryStore(time.Minute, time.Minute), replyHandler{}, nil, logger.NewTestLogger(t))
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		config         *Config
		seed           string
		input          *Input
		expectError    bool
		errorCode      apperrors.ErrorCode
		validateOutput func(t *testing.T, output *Output, sessions *session.Manager)
	}{
		{
			name:   "existing session",
			config: createTestConfig(),
			seed:   "proc-1",
			input:  &Input{SessionID: "proc-1", Message: "kettle"},
			validateOutput: func(t *testing.T, output *Output, sessions *session.Manager) {
				assert.Equal(t, "proc-1", output.SessionID)
				assert.Equal(t, models.PhaseHasResults, output.Phase)
				assert.Equal(t, models.IntentSearch, output.Intent)
				assert.Equal(t, "looking for kettle", output.Response.Message)
			},
		},
		{
			name:   "missing session id starts a new session",
			config: createTestConfig(),
			input:  &Input{Message: "toaster"},
			validateOutput: func(t *testing.T, output *Output, sessions *session.Manager) {
				require.NotEmpty(t, output.SessionID)
				state, err := sessions.Get(context.Background(), output.SessionID)
				require.NoError(t, err)
				assert.Len(t, state.History, 2)
			},
		},
		{
			name:   "unknown session is created under the given id",
			config: createTestConfig(),
			input:  &Input{SessionID: "proc-2", Message: "blender"},
			validateOutput: func(t *testing.T, output *Output, sessions *session.Manager) {
				assert.Equal(t, "proc-2", output.SessionID)
				state, err := sessions.Get(context.Background(), "proc-2")
				require.NoError(t, err)
				require.Len(t, state.History, 2)
				assert.Equal(t, "blender", state.History[0].Content)
			},
		},
		{
			name:        "unknown session without auto-create",
			config:      &Config{Timeout: 3 * time.Second},
			input:       &Input{SessionID: "proc-3", Message: "blender"},
			expectError: true,
			errorCode:   apperrors.ErrCodeSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := newTestManager(t)
			if tt.seed != "" {
				_, err := sessions.Create(context.Background(), tt.seed)
				require.NoError(t, err)
			}
			h := NewHandler(tt.config, sessions, logger.NewTestLogger(t))

			output, err := h.Execute(context.Background(), tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, output)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output, sessions)
			}
		})
	}
}

func TestHandler_Execute_ContinuesConversation(t *testing.T) {
	sessions := newTestManager(t)
	h := NewHandler(createTestConfig(), sessions, logger.NewNoOpLogger())
	ctx := context.Background()

	first, err := h.Execute(ctx, &Input{Message: "kettle"})
	require.NoError(t, err)
	_, err = h.Execute(ctx, &Input{SessionID: first.SessionID, Message: "cheaper"})
	require.NoError(t, err)

	state, err := sessions.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, state.History, 4)
}
