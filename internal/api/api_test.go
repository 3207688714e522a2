package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
	"shopping-assistant/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyHandler struct{}

func (replyHandler) HandleUtterance(_ context.Context, state *models.ConversationState, text string) *models.Response {
	state.AppendMessage(models.RoleUser, text)
	q := models.Query{ProductType: text}
	state.ActiveQuery = &q
	state.AppendMessage(models.RoleAssistant, "looking for "+text)
	return &models.Response{
		SessionID:   state.SessionID,
		Intent:      models.IntentSearch,
		Message:     "looking for " + text,
		Products:    []models.ScoredProduct{},
		Suggestions: []models.Suggestion{},
		Phase:       state.Phase(),
	}
}

func newTestRouter(checks ...ReadinessCheck) http.Handler {
	log := logger.NewNoOpLogger()
	manager := session.NewManager(session.NewMemoryStore(time.Minute, time.Minute), replyHandler{}, nil, log)
	return NewServer(manager, log, checks...).Router(5 * time.Second)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Sessions
// ==========================

func TestSessionLifecycle(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", `{"sessionId":"shop-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "shop-1", created.SessionID)
	assert.Equal(t, models.PhaseIdle, created.Phase)

	rec = do(t, h, http.MethodPost, "/api/v1/sessions/shop-1/messages", `{"message":"kettle"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "looking for kettle", resp.Message)
	assert.Equal(t, models.PhaseHasResults, resp.Phase)

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/shop-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.History, 2)
	assert.Equal(t, models.PhaseHasResults, view.Phase)

	rec = do(t, h, http.MethodPost, "/api/v1/sessions/shop-1/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.History)

	rec = do(t, h, http.MethodDelete, "/api/v1/sessions/shop-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/shop-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSession_GeneratesID(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodPost, "/api/v1/sessions", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var view SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.NotEmpty(t, view.SessionID)
}

func TestRequestValidation(t *testing.T) {
	h := newTestRouter()
	do(t, h, http.MethodPost, "/api/v1/sessions", `{"sessionId":"s"}`)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/sessions/s/messages", body: `{"message":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "unknown field", method: http.MethodPost, path: "/api/v1/sessions/s/messages", body: `{"text":"hi"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "message too long", method: http.MethodPost, path: "/api/v1/sessions/s/messages", body: `{"message":"` + strings.Repeat("a", 2001) + `"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "session id with slash", method: http.MethodPost, path: "/api/v1/sessions", body: `{"sessionId":"a/b"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "unknown session", method: http.MethodPost, path: "/api/v1/sessions/nope/messages", body: `{"message":"hi"}`, wantStatus: http.StatusNotFound, wantCode: "SESSION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, tt.wantCode, errResp.Error)
		})
	}
}

func TestConcurrentMessagesAndReads(t *testing.T) {
	h := newTestRouter()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/sessions", `{"sessionId":"s"}`).Code)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := do(t, h, http.MethodPost, "/api/v1/sessions/s/messages", `{"message":"kettle"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
		go func() {
			defer wg.Done()
			rec := do(t, h, http.MethodGet, "/api/v1/sessions/s", "")
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/s", "")
	var view SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.History, 40)
}

// ==========================
// Health & Metrics
// ==========================

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopping_active_sessions")
}

func TestReadinessFailure(t *testing.T) {
	h := newTestRouter(ReadinessCheck{Name: "redis", Check: func(context.Context) error {
		return errors.New("connection refused")
	}})

	rec := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
