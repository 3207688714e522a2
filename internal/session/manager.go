// internal/session/manager.go
package session

import (
	"context"
	"sync"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

// Handler resolves one utterance against a session state.
type Handler interface {
	HandleUtterance(ctx context.Context, state *models.ConversationState, text string) *models.Response
}

// Manager loads, runs and saves sessions. Utterances for the same session are
// processed one at a time; different sessions proceed independently.
type Manager struct {
	store      Store
	handler    Handler
	transcript Transcript
	logger     logger.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager wires a store and a handler. transcript may be nil.
func NewManager(store Store, handler Handler, transcript Transcript, log logger.Logger) *Manager {
	return &Manager{
		store:      store,
		handler:    handler,
		transcript: transcript,
		logger:     log.WithFields(map[string]interface{}{"component": "session-manager"}),
		locks:      make(map[string]*sessionLock),
	}
}

// lock serializes work on one session and returns the matching unlock.
func (m *Manager) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

// Create starts an IDLE session. An empty id gets a generated one. Create, Get and Reset
// return snapshots, so callers never observe a state another request is changing.
func (m *Manager) Create(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	state := models.NewConversationState(sessionID)

	unlock := m.lock(state.SessionID)
	defer unlock()

	if err := m.store.Save(ctx, state); err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Inc()
	m.logger.Info("session created", map[string]interface{}{"sessionId": state.SessionID})
	return state.Snapshot(), nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.Snapshot(), nil
}

// Handle runs one utterance and persists the updated state. The transcript is
// best-effort: a failed write is logged and the response still returned.
func (m *Manager) Handle(ctx context.Context, sessionID, text string) (*models.Response, error) {
	if sessionID == "" {
		return nil, apperrors.NewInvalidInputError("sessionId is required")
	}

	unlock := m.lock(sessionID)
	defer unlock()

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := m.handler.HandleUtterance(ctx, state, text)

	if err := m.store.Save(ctx, state); err != nil {
		m.logger.Error("failed to save session", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return nil, err
	}

	if m.transcript != nil && len(state.History) >= 2 {
		turn := state.History[len(state.History)-2:]
		if err := m.transcript.Append(ctx, sessionID, resp.Intent, turn...); err != nil {
			m.logger.Warn("failed to record transcript", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	return resp, nil
}

// Reset replaces a session with a fresh IDLE state under the same id.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	if _, err := m.store.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	state := models.NewConversationState(sessionID)
	if err := m.store.Save(ctx, state); err != nil {
		return nil, err
	}
	m.logger.Info("session reset", map[string]interface{}{"sessionId": sessionID})
	return state.Snapshot(), nil
}

// Delete ends a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	unlock := m.lock(sessionID)
	defer unlock()

	if _, err := m.store.Load(ctx, sessionID); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	m.logger.Info("session deleted", map[string]interface{}{"sessionId": sessionID})
	return nil
}
