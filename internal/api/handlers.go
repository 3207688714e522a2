// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 16

type CreateSessionRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128,printascii,excludes=/"`
}

type MessageRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SessionView is the state returned to HTTP callers.
type SessionView struct {
	SessionID      string                 `json:"sessionId"`
	Phase          models.Phase           `json:"phase"`
	History        []models.Message       `json:"history"`
	ActiveQuery    *models.Query          `json:"activeQuery,omitempty"`
	ActiveProducts []models.ScoredProduct `json:"activeProducts"`
	Plan           []models.PlanStep      `json:"plan"`
	PlanCursor     int                    `json:"planCursor"`
	Researched     []string               `json:"researched"`
	Preferences    models.Preferences     `json:"preferences"`
}

func viewOf(state *models.ConversationState) SessionView {
	researched := make([]string, 0, len(state.ResearchCache))
	for key := range state.ResearchCache {
		researched = append(researched, key)
	}
	return SessionView{
		SessionID:      state.SessionID,
		Phase:          state.Phase(),
		History:        state.History,
		ActiveQuery:    state.ActiveQuery,
		ActiveProducts: state.ActiveProducts,
		Plan:           state.Plan,
		PlanCursor:     state.PlanCursor,
		Researched:     researched,
		Preferences:    state.Preferences,
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &req) {
			return
		}
	}

	state, err := s.sessions.Create(r.Context(), req.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(state))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.sessions.Handle(r.Context(), chi.URLParam(r, "sessionId"), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Reset(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, apperrors.NewInvalidInputError("malformed JSON body: "+err.Error()))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, apperrors.NewInvalidInputError(validationDetails(err)))
		return false
	}
	return true
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.Normalize(err)

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case apperrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeSessionStoreFailed:
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"code":  stdErr.Code,
			"error": stdErr.Error(),
		})
	}

	writeJSON(w, status, ErrorResponse{
		Error:   string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	})
}
