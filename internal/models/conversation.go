// internal/models/conversation.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseHasResults Phase = "HAS_RESULTS"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Preferences are learned from products the user focuses on.
type Preferences struct {
	PriceRanges map[string]float64 `json:"priceRanges"`
	Features    []string           `json:"features"`
	Brands      []string           `json:"brands"`
}

// ConversationState is everything one session owns. It is never shared across sessions.
type ConversationState struct {
	SessionID      string                    `json:"sessionId"`
	History        []Message                 `json:"history"`
	ActiveQuery    *Query                    `json:"activeQuery,omitempty"`
	ActiveProducts []ScoredProduct           `json:"activeProducts"`
	Plan           []PlanStep                `json:"plan"`
	PlanCursor     int                       `json:"planCursor"`
	ResearchCache  map[string]ResearchRecord `json:"researchCache"`
	Preferences    Preferences               `json:"preferences"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

// NewConversationState creates an empty IDLE session. An empty id gets a generated one.
func NewConversationState(sessionID string) *ConversationState {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	now := time.Now().UTC()
	return &ConversationState{
		SessionID:      sessionID,
		History:        []Message{},
		ActiveProducts: []ScoredProduct{},
		Plan:           []PlanStep{},
		ResearchCache:  map[string]ResearchRecord{},
		Preferences:    Preferences{PriceRanges: map[string]float64{}, Features: []string{}, Brands: []string{}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Phase reports IDLE until a query has been searched.
func (s *ConversationState) Phase() Phase {
	if s.ActiveQuery == nil {
		return PhaseIdle
	}
	return PhaseHasResults
}

// AppendMessage is the only way history grows; entries are never removed.
func (s *ConversationState) AppendMessage(role Role, content string) Message {
	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.History = append(s.History, msg)
	s.UpdatedAt = msg.CreatedAt
	return msg
}

// Snapshot deep-copies the state so it can be read after the session lock is released.
// Research records are shared; they are never modified once cached.
func (s *ConversationState) Snapshot() *ConversationState {
	out := *s
	out.History = append([]Message{}, s.History...)
	if s.ActiveQuery != nil {
		q := s.ActiveQuery.Clone()
		out.ActiveQuery = &q
	}
	out.ActiveProducts = append([]ScoredProduct{}, s.ActiveProducts...)
	out.Plan = append([]PlanStep{}, s.Plan...)
	out.ResearchCache = make(map[string]ResearchRecord, len(s.ResearchCache))
	for k, v := range s.ResearchCache {
		out.ResearchCache[k] = v
	}
	out.Preferences = Preferences{
		PriceRanges: make(map[string]float64, len(s.Preferences.PriceRanges)),
		Features:    append([]string{}, s.Preferences.Features...),
		Brands:      append([]string{}, s.Preferences.Brands...),
	}
	for k, v := range s.Preferences.PriceRanges {
		out.Preferences.PriceRanges[k] = v
	}
	return &out
}

// EnsureMaps repairs nil maps after decoding a stored state.
func (s *ConversationState) EnsureMaps() {
	if s.ResearchCache == nil {
		s.ResearchCache = map[string]ResearchRecord{}
	}
	if s.Preferences.PriceRanges == nil {
		s.Preferences.PriceRanges = map[string]float64{}
	}
}

// Product returns the 1-based indexed active product.
func (s *ConversationState) Product(index int) (ScoredProduct, bool) {
	if index < 1 || index > len(s.ActiveProducts) {
		return ScoredProduct{}, false
	}
	return s.ActiveProducts[index-1], true
}

// LearnFrom records preferences from a product the user singled out. The brand comes from
// research already cached for the product, when there is any.
func (s *ConversationState) LearnFrom(p ScoredProduct) {
	s.EnsureMaps()
	if s.ActiveQuery != nil && s.ActiveQuery.ProductType != "" && p.PriceValue > 0 {
		s.Preferences.PriceRanges[s.ActiveQuery.ProductType] = p.PriceValue
	}
	if s.ActiveQuery != nil {
		for _, kw := range s.ActiveQuery.Keywords {
			if !containsFold(s.Preferences.Features, kw) {
				s.Preferences.Features = append(s.Preferences.Features, kw)
			}
		}
	}

	rec := p.Research
	if cached, ok := s.ResearchCache[p.Key()]; ok {
		rec = &cached
	}
	if rec == nil {
		return
	}
	for key, value := range rec.Specifications {
		brand := strings.TrimSpace(value)
		if strings.EqualFold(key, "brand") && brand != "" && !containsFold(s.Preferences.Brands, brand) {
			s.Preferences.Brands = append(s.Preferences.Brands, brand)
		}
	}
}
