// internal/models/plan.go
package models

import "fmt"

type PlanAction string

const (
	ActionSearch         PlanAction = "search"
	ActionFilter         PlanAction = "filter"
	ActionAnalyzeReviews PlanAction = "analyze_reviews"
	ActionCompare        PlanAction = "compare"
	ActionResearch       PlanAction = "research"
	ActionRecommend      PlanAction = "recommend"
)

var planActions = map[PlanAction]bool{
	ActionSearch:         true,
	ActionFilter:         true,
	ActionAnalyzeReviews: true,
	ActionCompare:        true,
	ActionResearch:       true,
	ActionRecommend:      true,
}

// ParsePlanAction validates an action name.
func ParsePlanAction(s string) (PlanAction, error) {
	a := PlanAction(s)
	if !planActions[a] {
		return "", fmt.Errorf("unknown plan action %q", s)
	}
	return a, nil
}

type PlanStep struct {
	Action     PlanAction             `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Reasoning  string                 `json:"reasoning,omitempty"`
}

// FallbackPlan is the single-step plan used when plan generation fails.
func FallbackPlan(utterance string) []PlanStep {
	return []PlanStep{{
		Action:     ActionSearch,
		Parameters: map[string]interface{}{"query": utterance},
	}}
}
