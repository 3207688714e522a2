// internal/models/response.go
package models

type Intent string

const (
	IntentSearch   Intent = "search"
	IntentRefine   Intent = "refine"
	IntentCompare  Intent = "compare"
	IntentReviews  Intent = "reviews"
	IntentResearch Intent = "research"
	IntentFocus    Intent = "focus"
)

type SuggestionAction string

const (
	SuggestCompare     SuggestionAction = "compare"
	SuggestReviews     SuggestionAction = "reviews"
	SuggestSpecs       SuggestionAction = "specs"
	SuggestRefine      SuggestionAction = "refine"
	SuggestRecommend   SuggestionAction = "recommend"
	SuggestDetails     SuggestionAction = "details"
	SuggestPrime       SuggestionAction = "prime"
	SuggestCheaper     SuggestionAction = "cheaper"
	SuggestPriceRange  SuggestionAction = "price_range"
	SuggestBetterRated SuggestionAction = "better_rated"
)

// Suggestion is a next action offered to the user.
type Suggestion struct {
	Action SuggestionAction `json:"action"`
	Text   string           `json:"text"`
}

// AppendSuggestion adds s unless one with the same action is already present.
func AppendSuggestion(list []Suggestion, s Suggestion) []Suggestion {
	for _, existing := range list {
		if existing.Action == s.Action {
			return list
		}
	}
	return append(list, s)
}

// FilterGuard records a post-filter criterion that was reverted or skipped.
type FilterGuard struct {
	Criterion string `json:"criterion"`
	Action    string `json:"action"`
}

// Response is what one utterance produces for the caller.
type Response struct {
	SessionID   string          `json:"sessionId"`
	Intent      Intent          `json:"intent"`
	Message     string          `json:"message"`
	Query       *Query          `json:"query,omitempty"`
	Products    []ScoredProduct `json:"products"`
	Research    *ResearchRecord `json:"research,omitempty"`
	Comparison  *Comparison     `json:"comparison,omitempty"`
	Suggestions []Suggestion    `json:"suggestions"`
	Guards      []FilterGuard   `json:"guards,omitempty"`
	NoResults   bool            `json:"noResults"`
	Phase       Phase           `json:"phase"`
}
