// internal/models/research.go
package models

const SentimentUnknown = "unknown"

// ReviewSentiment is the light-weight result of review analysis.
type ReviewSentiment struct {
	Sentiment string   `json:"sentiment"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// UnknownSentiment is the degraded review analysis value.
func UnknownSentiment() ReviewSentiment {
	return ReviewSentiment{Sentiment: SentimentUnknown, Strengths: []string{}, Concerns: []string{}}
}

type ReviewAnalysis struct {
	Sentiment             string   `json:"sentiment"`
	Strengths             []string `json:"strengths"`
	Concerns              []string `json:"concerns"`
	Longevity             string   `json:"longevity"`
	CommonThemes          []string `json:"commonThemes"`
	VerifiedPurchaseCount int      `json:"verifiedPurchaseCount"`
}

type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// ResearchRecord is the result of deep research on a single product.
type ResearchRecord struct {
	Specifications map[string]string `json:"specifications"`
	Description    string            `json:"description"`
	ReviewAnalysis ReviewAnalysis    `json:"reviewAnalysis"`
	ProsCons       ProsCons          `json:"prosCons"`
	ReviewExcerpts []string          `json:"reviewExcerpts,omitempty"`
	Degraded       bool              `json:"degraded,omitempty"`
}

// EmptyResearch is the degraded research value.
func EmptyResearch() ResearchRecord {
	return ResearchRecord{
		Specifications: map[string]string{},
		ReviewAnalysis: ReviewAnalysis{
			Sentiment:    SentimentUnknown,
			Longevity:    SentimentUnknown,
			Strengths:    []string{},
			Concerns:     []string{},
			CommonThemes: []string{},
		},
		ProsCons: ProsCons{Pros: []string{}, Cons: []string{}},
		Degraded: true,
	}
}

// MergeSentiment folds a review analysis result into the record.
func (r *ResearchRecord) MergeSentiment(s ReviewSentiment) {
	r.ReviewAnalysis.Sentiment = s.Sentiment
	if len(r.ReviewAnalysis.Strengths) == 0 {
		r.ReviewAnalysis.Strengths = s.Strengths
	}
	if len(r.ReviewAnalysis.Concerns) == 0 {
		r.ReviewAnalysis.Concerns = s.Concerns
	}
}

// Comparison is the outcome of comparing two or three products.
type Comparison struct {
	BestOverall string `json:"bestOverall,omitempty"`
	BestValue   string `json:"bestValue,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ComparisonError is the degraded comparison value.
func ComparisonError(msg string) Comparison {
	return Comparison{Error: msg}
}
