// internal/models/product.go
package models

// ProductRecord is one listing as returned by the search collaborator.
type ProductRecord struct {
	Title         string  `json:"title"`
	PriceDisplay  string  `json:"priceDisplay"`
	PriceValue    float64 `json:"priceValue"`
	RatingDisplay string  `json:"ratingDisplay"`
	RatingValue   float64 `json:"ratingValue"`
	ReviewCount   int     `json:"reviewCount"`
	HasPrime      bool    `json:"hasPrime"`
	Link          string  `json:"link"`
	ImageURL      string  `json:"imageUrl,omitempty"`
}

// Key returns the identity used for caching research about this product.
func (p ProductRecord) Key() string {
	if p.Link != "" {
		return p.Link
	}
	return "title:" + p.Title
}

// ScoreBreakdown holds the weighted contribution of each ranking component.
type ScoreBreakdown struct {
	Rating    float64 `json:"rating"`
	Reviews   float64 `json:"reviews"`
	Shipping  float64 `json:"shipping"`
	Price     float64 `json:"price"`
	Relevance float64 `json:"relevance"`
}

// ScoredProduct is a ranked product with its explanation.
type ScoredProduct struct {
	ProductRecord
	Score                float64         `json:"score"`
	RecommendationReason string          `json:"recommendationReason"`
	Breakdown            ScoreBreakdown  `json:"breakdown"`
	Research             *ResearchRecord `json:"research,omitempty"`
}
