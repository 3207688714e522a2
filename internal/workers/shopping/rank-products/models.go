// internal/workers/shopping/rank-products/models.go
package rankproducts

import "shopping-assistant/internal/models"

type Input struct {
	Products   []models.ProductRecord `json:"products"`
	Query      models.Query           `json:"query"`
	MaxResults int                    `json:"maxResults,omitempty"`
}

type Output struct {
	RankedProducts []models.ScoredProduct `json:"rankedProducts"`
	Guards         []models.FilterGuard   `json:"guards"`
	TotalCount     int                    `json:"totalCount"`
}
