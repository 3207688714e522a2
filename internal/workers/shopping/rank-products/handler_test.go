// internal/workers/shopping/rank-products/handler_test.go
package rankproducts

import (
	"context"
	"testing"
	"time"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
	"shopping-assistant/internal/shopping/filter"
	"shopping-assistant/internal/shopping/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		MaxItems: 10,
		Timeout:  3 * time.Second,
	}
}

func newTestHandler(t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(createTestConfig(), ranking.New(log), log)
}

func createTestProducts() []models.ProductRecord {
	return []models.ProductRecord{
		{Title: "Acme Wireless Headphones", PriceValue: 199.99, RatingValue: 4.6, ReviewCount: 2300, HasPrime: true, Link: "https://shop.test/p/1"},
		{Title: "Budget Wireless Headphones", PriceValue: 49.99, RatingValue: 4.1, ReviewCount: 800, Link: "https://shop.test/p/2"},
		{Title: "Studio Wireless Headphones", PriceValue: 349, RatingValue: 4.8, ReviewCount: 150, HasPrime: true, Link: "https://shop.test/p/3"},
		{Title: "Sport Wireless Earbuds", PriceValue: 89, RatingValue: 3.9, ReviewCount: 40, Link: "https://shop.test/p/4"},
	}
}

func assertDescending(t *testing.T, products []models.ScoredProduct) {
	t.Helper()
	for i := 1; i < len(products); i++ {
		assert.GreaterOrEqual(t, products[i-1].Score, products[i].Score)
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name           string
		input          *Input
		expectError    bool
		errorCode      apperrors.ErrorCode
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name: "ranks every product",
			input: &Input{
				Products: createTestProducts(),
				Query:    models.Query{ProductType: "wireless headphones", PrimeShipping: true},
			},
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.RankedProducts, 4)
				assertDescending(t, output.RankedProducts)
				assert.Equal(t, 4, output.TotalCount)
				assert.Empty(t, output.Guards)
				for _, p := range output.RankedProducts {
					assert.NotEmpty(t, p.RecommendationReason)
				}
			},
		},
		{
			name: "excluded terms are removed before ranking",
			input: &Input{
				Products: createTestProducts(),
				Query:    models.Query{ProductType: "wireless headphones", ExcludedTerms: []string{"earbuds"}},
			},
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.RankedProducts, 3)
				for _, p := range output.RankedProducts {
					assert.NotContains(t, p.Title, "Earbuds")
				}
			},
		},
		{
			name: "max results truncates after ranking",
			input: &Input{
				Products:   createTestProducts(),
				Query:      models.Query{ProductType: "wireless headphones"},
				MaxResults: 2,
			},
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.RankedProducts, 2)
				assert.Equal(t, 4, output.TotalCount)
				assertDescending(t, output.RankedProducts)
			},
		},
		{
			name: "unmatched origin is skipped rather than emptying the list",
			input: &Input{
				Products: createTestProducts(),
				Query:    models.Query{ProductType: "wireless headphones", OriginCountry: "Iceland"},
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Len(t, output.RankedProducts, 4)
				require.Len(t, output.Guards, 1)
				assert.Equal(t, filter.CriterionOrigin, output.Guards[0].Criterion)
				assert.Equal(t, filter.ActionSkipped, output.Guards[0].Action)
			},
		},
		{
			name:        "no products",
			input:       &Input{Query: models.Query{ProductType: "kettle"}},
			expectError: true,
			errorCode:   apperrors.ErrCodeNoResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, output)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}
