package filter

import (
	"testing"

	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
)

func records() []models.ProductRecord {
	return []models.ProductRecord{
		{Title: "Bamboo Cutting Board made in Japan", RatingValue: 4.8, Link: "a"},
		{Title: "Plastic Cutting Board", RatingValue: 4.2, Link: "b"},
		{Title: "Walnut Cutting Board, USA made", RatingValue: 4.6, Link: "c"},
	}
}

func links(rs []models.ProductRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Link)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name           string
		query          models.Query
		input          []models.ProductRecord
		validateOutput func(t *testing.T, res Result)
	}{
		{
			name: "exact rating is inclusive",
			query: func() models.Query {
				q := models.Query{}
				q.SetExactRating(4.6)
				return q
			}(),
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"a", "c"}, links(res.Records))
				assert.Empty(t, res.Guards)
			},
		},
		{
			name: "exact rating that removes everything is reverted",
			query: func() models.Query {
				q := models.Query{}
				q.SetExactRating(4.9)
				return q
			}(),
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Len(t, res.Records, 3)
				assert.Equal(t, []models.FilterGuard{{Criterion: CriterionExactRating, Action: ActionReverted}}, res.Guards)
			},
		},
		{
			name:  "origin matches made in and X made",
			query: models.Query{OriginCountry: "Japan"},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"a"}, links(res.Records))
			},
		},
		{
			name:  "origin suffix form",
			query: models.Query{OriginCountry: "Usa"},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"c"}, links(res.Records))
			},
		},
		{
			name:  "origin with no match is skipped",
			query: models.Query{OriginCountry: "Germany"},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Len(t, res.Records, 3)
				assert.Equal(t, []models.FilterGuard{{Criterion: CriterionOrigin, Action: ActionSkipped}}, res.Guards)
			},
		},
		{
			name:  "material substring",
			query: models.Query{Material: "bamboo"},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"a"}, links(res.Records))
			},
		},
		{
			name:  "material that matches nothing is reverted",
			query: models.Query{Material: "marble"},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Len(t, res.Records, 3)
				assert.Equal(t, CriterionMaterial, res.Guards[0].Criterion)
				assert.Equal(t, ActionReverted, res.Guards[0].Action)
			},
		},
		{
			name:  "excluded terms are case-insensitive",
			query: models.Query{ExcludedTerms: []string{"plastic"}},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"a", "c"}, links(res.Records))
			},
		},
		{
			name:  "exclusions that remove everything are reverted",
			query: models.Query{ExcludedTerms: []string{"board"}},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Len(t, res.Records, 3)
				assert.Equal(t, CriterionExcluded, res.Guards[0].Criterion)
			},
		},
		{
			name:  "criteria chain in order",
			query: models.Query{Material: "cutting", ExcludedTerms: []string{"walnut"}},
			input: records(),
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, []string{"a", "b"}, links(res.Records))
			},
		},
		{
			name:  "empty input stays empty",
			query: models.Query{Material: "bamboo"},
			input: nil,
			validateOutput: func(t *testing.T, res Result) {
				assert.Empty(t, res.Records)
				assert.Empty(t, res.Guards)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, Apply(tt.input, tt.query))
		})
	}
}

func TestApply_NeverEmptiesNonEmptyInput(t *testing.T) {
	q := models.Query{Material: "glass", OriginCountry: "Peru", ExcludedTerms: []string{"cutting"}}
	q.SetExactRating(5)
	res := Apply(records(), q)
	assert.NotEmpty(t, res.Records)
	assert.Len(t, res.Guards, 4)
}
