package conversation

import (
	"testing"

	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Product References
// ==========================

func TestProductRefs(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		count      int
		bareDigits bool
		want       []int
	}{
		{name: "hash reference", text: "tell me about #2", count: 5, want: []int{2}},
		{name: "label reference", text: "what about product 3", count: 5, want: []int{3}},
		{name: "ordinal phrase", text: "the second one looks good", count: 5, want: []int{2}},
		{name: "bare number", text: "3", count: 5, want: []int{3}},
		{name: "out of range dropped", text: "#7", count: 5, want: nil},
		{name: "order of appearance", text: "compare #3 with the first", count: 5, want: []int{3, 1}},
		{name: "bare digits for compare", text: "compare 1 and 2", count: 5, bareDigits: true, want: []int{1, 2}},
		{name: "bare digits ignored otherwise", text: "compare 1 and 2", count: 5, want: nil},
		{name: "prices are not references", text: "under $300", count: 5, want: nil},
		{name: "no products", text: "#1", count: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, productRefs(tt.text, tt.count, tt.bareDigits))
		})
	}
}

// ==========================
// Follow-up Detection
// ==========================

func TestIsFollowUp(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		refs       []int
		activeType string
		parsedType string
		want       bool
	}{
		{name: "cheaper", text: "cheaper", activeType: "headphones", parsedType: "cheaper", want: true},
		{name: "show me cheaper ones", text: "show me cheaper ones", activeType: "headphones", parsedType: "cheaper ones", want: true},
		{name: "what about prime", text: "what about prime shipping", activeType: "headphones", want: true},
		{name: "price signal", text: "under $200 please", activeType: "headphones", parsedType: "", want: true},
		{name: "short pronoun", text: "is it waterproof", activeType: "headphones", parsedType: "is it waterproof", want: true},
		{name: "modifier", text: "without bluetooth", activeType: "speaker", want: true},
		{name: "new search", text: "find a coffee grinder", activeType: "headphones", parsedType: "coffee grinder", want: false},
		{name: "search verb with refinement on same product", text: "find premium headphones", activeType: "headphones", parsedType: "premium headphones", want: true},
		{name: "search verb with new product and premium", text: "find premium coffee grinder", activeType: "headphones", parsedType: "premium coffee grinder", want: false},
		{name: "long unrelated sentence", text: "my sister wants a nice gift for her birthday", activeType: "headphones", parsedType: "my sister wants a nice gift", want: false},
		{name: "empty", text: "  ", activeType: "headphones", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isFollowUp(tt.text, tt.refs, tt.activeType, tt.parsedType))
		})
	}
}

func TestHasRefinementSignal(t *testing.T) {
	assert.True(t, hasRefinementSignal("#2 but cheaper"))
	assert.True(t, hasRefinementSignal("the second one under $50"))
	assert.False(t, hasRefinementSignal("the second one"))
}

// ==========================
// Query Refinement
// ==========================

func TestRefine(t *testing.T) {
	cfg := Config{CheaperStepRatio: 0.2, CheaperStepCap: 100}

	tests := []struct {
		name           string
		active         models.Query
		text           string
		explicit       models.Query
		validateOutput func(t *testing.T, q models.Query)
	}{
		{
			name:   "cheaper caps the step at the absolute amount",
			active: models.Query{ProductType: "headphones", PriceRange: models.NewPriceRange(nil, models.Float(500))},
			text:   "cheaper",
			validateOutput: func(t *testing.T, q models.Query) {
				require.NotNil(t, q.PriceRange.Max)
				assert.Equal(t, 400.0, *q.PriceRange.Max)
			},
		},
		{
			name:   "cheaper uses the ratio below the cap",
			active: models.Query{PriceRange: models.NewPriceRange(nil, models.Float(200))},
			text:   "something cheaper",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 160.0, *q.PriceRange.Max)
			},
		},
		{
			name:   "cheaper without a max sets a fixed ceiling",
			active: models.Query{ProductType: "kettle"},
			text:   "cheaper",
			validateOutput: func(t *testing.T, q models.Query) {
				require.NotNil(t, q.PriceRange.Max)
				assert.Equal(t, 100.0, *q.PriceRange.Max)
				assert.Nil(t, q.PriceRange.Min)
			},
		},
		{
			name:   "cheaper keeps a min below the new ceiling",
			active: models.Query{ProductType: "kettle", PriceRange: models.NewPriceRange(models.Float(20), nil)},
			text:   "cheaper",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 20.0, *q.PriceRange.Min)
				assert.Equal(t, 100.0, *q.PriceRange.Max)
			},
		},
		{
			name:   "cheaper drops a min above the new max",
			active: models.Query{PriceRange: models.NewPriceRange(models.Float(90), models.Float(100))},
			text:   "cheaper",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Nil(t, q.PriceRange.Min)
				assert.Equal(t, 80.0, *q.PriceRange.Max)
			},
		},
		{
			name:   "pricier raises the floor",
			active: models.Query{PriceRange: models.NewPriceRange(models.Float(40), models.Float(50))},
			text:   "something more expensive",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 60.0, *q.PriceRange.Min)
				assert.Nil(t, q.PriceRange.Max)
			},
		},
		{
			name:   "better rated steps the exact threshold",
			active: models.Query{},
			text:   "better rated",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 4.0, *q.ExactRatingMin)
				assert.Equal(t, 4, *q.RatingMin)
			},
		},
		{
			name: "better rated never passes five",
			active: func() models.Query {
				q := models.Query{}
				q.SetExactRating(4.8)
				return q
			}(),
			text: "higher rated",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 5.0, *q.ExactRatingMin)
			},
		},
		{
			name:   "prime shipping",
			active: models.Query{},
			text:   "with fast delivery",
			validateOutput: func(t *testing.T, q models.Query) {
				assert.True(t, q.PrimeShipping)
			},
		},
		{
			name:     "explicit bound overrides relative step",
			active:   models.Query{PriceRange: models.NewPriceRange(nil, models.Float(500))},
			text:     "cheaper, under $250",
			explicit: models.Query{PriceRange: models.NewPriceRange(nil, models.Float(250)), Keywords: []string{"usb-c"}},
			validateOutput: func(t *testing.T, q models.Query) {
				assert.Equal(t, 250.0, *q.PriceRange.Max)
				assert.Equal(t, []string{"usb-c"}, q.Keywords)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.active.Clone()
			got := refine(tt.active, tt.text, tt.explicit, cfg)
			tt.validateOutput(t, got)
			assert.Equal(t, before, tt.active.Clone(), "active query must not be mutated")
		})
	}
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "laptop good battery", SearchTerm(models.Query{ProductType: "laptop", Keywords: []string{"good battery"}}))
	assert.Equal(t, "wireless headphones", SearchTerm(models.Query{ProductType: "wireless headphones", Keywords: []string{"Wireless"}}))
	assert.Equal(t, "mug a b c", SearchTerm(models.Query{ProductType: "mug", Keywords: []string{"a", "b", "c", "d"}}))
	assert.Equal(t, "steel", SearchTerm(models.Query{Keywords: []string{"steel"}}))
}
