// internal/shopping/conversation/respond.go
package conversation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"shopping-assistant/internal/models"
	"shopping-assistant/internal/shopping/filter"
)

const (
	NoResultsMessage = "I couldn't find any products matching your request. Would you like to try different search terms or criteria?"
	emptyMessage     = "What are you shopping for? Tell me the product and anything that matters to you, like budget, rating or shipping."
	failureMessage   = "Sorry, something went wrong while handling that request. Could you try rephrasing it?"
	summaryListed    = 3
)

var guardNotes = map[string]string{
	filter.CriterionExactRating: "none of the results met the exact rating you asked for",
	filter.CriterionOrigin:      "no listing mentioned the origin you asked for",
	filter.CriterionMaterial:    "no listing mentioned the material you asked for",
	filter.CriterionExcluded:    "every listing mentioned a term you wanted to avoid",
}

// refinementSuggestions are the query tweaks worth offering for q.
func refinementSuggestions(q models.Query) []models.Suggestion {
	out := []models.Suggestion{{Action: models.SuggestDetails, Text: "Ask for more details about any product"}}
	if !q.PrimeShipping {
		out = append(out, models.Suggestion{Action: models.SuggestPrime, Text: "Filter for Prime shipping"})
	}
	if q.PriceRange.Max != nil {
		out = append(out, models.Suggestion{
			Action: models.SuggestCheaper,
			Text:   fmt.Sprintf("Look for cheaper options under $%d", int(*q.PriceRange.Max*0.8)),
		})
	} else {
		out = append(out, models.Suggestion{Action: models.SuggestPriceRange, Text: "Set a price range"})
	}
	if threshold, ok := q.RatingThreshold(); !ok || threshold < 4 {
		out = append(out, models.Suggestion{Action: models.SuggestBetterRated, Text: "Find better rated products"})
	}
	return out
}

func searchMessage(q models.Query, products []models.ScoredProduct, followUp bool, guards []models.FilterGuard, suggestions []models.Suggestion) string {
	var b strings.Builder

	switch {
	case followUp:
		b.WriteString("Here are the updated results based on your request:")
	case strings.TrimSpace(q.ProductType) != "":
		fmt.Fprintf(&b, "I found some %s that match your criteria:", q.ProductType)
	default:
		b.WriteString("I found some products that match your criteria:")
	}

	for i, p := range products {
		if i == summaryListed {
			break
		}
		b.WriteString("\n\n")
		writeProduct(&b, i+1, p)
	}

	for _, g := range guards {
		if note, ok := guardNotes[g.Criterion]; ok {
			fmt.Fprintf(&b, "\n\nNote: %s, so I kept those results.", note)
		}
	}

	if len(products) > 0 && products[0].Research != nil && !products[0].Research.Degraded {
		if d := strings.TrimSpace(products[0].Research.Description); d != "" {
			fmt.Fprintf(&b, "\n\nAbout the top pick: %s", d)
		}
	}

	writeSuggestions(&b, suggestions)
	return b.String()
}

func writeProduct(b *strings.Builder, n int, p models.ScoredProduct) {
	fmt.Fprintf(b, "%d. %s", n, p.Title)
	fmt.Fprintf(b, "\n   Price: %s", priceText(p.ProductRecord))
	if p.ReviewCount > 0 {
		fmt.Fprintf(b, "\n   Rating: %s (%d reviews)", ratingText(p.ProductRecord), p.ReviewCount)
	} else {
		fmt.Fprintf(b, "\n   Rating: %s", ratingText(p.ProductRecord))
	}
	if p.HasPrime {
		b.WriteString("\n   ✓ Prime shipping")
	} else {
		b.WriteString("\n   Standard shipping")
	}
	if p.RecommendationReason != "" {
		fmt.Fprintf(b, "\n   %s", p.RecommendationReason)
	}
}

func writeSuggestions(b *strings.Builder, suggestions []models.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	b.WriteString("\n\nYou can:")
	for _, s := range suggestions {
		fmt.Fprintf(b, "\n• %s", s.Text)
	}
}

func reviewsMessage(p models.ScoredProduct, rec models.ResearchRecord) string {
	ra := rec.ReviewAnalysis
	if rec.Degraded || (ra.Sentiment == models.SentimentUnknown && len(ra.Strengths) == 0 && len(ra.Concerns) == 0) {
		return fmt.Sprintf("I couldn't gather review insights for %s right now. It is rated %s.", p.Title, ratingText(p.ProductRecord))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what reviewers say about %s:", p.Title)
	fmt.Fprintf(&b, "\nOverall sentiment: %s", ra.Sentiment)
	if len(ra.Strengths) > 0 {
		fmt.Fprintf(&b, "\nStrengths: %s", strings.Join(ra.Strengths, ", "))
	}
	if len(ra.Concerns) > 0 {
		fmt.Fprintf(&b, "\nConcerns: %s", strings.Join(ra.Concerns, ", "))
	}
	if ra.Longevity != "" && ra.Longevity != models.SentimentUnknown {
		fmt.Fprintf(&b, "\nLongevity: %s", ra.Longevity)
	}
	if len(ra.CommonThemes) > 0 {
		fmt.Fprintf(&b, "\nCommon themes: %s", strings.Join(ra.CommonThemes, ", "))
	}
	return b.String()
}

func detailsMessage(p models.ScoredProduct, rec models.ResearchRecord) string {
	if rec.Degraded || (len(rec.Specifications) == 0 && rec.Description == "") {
		return fmt.Sprintf("I couldn't find detailed specifications for %s right now. It costs %s and is rated %s.",
			p.Title, priceText(p.ProductRecord), ratingText(p.ProductRecord))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Details for %s:", p.Title)
	if rec.Description != "" {
		fmt.Fprintf(&b, "\n%s", rec.Description)
	}
	if len(rec.Specifications) > 0 {
		b.WriteString("\n\nSpecifications:")
		for _, k := range sortedKeys(rec.Specifications) {
			fmt.Fprintf(&b, "\n• %s: %s", k, rec.Specifications[k])
		}
	}
	if len(rec.ProsCons.Pros) > 0 {
		fmt.Fprintf(&b, "\n\nPros: %s", strings.Join(rec.ProsCons.Pros, ", "))
	}
	if len(rec.ProsCons.Cons) > 0 {
		fmt.Fprintf(&b, "\nCons: %s", strings.Join(rec.ProsCons.Cons, ", "))
	}
	return b.String()
}

func comparisonMessage(products []models.ScoredProduct, c models.Comparison) string {
	if c.Error != "" {
		return fmt.Sprintf("I couldn't compare those products: %s.", c.Error)
	}

	var b strings.Builder
	titles := make([]string, 0, len(products))
	for i, p := range products {
		titles = append(titles, fmt.Sprintf("%d. %s", i+1, p.Title))
	}
	fmt.Fprintf(&b, "Comparing:\n%s", strings.Join(titles, "\n"))
	if c.BestOverall != "" {
		fmt.Fprintf(&b, "\n\nBest overall: %s", c.BestOverall)
	}
	if c.BestValue != "" {
		fmt.Fprintf(&b, "\nBest value: %s", c.BestValue)
	}
	if c.Summary != "" {
		fmt.Fprintf(&b, "\n\n%s", c.Summary)
	}
	return b.String()
}

func focusMessage(index int, p models.ScoredProduct, suggestions []models.Suggestion) string {
	var b strings.Builder
	b.WriteString("Here's that product:\n\n")
	writeProduct(&b, index, p)
	writeSuggestions(&b, suggestions)
	return b.String()
}

func outOfRangeMessage(index, count int) string {
	if count == 1 {
		return fmt.Sprintf("There is no product #%d in the current results. Only #1 is available.", index)
	}
	return fmt.Sprintf("There is no product #%d in the current results. Pick a number from 1 to %d.", index, count)
}

func priceText(p models.ProductRecord) string {
	if p.PriceDisplay != "" {
		return p.PriceDisplay
	}
	if p.PriceValue > 0 {
		return "$" + strconv.FormatFloat(p.PriceValue, 'f', 2, 64)
	}
	return "price unavailable"
}

func ratingText(p models.ProductRecord) string {
	if p.RatingDisplay != "" {
		return p.RatingDisplay
	}
	if p.RatingValue > 0 {
		return strconv.FormatFloat(p.RatingValue, 'f', -1, 64) + " out of 5 stars"
	}
	return "not rated"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
