// internal/shopping/ranking/reason.go
package ranking

import (
	"fmt"
	"strconv"
	"strings"

	"shopping-assistant/internal/models"
)

const fallbackReason = "This product matches your search criteria"

// Reason explains a recommendation. Parts are cited in a fixed priority order.
func Reason(p models.ProductRecord, q models.Query) string {
	var parts []string

	if threshold, ok := q.RatingThreshold(); ok && p.RatingValue >= threshold {
		parts = append(parts, fmt.Sprintf("rating of %s meeting your %s-star minimum", ratingText(p), formatNumber(threshold)))
	} else if !ok && p.RatingValue >= 4 {
		parts = append(parts, fmt.Sprintf("high rating of %s", ratingText(p)))
	}

	switch {
	case p.ReviewCount > 1000:
		parts = append(parts, fmt.Sprintf("over %d reviews", p.ReviewCount))
	case p.ReviewCount > 100:
		parts = append(parts, fmt.Sprintf("%d reviews", p.ReviewCount))
	}

	if ceiling := q.PriceRange.Max; ceiling != nil && p.PriceValue > 0 && p.PriceValue <= *ceiling {
		parts = append(parts, fmt.Sprintf("within your budget of $%s", formatNumber(*ceiling)))
	}

	if p.HasPrime && q.PrimeShipping {
		parts = append(parts, "Prime shipping")
	}

	title := strings.ToLower(p.Title)
	if q.OriginCountry != "" && strings.Contains(title, strings.ToLower(q.OriginCountry)) {
		parts = append(parts, "being made in "+q.OriginCountry)
	}
	if q.Material != "" && strings.Contains(title, strings.ToLower(q.Material)) {
		parts = append(parts, q.Material+" construction")
	}

	if matched := matchedKeywords(title, q.Keywords); len(matched) > 0 {
		if len(matched) > 2 {
			matched = matched[:2]
		}
		parts = append(parts, "includes "+strings.Join(matched, ", "))
	}

	if len(parts) == 0 {
		return fallbackReason
	}
	return "Recommended for its " + strings.Join(parts, ", ")
}

func ratingText(p models.ProductRecord) string {
	if p.RatingDisplay != "" {
		return p.RatingDisplay
	}
	return formatNumber(p.RatingValue)
}

// formatNumber prints the shortest exact form: 800 not 800.00.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
