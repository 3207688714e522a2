// internal/shopping/conversation/refine.go
package conversation

import (
	"math"
	"regexp"
	"strings"

	"shopping-assistant/internal/models"
)

var (
	cheaperRe      = regexp.MustCompile(`(?i)\b(?:cheaper|less expensive|lower price|lower priced|more affordable)\b`)
	pricierRe      = regexp.MustCompile(`(?i)\b(?:more expensive|higher price|pricier|premium|better quality|higher end)\b`)
	betterRatedRe  = regexp.MustCompile(`(?i)\b(?:better rated|higher rated|higher rating|top rated|best rated|better reviews)\b`)
	fastShippingRe = regexp.MustCompile(`(?i)\b(?:prime|(?:fast|faster|quick|express)\s+(?:shipping|delivery))\b`)
)

const (
	defaultPriceStep = 100.0
	pricierMinFactor = 1.5
	betterRatedFloor = 4.0
	betterRatedStep  = 0.5
)

// refine merges the refinement signals in text into a copy of active. Relative signals
// (cheaper, better rated, ...) apply first; explicit bounds parsed from text then override.
func refine(active models.Query, text string, explicit models.Query, cfg Config) models.Query {
	q := active.Clone()

	if cheaperRe.MatchString(text) {
		lowerCeiling(&q, cfg)
	}

	if pricierRe.MatchString(text) {
		raiseFloor(&q)
	}

	if betterRatedRe.MatchString(text) {
		current, _ := q.RatingThreshold()
		q.SetExactRating(math.Min(5, math.Max(betterRatedFloor, current+betterRatedStep)))
	}

	if fastShippingRe.MatchString(text) {
		q.PrimeShipping = true
	}

	mergeExplicit(&q, explicit)
	return q
}

// lowerCeiling reduces the max by the lesser of ratio*max and the absolute cap. Without a max
// the ceiling becomes a fixed amount.
func lowerCeiling(q *models.Query, cfg Config) {
	ceiling := defaultPriceStep
	if current := q.PriceRange.Max; current != nil {
		ceiling = round2(*current - math.Min(*current*cfg.CheaperStepRatio, cfg.CheaperStepCap))
	}

	floor := q.PriceRange.Min
	if floor != nil && *floor > ceiling {
		floor = nil
	}
	q.SetPriceRange(floor, models.Float(ceiling))
}

// raiseFloor lifts the min by half, or to a fixed amount when there is none. A max the new
// floor passes is dropped.
func raiseFloor(q *models.Query) {
	floor := defaultPriceStep
	if q.PriceRange.Min != nil && *q.PriceRange.Min > 0 {
		floor = round2(*q.PriceRange.Min * pricierMinFactor)
	}

	ceiling := q.PriceRange.Max
	if ceiling != nil && floor > *ceiling {
		ceiling = nil
	}
	q.SetPriceRange(models.Float(floor), ceiling)
}

func mergeExplicit(q *models.Query, explicit models.Query) {
	if explicit.PriceRange.IsSet() {
		floor, ceiling := q.PriceRange.Min, q.PriceRange.Max
		if explicit.PriceRange.Min != nil {
			floor = explicit.PriceRange.Min
		}
		if explicit.PriceRange.Max != nil {
			ceiling = explicit.PriceRange.Max
		}
		q.SetPriceRange(floor, ceiling)
	}

	switch {
	case explicit.ExactRatingMin != nil:
		q.SetExactRating(*explicit.ExactRatingMin)
	case explicit.RatingMin != nil:
		q.SetRatingMin(*explicit.RatingMin)
	}

	if explicit.PrimeShipping {
		q.PrimeShipping = true
	}
	if explicit.Material != "" {
		q.Material = explicit.Material
	}
	if explicit.OriginCountry != "" {
		q.OriginCountry = explicit.OriginCountry
	}
	for _, kw := range explicit.Keywords {
		q.AddKeyword(kw)
	}
	for _, term := range explicit.ExcludedTerms {
		q.AddExcluded(term)
	}
}

// SearchTerm is the product type followed by up to three keywords it does not already contain.
func SearchTerm(q models.Query) string {
	term := strings.TrimSpace(q.ProductType)
	added := 0
	for _, kw := range q.Keywords {
		if added == 3 {
			break
		}
		kw = strings.TrimSpace(kw)
		if kw == "" || strings.Contains(strings.ToLower(term), strings.ToLower(kw)) {
			continue
		}
		if term == "" {
			term = kw
		} else {
			term += " " + kw
		}
		added++
	}
	return term
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
