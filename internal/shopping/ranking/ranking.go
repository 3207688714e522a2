// internal/shopping/ranking/ranking.go
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

// Component weights. Each raw component is capped before weighting.
const (
	WeightRating    = 0.3
	WeightReviews   = 0.2
	WeightShipping  = 0.1
	WeightPrice     = 0.2
	WeightRelevance = 0.2

	ratingScale      = 6.0
	maxReviewPoints  = 20.0
	shippingPoints   = 10.0
	inRangePoints    = 20.0
	outOfRangePoints = 5.0
	maxRelevance     = 20.0
	slowRanking      = 500 * time.Millisecond
)

type Ranker struct {
	logger logger.Logger
}

func New(log logger.Logger) *Ranker {
	return &Ranker{logger: log.WithFields(map[string]interface{}{"component": "ranking"})}
}

// Rank scores records and sorts them by score, keeping input order for ties.
// If scoring panics the records come back unsorted with score 0.
func (r *Ranker) Rank(records []models.ProductRecord, q models.Query) (ranked []models.ScoredProduct) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("ranking failed, returning unsorted records", map[string]interface{}{
				"error": fmt.Sprint(rec),
				"count": len(records),
			})
			ranked = unscored(records)
		}
	}()

	ranked = make([]models.ScoredProduct, 0, len(records))
	for _, p := range records {
		b := Breakdown(p, q)
		ranked = append(ranked, models.ScoredProduct{
			ProductRecord:        p,
			Score:                Total(b),
			RecommendationReason: Reason(p, q),
			Breakdown:            b,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	elapsed := time.Since(start)
	metrics.RankingDuration.Observe(elapsed.Seconds())
	r.logger.Info("ranking completed", map[string]interface{}{
		"count":      len(ranked),
		"durationMs": elapsed.Milliseconds(),
	})
	if elapsed > slowRanking {
		r.logger.Warn("ranking exceeded 500ms", map[string]interface{}{
			"durationMs": elapsed.Milliseconds(),
		})
	}
	return ranked
}

// Breakdown computes the weighted contribution of every component.
func Breakdown(p models.ProductRecord, q models.Query) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		Rating:    p.RatingValue * ratingScale * WeightRating,
		Relevance: Relevance(p.Title, q) * WeightRelevance,
	}

	if p.ReviewCount > 0 {
		b.Reviews = math.Min(maxReviewPoints, math.Log(float64(p.ReviewCount)+1)*2) * WeightReviews
	}

	if p.HasPrime && q.PrimeShipping {
		b.Shipping = shippingPoints * WeightShipping
	}

	// A zero price is unknown and contributes nothing either way.
	if p.PriceValue > 0 {
		points := outOfRangePoints
		if q.PriceRange.Contains(p.PriceValue) {
			points = inRangePoints
		}
		b.Price = points * WeightPrice
	}

	return b
}

// Total sums a breakdown and rounds to two decimals.
func Total(b models.ScoreBreakdown) float64 {
	sum := b.Rating + b.Reviews + b.Shipping + b.Price + b.Relevance
	return math.Round(sum*100) / 100
}

// Relevance is the unweighted title match score, capped at 20.
func Relevance(title string, q models.Query) float64 {
	t := strings.ToLower(title)
	score := 0.0

	if pt := strings.ToLower(strings.TrimSpace(q.ProductType)); pt != "" && strings.Contains(t, pt) {
		score += 5
	}

	if len(q.Keywords) > 0 {
		score += math.Min(10, float64(len(matchedKeywords(t, q.Keywords)))/float64(len(q.Keywords))*10)
	}

	if o := strings.ToLower(q.OriginCountry); o != "" && strings.Contains(t, o) {
		score += 3
	}
	if m := strings.ToLower(q.Material); m != "" && strings.Contains(t, m) {
		score += 3
	}

	return math.Min(maxRelevance, score)
}

func matchedKeywords(lowerTitle string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerTitle, strings.ToLower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

func unscored(records []models.ProductRecord) []models.ScoredProduct {
	out := make([]models.ScoredProduct, 0, len(records))
	for _, p := range records {
		out = append(out, models.ScoredProduct{ProductRecord: p})
	}
	return out
}
