// internal/shopping/filter/filter.go
package filter

import (
	"strings"

	"shopping-assistant/internal/models"
)

const (
	CriterionExactRating = "exact_rating"
	CriterionOrigin      = "origin"
	CriterionMaterial    = "material"
	CriterionExcluded    = "excluded_terms"

	// ActionReverted means the criterion would have removed every record and was undone.
	ActionReverted = "reverted"
	// ActionSkipped means the origin criterion matched nothing and was never applied.
	ActionSkipped = "skipped"
)

// Result carries the surviving records plus every criterion that was not applied.
type Result struct {
	Records []models.ProductRecord
	Guards  []models.FilterGuard
}

// Apply post-filters records on the query fields the search collaborator cannot express.
// It never returns an empty slice for non-empty input.
func Apply(records []models.ProductRecord, q models.Query) Result {
	res := Result{Records: records, Guards: []models.FilterGuard{}}
	if len(records) == 0 {
		return res
	}

	if threshold := q.ExactRatingMin; threshold != nil {
		res.step(CriterionExactRating, func(p models.ProductRecord) bool {
			return p.RatingValue >= *threshold
		})
	}

	if origin := strings.ToLower(strings.TrimSpace(q.OriginCountry)); origin != "" {
		matches := func(p models.ProductRecord) bool { return mentionsOrigin(p.Title, origin) }
		if anyMatch(res.Records, matches) {
			res.step(CriterionOrigin, matches)
		} else {
			res.Guards = append(res.Guards, models.FilterGuard{Criterion: CriterionOrigin, Action: ActionSkipped})
		}
	}

	if material := strings.ToLower(strings.TrimSpace(q.Material)); material != "" {
		res.step(CriterionMaterial, func(p models.ProductRecord) bool {
			return strings.Contains(strings.ToLower(p.Title), material)
		})
	}

	if len(q.ExcludedTerms) > 0 {
		res.step(CriterionExcluded, func(p models.ProductRecord) bool {
			title := strings.ToLower(p.Title)
			for _, term := range q.ExcludedTerms {
				if term != "" && strings.Contains(title, strings.ToLower(term)) {
					return false
				}
			}
			return true
		})
	}

	return res
}

// step keeps the records that satisfy keep, or reverts when none would survive.
func (r *Result) step(criterion string, keep func(models.ProductRecord) bool) {
	kept := make([]models.ProductRecord, 0, len(r.Records))
	for _, p := range r.Records {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		r.Guards = append(r.Guards, models.FilterGuard{Criterion: criterion, Action: ActionReverted})
		return
	}
	r.Records = kept
}

func mentionsOrigin(title, origin string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "made in "+origin) ||
		strings.Contains(t, "from "+origin) ||
		strings.Contains(t, origin+" made")
}

func anyMatch(records []models.ProductRecord, pred func(models.ProductRecord) bool) bool {
	for _, p := range records {
		if pred(p) {
			return true
		}
	}
	return false
}
