// internal/models/query.go
package models

import (
	"math"
	"strings"
)

// PriceRange holds optional price bounds. A nil bound is open on that side.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// NewPriceRange builds a range and clamps min down to max when the bounds are inverted.
func NewPriceRange(min, max *float64) PriceRange {
	pr := PriceRange{Min: copyFloat(min), Max: copyFloat(max)}
	pr.normalize()
	return pr
}

func (p *PriceRange) normalize() {
	if p.Min != nil && p.Max != nil && *p.Max < *p.Min {
		v := *p.Max
		p.Min = &v
	}
}

// IsSet reports whether at least one bound is present.
func (p PriceRange) IsSet() bool {
	return p.Min != nil || p.Max != nil
}

// Contains reports whether v lies inside the range, treating nil bounds as unconstrained.
func (p PriceRange) Contains(v float64) bool {
	if p.Min != nil && v < *p.Min {
		return false
	}
	if p.Max != nil && v > *p.Max {
		return false
	}
	return true
}

// Query is the structured form of a shopping request. Refinements work on a Clone.
type Query struct {
	ProductType    string     `json:"productType"`
	PriceRange     PriceRange `json:"priceRange"`
	RatingMin      *int       `json:"ratingMin,omitempty"`
	ExactRatingMin *float64   `json:"exactRatingMin,omitempty"`
	PrimeShipping  bool       `json:"primeShipping"`
	Keywords       []string   `json:"keywords"`
	ExcludedTerms  []string   `json:"excludedTerms"`
	Material       string     `json:"material,omitempty"`
	OriginCountry  string     `json:"originCountry,omitempty"`
}

// MinimalQuery is the value returned when parsing cannot complete.
func MinimalQuery(utterance string) Query {
	return Query{
		ProductType:   utterance,
		Keywords:      []string{},
		ExcludedTerms: []string{},
	}
}

// Clone returns a deep copy.
func (q Query) Clone() Query {
	out := q
	out.PriceRange = NewPriceRange(q.PriceRange.Min, q.PriceRange.Max)
	if q.RatingMin != nil {
		v := *q.RatingMin
		out.RatingMin = &v
	}
	out.ExactRatingMin = copyFloat(q.ExactRatingMin)
	out.Keywords = append([]string{}, q.Keywords...)
	out.ExcludedTerms = append([]string{}, q.ExcludedTerms...)
	return out
}

// SetPriceRange replaces both bounds, applying the inversion clamp.
func (q *Query) SetPriceRange(min, max *float64) {
	q.PriceRange = NewPriceRange(min, max)
}

// SetExactRating sets the authoritative threshold and derives the whole-star floor.
func (q *Query) SetExactRating(v float64) {
	v = math.Max(0, math.Min(5, v))
	q.ExactRatingMin = &v
	floor := int(math.Floor(v))
	if floor >= 1 {
		q.RatingMin = &floor
	} else {
		q.RatingMin = nil
	}
}

// SetRatingMin sets a whole-star threshold and clears any exact threshold.
func (q *Query) SetRatingMin(v int) {
	if v < 1 {
		v = 1
	}
	if v > 5 {
		v = 5
	}
	q.RatingMin = &v
	q.ExactRatingMin = nil
}

// RatingThreshold returns the threshold a product rating must meet, if any.
func (q Query) RatingThreshold() (float64, bool) {
	if q.ExactRatingMin != nil {
		return *q.ExactRatingMin, true
	}
	if q.RatingMin != nil {
		return float64(*q.RatingMin), true
	}
	return 0, false
}

// AddKeyword appends a keyword unless an equal one (case-insensitive) exists.
func (q *Query) AddKeyword(kw string) bool {
	kw = strings.TrimSpace(kw)
	if kw == "" || containsFold(q.Keywords, kw) {
		return false
	}
	q.Keywords = append(q.Keywords, kw)
	return true
}

// AddExcluded appends an excluded term unless it is already present.
func (q *Query) AddExcluded(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || containsFold(q.ExcludedTerms, term) {
		return false
	}
	q.ExcludedTerms = append(q.ExcludedTerms, term)
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
