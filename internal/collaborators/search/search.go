// internal/collaborators/search/search.go
package search

import (
	"context"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("shopping-assistant/search")

// Filters are the constraints the search collaborator can apply natively.
// MinRating is a whole-star threshold in 1..4.
type Filters struct {
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
	PrimeOnly bool     `json:"primeOnly"`
	MinRating *int     `json:"minRating,omitempty"`
}

// FiltersFor derives collaborator filters from a query, clamping the star rating to 1..4.
func FiltersFor(q models.Query) Filters {
	f := Filters{
		MinPrice:  q.PriceRange.Min,
		MaxPrice:  q.PriceRange.Max,
		PrimeOnly: q.PrimeShipping,
	}
	if q.RatingMin != nil {
		r := *q.RatingMin
		if r < 1 {
			r = 1
		}
		if r > 4 {
			r = 4
		}
		f.MinRating = &r
	}
	return f
}

// Interaction is one search/filter/extract exchange. Implementations may keep state
// between calls, so an Interaction must not be shared across sessions.
type Interaction interface {
	Search(ctx context.Context, term string) error
	ApplyFilters(ctx context.Context, filters Filters) error
	ExtractResults(ctx context.Context, maxCount int) ([]models.ProductRecord, error)
}

// Backend opens a fresh Interaction per search.
type Backend interface {
	Begin() Interaction
}

// Guarded runs a full interaction and turns every failure into an empty result.
type Guarded struct {
	backend Backend
	timeout time.Duration
	logger  logger.Logger
}

func NewGuarded(backend Backend, timeout time.Duration, log logger.Logger) *Guarded {
	return &Guarded{
		backend: backend,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"collaborator": "search"}),
	}
}

// Find searches term, applies filters and extracts up to maxCount records.
// A failed filter step still extracts; any other failure yields no records.
func (g *Guarded) Find(ctx context.Context, term string, filters Filters, maxCount int) []models.ProductRecord {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "search.find")
	span.SetAttributes(attribute.String("search.term", term), attribute.Int("search.max", maxCount))
	defer span.End()

	it := g.backend.Begin()

	if err := it.Search(ctx, term); err != nil {
		g.failure("search", err)
		return []models.ProductRecord{}
	}
	if err := it.ApplyFilters(ctx, filters); err != nil {
		g.failure("apply_filters", err)
	}
	records, err := it.ExtractResults(ctx, maxCount)
	if err != nil {
		g.failure("extract_results", err)
		return []models.ProductRecord{}
	}
	if records == nil {
		records = []models.ProductRecord{}
	}

	span.SetAttributes(attribute.Int("search.results", len(records)))
	g.logger.Info("search completed", map[string]interface{}{
		"term":    term,
		"results": len(records),
	})
	return records
}

func (g *Guarded) failure(operation string, err error) {
	metrics.CollaboratorFailures.WithLabelValues("search", operation).Inc()
	g.logger.Warn("search collaborator failed", map[string]interface{}{
		"operation": operation,
		"error":     err,
	})
}
