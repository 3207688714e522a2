// internal/collaborators/search/elasticsearch.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopping-assistant/internal/common/database"
	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchCatalog searches a product index in Elasticsearch.
type ElasticsearchCatalog struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewElasticsearchCatalog(es *database.ElasticsearchClient, index string, log logger.Logger) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"backend": "elasticsearch", "index": index}),
	}
}

func (c *ElasticsearchCatalog) Begin() Interaction {
	return &catalogInteraction{catalog: c}
}

// catalogInteraction accumulates the term and filters; the query runs on extract.
type catalogInteraction struct {
	catalog  *ElasticsearchCatalog
	term     string
	filters  Filters
	searched bool
}

func (i *catalogInteraction) Search(ctx context.Context, term string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewSearchTimeoutError("search")
	}
	i.term = strings.TrimSpace(term)
	i.searched = true
	return nil
}

func (i *catalogInteraction) ApplyFilters(ctx context.Context, filters Filters) error {
	if !i.searched {
		return apperrors.NewSearchCollaboratorError("apply_filters", fmt.Errorf("no search in progress"))
	}
	i.filters = filters
	return nil
}

func (i *catalogInteraction) ExtractResults(ctx context.Context, maxCount int) ([]models.ProductRecord, error) {
	if !i.searched {
		return nil, apperrors.NewSearchCollaboratorError("extract_results", fmt.Errorf("no search in progress"))
	}
	if maxCount <= 0 {
		return []models.ProductRecord{}, nil
	}
	return i.catalog.query(ctx, i.term, i.filters, maxCount)
}

func (c *ElasticsearchCatalog) query(ctx context.Context, term string, filters Filters, size int) ([]models.ProductRecord, error) {
	body, err := json.Marshal(BuildQuery(term, filters))
	if err != nil {
		return nil, apperrors.NewSearchCollaboratorError("build_query", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, c.es.Client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewSearchTimeoutError("extract_results")
		}
		return nil, apperrors.NewSearchCollaboratorError("extract_results", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, apperrors.NewIndexNotFoundError(c.index)
		}
		return nil, apperrors.NewSearchCollaboratorError("extract_results", fmt.Errorf("elasticsearch error: %s", res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchCollaboratorError("decode_results", err)
	}

	records := make([]models.ProductRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source.record())
	}

	c.logger.Debug("catalog query executed", map[string]interface{}{
		"term":   term,
		"hits":   len(records),
		"tookMs": parsed.Took,
	})
	return records, nil
}

// BuildQuery builds the bool query for a search term and its filters.
func BuildQuery(term string, filters Filters) map[string]interface{} {
	var must []interface{}
	if term != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"fields": []string{"title^3", "category^2", "description"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	var filter []interface{}
	if filters.MinPrice != nil || filters.MaxPrice != nil {
		rng := map[string]interface{}{}
		if filters.MinPrice != nil {
			rng["gte"] = *filters.MinPrice
		}
		if filters.MaxPrice != nil {
			rng["lte"] = *filters.MaxPrice
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"price_value": rng},
		})
	}
	if filters.PrimeOnly {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"has_prime": true},
		})
	}
	if filters.MinRating != nil {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"rating_value": map[string]interface{}{"gte": *filters.MinRating},
			},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Source catalogSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type catalogSource struct {
	Title         string  `json:"title"`
	PriceDisplay  string  `json:"price_display"`
	PriceValue    float64 `json:"price_value"`
	RatingDisplay string  `json:"rating_display"`
	RatingValue   float64 `json:"rating_value"`
	ReviewCount   int     `json:"review_count"`
	HasPrime      bool    `json:"has_prime"`
	Link          string  `json:"link"`
	ImageURL      string  `json:"image_url"`
}

func (s catalogSource) record() models.ProductRecord {
	return models.ProductRecord{
		Title:         s.Title,
		PriceDisplay:  s.PriceDisplay,
		PriceValue:    s.PriceValue,
		RatingDisplay: s.RatingDisplay,
		RatingValue:   s.RatingValue,
		ReviewCount:   s.ReviewCount,
		HasPrime:      s.HasPrime,
		Link:          s.Link,
		ImageURL:      s.ImageURL,
	}
}
