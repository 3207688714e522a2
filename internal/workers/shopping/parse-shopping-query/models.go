// internal/workers/shopping/parse-shopping-query/models.go
package parseshoppingquery

import "shopping-assistant/internal/models"

type Input struct {
	Utterance string `json:"utterance"`
}

type Output struct {
	Query      models.Query `json:"query"`
	SearchTerm string       `json:"searchTerm"`
}
