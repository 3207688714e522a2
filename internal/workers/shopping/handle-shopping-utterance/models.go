// internal/workers/shopping/handle-shopping-utterance/models.go
package handleshoppingutterance

import "shopping-assistant/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type Output struct {
	SessionID string          `json:"sessionId"`
	Phase     models.Phase    `json:"phase"`
	Intent    models.Intent   `json:"intent"`
	Response  models.Response `json:"response"`
}
