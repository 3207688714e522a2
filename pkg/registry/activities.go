// pkg/registry/activities.go
package registry

// Default describes the service tasks this assistant serves.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-19",
		Activities: []Activity{
			{
				ID:          "parse-shopping-query",
				DisplayName: "Parse Shopping Query",
				Description: "Turns a free-text shopping request into a structured query and search term",
				Category:    "shopping",
				Version:     "1.0.0",
				TaskType:    "parse-shopping-query",
				InputSchema: object(map[string]interface{}{
					"utterance": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 2000},
				}, "utterance"),
				OutputSchema: object(map[string]interface{}{
					"query":      map[string]interface{}{"type": "object"},
					"searchTerm": map[string]interface{}{"type": "string"},
				}),
				ErrorCodes: []string{"PARSE_ERROR", "INVALID_INPUT"},
				Timeout:    "10s",
				Tags:       []string{"parser"},
			},
			{
				ID:          "rank-products",
				DisplayName: "Rank Products",
				Description: "Post-filters product records against a query and ranks the survivors",
				Category:    "shopping",
				Version:     "1.0.0",
				TaskType:    "rank-products",
				InputSchema: object(map[string]interface{}{
					"products":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
					"query":      map[string]interface{}{"type": "object"},
					"maxResults": map[string]interface{}{"type": "integer", "minimum": 0},
				}, "products", "query"),
				OutputSchema: object(map[string]interface{}{
					"rankedProducts": map[string]interface{}{"type": "array"},
					"guards":         map[string]interface{}{"type": "array"},
					"totalCount":     map[string]interface{}{"type": "integer"},
				}),
				ErrorCodes: []string{"PARSE_ERROR", "INVALID_INPUT", "NO_RESULTS"},
				Timeout:    "30s",
				Tags:       []string{"ranking", "filter"},
			},
			{
				ID:          "handle-shopping-utterance",
				DisplayName: "Handle Shopping Utterance",
				Description: "Runs one conversational turn against a stored shopping session",
				Category:    "shopping",
				Version:     "1.0.0",
				TaskType:    "handle-shopping-utterance",
				InputSchema: object(map[string]interface{}{
					"sessionId": map[string]interface{}{"type": "string", "maxLength": 128},
					"message":   map[string]interface{}{"type": "string", "maxLength": 2000},
				}, "message"),
				OutputSchema: object(map[string]interface{}{
					"sessionId": map[string]interface{}{"type": "string"},
					"phase":     map[string]interface{}{"type": "string", "enum": []string{"IDLE", "HAS_RESULTS"}},
					"intent":    map[string]interface{}{"type": "string"},
					"response":  map[string]interface{}{"type": "object"},
				}),
				ErrorCodes: []string{"PARSE_ERROR", "INVALID_INPUT", "SESSION_NOT_FOUND", "SESSION_STORE_FAILED"},
				Timeout:    "90s",
				Retries:    3,
				Tags:       []string{"conversation", "session"},
			},
		},
	}
}

func object(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
