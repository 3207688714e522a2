// internal/collaborators/inference/schemas.go
package inference

import "shopping-assistant/internal/common/validation"

const (
	schemaPlan       = "plan"
	schemaReviews    = "review_analysis"
	schemaComparison = "comparison"
	schemaResearch   = "research"
	schemaQuery      = "query"
)

const planSchema = `{
  "type": "object",
  "required": ["steps"],
  "properties": {
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["action"],
        "properties": {
          "action": {"enum": ["search", "filter", "analyze_reviews", "compare", "research", "recommend"]},
          "parameters": {"type": "object"},
          "reasoning": {"type": "string"}
        }
      }
    }
  }
}`

const reviewSchema = `{
  "type": "object",
  "required": ["sentiment", "strengths", "concerns"],
  "properties": {
    "sentiment": {"type": "string", "minLength": 1},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "concerns":  {"type": "array", "items": {"type": "string"}}
  }
}`

const comparisonSchema = `{
  "type": "object",
  "required": ["bestOverall", "bestValue", "summary"],
  "properties": {
    "bestOverall": {"type": "string"},
    "bestValue":   {"type": "string"},
    "summary":     {"type": "string"}
  }
}`

const researchSchema = `{
  "type": "object",
  "properties": {
    "specifications": {"type": "object", "additionalProperties": {"type": "string"}},
    "description": {"type": "string"},
    "reviewAnalysis": {
      "type": "object",
      "properties": {
        "sentiment": {"type": "string"},
        "strengths": {"type": "array", "items": {"type": "string"}},
        "concerns": {"type": "array", "items": {"type": "string"}},
        "longevity": {"type": "string"},
        "commonThemes": {"type": "array", "items": {"type": "string"}},
        "verifiedPurchaseCount": {"type": "integer", "minimum": 0}
      }
    },
    "prosCons": {
      "type": "object",
      "properties": {
        "pros": {"type": "array", "items": {"type": "string"}},
        "cons": {"type": "array", "items": {"type": "string"}}
      }
    },
    "reviewExcerpts": {"type": "array", "items": {"type": "string"}}
  }
}`

const querySchema = `{
  "type": "object",
  "required": ["productType"],
  "properties": {
    "productType": {"type": "string"},
    "priceRange": {
      "type": "object",
      "properties": {
        "min": {"type": ["number", "null"], "minimum": 0},
        "max": {"type": ["number", "null"], "minimum": 0}
      }
    },
    "ratingMin": {"type": ["integer", "null"], "minimum": 1, "maximum": 5},
    "exactRatingMin": {"type": ["number", "null"], "minimum": 0, "maximum": 5},
    "primeShipping": {"type": "boolean"},
    "keywords": {"type": "array", "items": {"type": "string"}},
    "excludedTerms": {"type": "array", "items": {"type": "string"}},
    "material": {"type": ["string", "null"]},
    "originCountry": {"type": ["string", "null"]}
  }
}`

// NewPayloadValidator registers every response schema the inference client checks.
func NewPayloadValidator() *validation.Validator {
	return validation.NewValidator().
		MustRegister(schemaPlan, planSchema).
		MustRegister(schemaReviews, reviewSchema).
		MustRegister(schemaComparison, comparisonSchema).
		MustRegister(schemaResearch, researchSchema).
		MustRegister(schemaQuery, querySchema)
}
