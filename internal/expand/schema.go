package expand

// TermsSchema is the response schema for term lists.
var TermsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"terms": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Related search terms, one concept per entry, no duplicates",
		},
	},
	"required":             []string{"terms"},
	"additionalProperties": false,
}

// CategorySchema is the response schema for category inference.
var CategorySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"category": map[string]any{
			"type":        "string",
			"description": "Product category in one or two words, empty if unknown",
		},
	},
	"required":             []string{"category"},
	"additionalProperties": false,
}

// QuantitySchema is the response schema for quantity inference.
var QuantitySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"quantity": map[string]any{
			"type":        []string{"integer", "null"},
			"minimum":     0,
			"maximum":     9999,
			"description": "Number of units mentioned in the text, null if none",
		},
	},
	"required":             []string{"quantity"},
	"additionalProperties": false,
}

type termsResponse struct {
	Terms []string `json:"terms"`
}

type categoryResponse struct {
	Category string `json:"category"`
}

type quantityResponse struct {
	Quantity *int `json:"quantity"`
}
