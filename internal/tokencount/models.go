package tokencount

// modelEncodings maps common LLM model names to the tiktoken encoding
// that counts their tokens most accurately.
var modelEncodings = map[string]string{
	"gpt-4o":             "o200k_base",
	"gpt-4o-mini":        "o200k_base",
	"gpt-4.1":            "o200k_base",
	"gpt-4.5":            "o200k_base",
	"gpt-4o-2024-05-13":  "o200k_base",
	"gpt-4o-2024-08-06":  "o200k_base",
	"gpt-4":              "cl100k_base",
	"gpt-4-turbo":        "cl100k_base",
	"gpt-3.5-turbo":      "cl100k_base",
	"gpt-3.5-turbo-16k":  "cl100k_base",
	"claude-3-5-sonnet":  "cl100k_base",
	"claude-3-opus":      "cl100k_base",
	"claude-3-sonnet":    "cl100k_base",
	"claude-3-haiku":     "cl100k_base",
}

// DefaultEncoding is used when a model isn't in modelEncodings, or none
// was specified.
const DefaultEncoding = "cl100k_base"

// EncodingForModel returns the tiktoken encoding for model, falling back
// to DefaultEncoding. Anthropic models have no public tiktoken encoding;
// cl100k_base is used as an approximation.
func EncodingForModel(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	return DefaultEncoding
}
