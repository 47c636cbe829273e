package strategy

import (
	"encoding/json"
	"errors"
)

var errBodyNotJSON = errors.New("body is not valid JSON")

// walkLeaves recursively rebuilds a decoded JSON value, letting visit
// transform every scalar leaf (everything but object/array containers).
// It is used by strategies that mutate every numeric/boolean leaf in a
// document rather than a caller-specified subset of paths (data
// corruption, cognitive hallucination) — internal/jsonpath covers the
// complementary case of a caller-specified path.
func walkLeaves(v interface{}, visit func(interface{}) interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, child := range typed {
			out[k] = walkLeaves(child, visit)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, child := range typed {
			out[i] = walkLeaves(child, visit)
		}
		return out
	default:
		return visit(v)
	}
}

// mutateJSONLeaves decodes body, applies walkLeaves, and re-encodes. If
// body is not valid JSON, ok is false and the caller should fall back to
// binary mutation.
func mutateJSONLeaves(body []byte, visit func(interface{}) interface{}) ([]byte, bool) {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false
	}
	mutated := walkLeaves(decoded, visit)
	out, err := json.Marshal(mutated)
	if err != nil {
		return nil, false
	}
	return out, true
}
