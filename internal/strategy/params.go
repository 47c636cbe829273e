package strategy

import (
	"encoding/json"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

// bodyStringField returns the first of keys found as a string field of
// body's top-level JSON object, or "" if body isn't a JSON object or none
// of keys are present.
func bodyStringField(body []byte, keys ...string) string {
	if len(body) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v
		}
	}
	return ""
}

// paramFloat, paramString, paramInt, paramBool, paramStringSlice pull a
// typed value out of a scenario's params map with a default, tolerating
// the int/float64 ambiguity YAML unmarshaling produces.

func paramFloat(params map[string]interface{}, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func paramInt(params map[string]interface{}, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

func paramString(params map[string]interface{}, key, def string) string {
	v, ok := params[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func paramBool(params map[string]interface{}, key string, def bool) bool {
	v, ok := params[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func paramStringSlice(params map[string]interface{}, key string) []string {
	v, ok := params[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		if strs, ok := v.([]string); ok {
			return strs
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func paramMap(params map[string]interface{}, key string) map[string]interface{} {
	v, ok := params[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return m
}

// recordErrorCode records an error_code in flow metadata and stops the
// strategy from mutating the flow any further. It always returns nil:
// strategies never propagate their internal failures out to the
// pipeline, they record and let the flow continue. err is accepted for
// callers that already have one in hand but is not itself surfaced —
// only the stable code is, so scorecard aggregation by error_code isn't
// fragmented by incidental error text.
func recordErrorCode(f *flowmodel.Flow, code string, err error) error {
	f.Metadata.ErrorCode = code
	return nil
}
