package strategy

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/tokencount"
)

func init() {
	Register("hallucination", func() Strategy { return &HallucinationStrategy{} })
	Register("context_overflow", func() Strategy { return &ContextOverflowStrategy{} })
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDateLeaf(s string) (time.Time, string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout, true
		}
	}
	return time.Time{}, "", false
}

// HallucinationStrategy mutates a JSON response body's numeric and
// date-shaped string leaves in place without adding or removing keys.
// params:
//
//	mode         string, required — swap_entities | invert_numbers | shift_dates
//	offset_days  int, default 1   — shift_dates only
type HallucinationStrategy struct {
	noOpRequest
}

func (s *HallucinationStrategy) Tag() string { return "hallucination" }

func (s *HallucinationStrategy) InterceptResponse(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	resp := f.Response
	if resp == nil || len(resp.BodyBytes) == 0 {
		return nil
	}

	mode := paramString(params, "mode", "swap_entities")
	offsetDays := paramInt(params, "offset_days", 1)

	mutated, ok := mutateJSONLeaves(resp.BodyBytes, func(leaf interface{}) interface{} {
		switch v := leaf.(type) {
		case float64:
			return hallucinateNumber(mode, v)
		case string:
			if t, layout, isDate := parseDateLeaf(v); isDate {
				return hallucinateDate(mode, t, layout, offsetDays)
			}
			return v
		default:
			return v
		}
	})
	if !ok {
		return recordErrorCode(f, "HALLUCINATION_DECODE_FAILED", errBodyNotJSON)
	}

	resp.BodyBytes = mutated
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

func hallucinateNumber(mode string, v float64) float64 {
	switch mode {
	case "invert_numbers":
		return -v
	case "swap_entities":
		factor := 0.8 + rand.Float64()*0.4
		return v * factor
	default:
		return v
	}
}

func hallucinateDate(mode string, t time.Time, layout string, offsetDays int) string {
	switch mode {
	case "swap_entities":
		nudge := rand.IntN(15) - 7 // +/- 7 days
		return t.AddDate(0, 0, nudge).Format(layout)
	case "shift_dates":
		return t.AddDate(0, 0, offsetDays).Format(layout)
	default:
		return t.Format(layout)
	}
}

// ContextOverflowStrategy appends token-accurate filler text to the last
// message's content of a chat-completion-shaped request body, without
// reordering messages. params:
//
//	token_count  int, required         — target filler size in model tokens
//	model        string, optional      — selects the tiktoken encoding
//	filler_text  string, optional      — repeated instead of the default filler word
type ContextOverflowStrategy struct {
	noOpResponse
}

func (s *ContextOverflowStrategy) Tag() string { return "context_overflow" }

func (s *ContextOverflowStrategy) InterceptRequest(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if f.Request == nil || len(f.Request.BodyBytes) == 0 {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(f.Request.BodyBytes, &body); err != nil {
		return recordErrorCode(f, "CONTEXT_OVERFLOW_DECODE_FAILED", err)
	}

	messages, ok := body["messages"].([]interface{})
	if !ok || len(messages) == 0 {
		return nil
	}
	last, ok := messages[len(messages)-1].(map[string]interface{})
	if !ok {
		return nil
	}

	tokenCount := paramInt(params, "token_count", 0)
	if tokenCount <= 0 {
		return nil
	}

	encoding := tokencount.EncodingForModel(paramString(params, "model", ""))
	counter, err := tokencount.NewCounter(encoding)
	if err != nil {
		return recordErrorCode(f, "CONTEXT_OVERFLOW_ENCODING_FAILED", err)
	}

	filler := counter.Filler(tokenCount)
	if custom := paramString(params, "filler_text", ""); custom != "" {
		filler = custom
	}

	existing, _ := last["content"].(string)
	last["content"] = existing + " " + filler

	out, err := json.Marshal(body)
	if err != nil {
		return recordErrorCode(f, "CONTEXT_OVERFLOW_ENCODE_FAILED", err)
	}
	f.Request.BodyBytes = out
	f.Metadata.AddStrategy(s.Tag())
	return nil
}
