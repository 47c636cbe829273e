package strategy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/stretchr/testify/require"
)

func TestHallucinationStrategy_InvertNumbersPreservesKeySet(t *testing.T) {
	s, ok := New("hallucination")
	require.True(t, ok)

	f := flowWithJSONResponse(t, `{"amount": 50, "label": "unchanged", "when": "2026-01-15"}`)
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{"mode": "invert_numbers"})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Response.BodyBytes, &decoded))
	require.Equal(t, float64(-50), decoded["amount"])
	require.Equal(t, "unchanged", decoded["label"])
	require.Len(t, decoded, 3)
}

func TestHallucinationStrategy_ShiftDatesByOffset(t *testing.T) {
	s, ok := New("hallucination")
	require.True(t, ok)

	f := flowWithJSONResponse(t, `{"due": "2026-01-01"}`)
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{
		"mode":        "shift_dates",
		"offset_days": 10,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Response.BodyBytes, &decoded))
	require.Equal(t, "2026-01-11", decoded["due"])
}

func TestContextOverflowStrategy_AppendsFillerToLastMessageOnly(t *testing.T) {
	s, ok := New("context_overflow")
	require.True(t, ok)

	f := flowmodel.NewFlow(&flowmodel.Request{
		Method: "POST",
		URL:    "http://x/v1/chat/completions",
		BodyBytes: []byte(`{"messages": [
			{"role": "user", "content": "first"},
			{"role": "assistant", "content": "second"}
		]}`),
	})

	err := s.InterceptRequest(context.Background(), f, map[string]interface{}{
		"token_count": 5,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Request.BodyBytes, &decoded))
	messages := decoded["messages"].([]interface{})
	require.Len(t, messages, 2)

	first := messages[0].(map[string]interface{})
	require.Equal(t, "first", first["content"])

	last := messages[1].(map[string]interface{})
	content := last["content"].(string)
	require.Contains(t, content, "second")
	require.Greater(t, len(content), len("second"))
	require.Contains(t, f.Metadata.AppliedStrategies, "context_overflow")
}

func TestContextOverflowStrategy_NoMessagesIsNoop(t *testing.T) {
	s, ok := New("context_overflow")
	require.True(t, ok)

	f := flowmodel.NewFlow(&flowmodel.Request{
		Method:    "POST",
		URL:       "http://x/v1/chat/completions",
		BodyBytes: []byte(`{"model": "gpt-4"}`),
	})
	err := s.InterceptRequest(context.Background(), f, map[string]interface{}{"token_count": 5})
	require.NoError(t, err)
	require.Empty(t, f.Metadata.AppliedStrategies)
}
