package strategy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/stretchr/testify/require"
)

func flowWithJSONResponse(t *testing.T, body string) *flowmodel.Flow {
	t.Helper()
	f := newTestFlow()
	f.Response = &flowmodel.Response{Status: 200, BodyBytes: []byte(body)}
	return f
}

func TestDataCorruptionStrategy_PreservesJSONKeySet(t *testing.T) {
	s, ok := New("data_corruption")
	require.True(t, ok)

	f := flowWithJSONResponse(t, `{"amount": 100.0, "active": true, "name": "x"}`)
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{
		"jitter_pct": 0.5,
		"flip_prob":  1.0,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Response.BodyBytes, &decoded))
	require.Contains(t, decoded, "amount")
	require.Contains(t, decoded, "active")
	require.Contains(t, decoded, "name")

	// flip_prob 1.0 always flips the boolean leaf.
	require.Equal(t, false, decoded["active"])
	require.Contains(t, f.Metadata.AppliedStrategies, "data_corruption")
}

func TestDataCorruptionStrategy_ZeroJitterLeavesNumbersUnchanged(t *testing.T) {
	s, ok := New("data_corruption")
	require.True(t, ok)

	f := flowWithJSONResponse(t, `{"amount": 42.5}`)
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{
		"jitter_pct": 0.0,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Response.BodyBytes, &decoded))
	require.InDelta(t, 42.5, decoded["amount"], 0.0001)
}

func TestDataCorruptionStrategy_TruncateAt(t *testing.T) {
	s, ok := New("data_corruption")
	require.True(t, ok)

	f := flowWithJSONResponse(t, `{"amount": 42.5, "name": "hello world"}`)
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{
		"truncate_at": 5,
	})
	require.NoError(t, err)
	require.Len(t, f.Response.BodyBytes, 5)
}

func TestDataCorruptionStrategy_NonJSONBodyFlipsBytes(t *testing.T) {
	s, ok := New("data_corruption")
	require.True(t, ok)

	original := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	body := make([]byte, len(original))
	copy(body, original)

	f := newTestFlow()
	f.Response = &flowmodel.Response{Status: 200, BodyBytes: body}

	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{
		"flip_bytes": 8,
	})
	require.NoError(t, err)
	require.NotEqual(t, original, f.Response.BodyBytes)
	require.Len(t, f.Response.BodyBytes, len(original))
}

func TestDataCorruptionStrategy_EmptyBodyIsNoop(t *testing.T) {
	s, ok := New("data_corruption")
	require.True(t, ok)

	f := newTestFlow()
	f.Response = &flowmodel.Response{Status: 200}
	err := s.InterceptResponse(context.Background(), f, map[string]interface{}{})
	require.NoError(t, err)
	require.Empty(t, f.Metadata.AppliedStrategies)
}
