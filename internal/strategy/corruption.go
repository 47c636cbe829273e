package strategy

import (
	"context"
	"math/rand/v2"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

func init() {
	Register("data_corruption", func() Strategy { return &DataCorruptionStrategy{} })
}

// DataCorruptionStrategy mutates a JSON response body's numeric and
// boolean leaves, or truncates it; for a non-JSON (binary) body it flips
// bytes at random offsets instead. params:
//
//	jitter_pct   float, default 0.1  — numeric leaves move by +/- this fraction
//	flip_prob    float, default 0.0  — per-boolean-leaf flip probability
//	truncate_at  int,   optional     — if set, body is cut to this many bytes
//	flip_bytes   int,   default 4    — binary-body byte flip count
type DataCorruptionStrategy struct {
	noOpRequest
}

func (s *DataCorruptionStrategy) Tag() string { return "data_corruption" }

func (s *DataCorruptionStrategy) InterceptResponse(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	resp := f.Response
	if resp == nil || len(resp.BodyBytes) == 0 {
		return nil
	}

	if _, ok := params["truncate_at"]; ok {
		n := paramInt(params, "truncate_at", len(resp.BodyBytes))
		if n < len(resp.BodyBytes) {
			resp.BodyBytes = resp.BodyBytes[:n]
		}
		f.Metadata.AddStrategy(s.Tag())
		return nil
	}

	jitterPct := paramFloat(params, "jitter_pct", 0.1)
	flipProb := paramFloat(params, "flip_prob", 0.0)

	mutated, ok := mutateJSONLeaves(resp.BodyBytes, func(leaf interface{}) interface{} {
		switch v := leaf.(type) {
		case float64:
			delta := v * jitterPct * (rand.Float64()*2 - 1)
			return v + delta
		case bool:
			if rand.Float64() < flipProb {
				return !v
			}
			return v
		default:
			return v
		}
	})
	if !ok {
		flipBytes := paramInt(params, "flip_bytes", 4)
		corruptBinary(resp.BodyBytes, flipBytes)
		f.Metadata.AddStrategy(s.Tag())
		return nil
	}

	resp.BodyBytes = mutated
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

// corruptBinary flips n random bytes of body in place via XOR against a
// random byte, so the result is neither guaranteed ASCII-printable nor
// reversible without the original.
func corruptBinary(body []byte, n int) {
	if len(body) == 0 {
		return
	}
	for i := 0; i < n; i++ {
		pos := rand.IntN(len(body))
		body[pos] ^= byte(rand.IntN(255) + 1)
	}
}
