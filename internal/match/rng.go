package match

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

// FlowRNG seeds a deterministic per-flow random source from
// HMAC-SHA256(experiment_id, fingerprint), so the same (experiment,
// fingerprint) pair always draws the same probability sequence under
// record and replay.
func FlowRNG(experimentID, fingerprintKey string) *rand.Rand {
	mac := hmac.New(sha256.New, []byte(experimentID))
	mac.Write([]byte(fingerprintKey))
	digest := mac.Sum(nil)

	seed1 := binary.BigEndian.Uint64(digest[0:8])
	seed2 := binary.BigEndian.Uint64(digest[8:16])
	return rand.New(rand.NewPCG(seed1, seed2))
}
