// Package fingerprint computes the deterministic request identity used to
// match recorded tape entries during playback.
package fingerprint

import (
	"net/url"
	"sort"
	"strings"

	"github.com/agentchaos/chaosproxy/internal/hash"
)

// volatileHeaders are excluded from stable_headers_hash because they vary
// request to request even when the logical request is identical.
var volatileHeaders = map[string]bool{
	"date":              true,
	"if-modified-since": true,
	"if-none-match":     true,
	"x-request-id":      true,
	"x-correlation-id":  true,
	"user-agent":        true,
	"authorization":     true,
}

// Fingerprint is the 4-tuple identity of a request, per spec.
type Fingerprint struct {
	Method             string `json:"method"`
	NormalizedURL      string `json:"normalized_url"`
	BodyHash           string `json:"body_hash"`
	StableHeadersHash  string `json:"stable_headers_hash"`
}

// Key returns a single string suitable for use as a map key or FIFO index.
func (f Fingerprint) Key() string {
	return f.Method + "\x00" + f.NormalizedURL + "\x00" + f.BodyHash + "\x00" + f.StableHeadersHash
}

// PartialKey is the (method, normalized_url) fallback index used by the
// tape Player when no exact fingerprint match exists.
func (f Fingerprint) PartialKey() string {
	return f.Method + "\x00" + f.NormalizedURL
}

// Options controls normalization behavior driven by the plan's replay_config.
type Options struct {
	// IgnoreParams are query parameter names stripped before hashing the URL.
	IgnoreParams []string
	// MaskedBody, if non-nil, is substituted for the raw body before hashing
	// (used by the Player to honor replay_config.ignore_paths on JSON bodies).
	MaskedBody []byte
}

// Compute derives a Fingerprint from a method, raw URL, headers, and body.
func Compute(method, rawURL string, headers map[string][]string, body []byte, opts Options) Fingerprint {
	normalizedURL := normalizeURL(rawURL, opts.IgnoreParams)

	hashInput := body
	if opts.MaskedBody != nil {
		hashInput = opts.MaskedBody
	}

	return Fingerprint{
		Method:            strings.ToLower(method),
		NormalizedURL:     normalizedURL,
		BodyHash:          hash.BytesHash(hashInput),
		StableHeadersHash: stableHeadersHash(headers),
	}
}

func normalizeURL(rawURL string, ignoreParams []string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Not a well-formed URL; hash it as an opaque string rather than
		// failing fingerprint computation outright.
		return rawURL
	}

	ignore := make(map[string]bool, len(ignoreParams))
	for _, p := range ignoreParams {
		ignore[p] = true
	}

	query := u.Query()
	for key := range query {
		if ignore[key] {
			query.Del(key)
		}
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sortedQuery strings.Builder
	for i, k := range keys {
		if i > 0 {
			sortedQuery.WriteByte('&')
		}
		values := query[k]
		sort.Strings(values)
		for j, v := range values {
			if j > 0 {
				sortedQuery.WriteByte('&')
			}
			sortedQuery.WriteString(k)
			sortedQuery.WriteByte('=')
			sortedQuery.WriteString(v)
		}
	}

	normalized := u.Scheme + "://" + u.Host + u.Path
	if sortedQuery.Len() > 0 {
		normalized += "?" + sortedQuery.String()
	}
	return normalized
}

func stableHeadersHash(headers map[string][]string) string {
	keys := make([]string, 0, len(headers))
	lowered := make(map[string]string, len(headers))
	for k := range headers {
		lk := strings.ToLower(k)
		if volatileHeaders[lk] {
			continue
		}
		keys = append(keys, lk)
		lowered[lk] = k
	}
	sort.Strings(keys)

	var parts []string
	for _, lk := range keys {
		values := headers[lowered[lk]]
		for _, v := range values {
			parts = append(parts, lk+":"+v)
		}
	}
	return hash.StringHash(strings.Join(parts, "\n"))
}
