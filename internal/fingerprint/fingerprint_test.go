package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompute_EmptyBodyHashesEmptyString(t *testing.T) {
	fp := Compute("GET", "http://x/a", nil, nil, Options{})
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", fp.BodyHash)
}

func TestCompute_QueryParamsSortedAndIgnored(t *testing.T) {
	fp1 := Compute("GET", "http://x/a?b=2&a=1&ts=99", nil, nil, Options{IgnoreParams: []string{"ts"}})
	fp2 := Compute("GET", "http://x/a?a=1&b=2&ts=1234", nil, nil, Options{IgnoreParams: []string{"ts"}})
	assert.Equal(t, fp1.NormalizedURL, fp2.NormalizedURL)
}

func TestCompute_VolatileHeadersExcluded(t *testing.T) {
	h1 := map[string][]string{
		"Authorization": {"Bearer abc"},
		"X-Request-ID":  {"req-1"},
		"Content-Type":  {"application/json"},
	}
	h2 := map[string][]string{
		"Authorization": {"Bearer xyz"},
		"X-Request-ID":  {"req-2"},
		"Content-Type":  {"application/json"},
	}
	fp1 := Compute("POST", "http://x/a", h1, []byte("{}"), Options{})
	fp2 := Compute("POST", "http://x/a", h2, []byte("{}"), Options{})
	assert.Equal(t, fp1.StableHeadersHash, fp2.StableHeadersHash)
}

func TestCompute_MethodLowercased(t *testing.T) {
	fp := Compute("GET", "http://x/a", nil, nil, Options{})
	assert.Equal(t, "get", fp.Method)
}

func TestFingerprint_StableAcrossRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		method := rapid.SampledFrom([]string{"GET", "POST", "PUT", "DELETE"}).Draw(t, "method")
		path := rapid.StringMatching(`/[a-z]{1,8}`).Draw(t, "path")
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")

		headers := map[string][]string{"Content-Type": {"application/json"}}
		fp1 := Compute(method, "http://example.com"+path, headers, body, Options{})
		fp2 := Compute(method, "http://example.com"+path, headers, body, Options{})

		require.Equal(t, fp1.Key(), fp2.Key())
	})
}
