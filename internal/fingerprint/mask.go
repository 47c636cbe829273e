package fingerprint

import "github.com/agentchaos/chaosproxy/internal/jsonpath"

const maskSentinel = "***MASKED***"

// MaskPaths substitutes maskSentinel for every leaf body matches under any
// of paths, for use as Options.MaskedBody when replay_config.ignore_paths
// is set. If body isn't valid JSON, or paths is empty, body is returned
// unchanged — only JSON request bodies support path masking.
func MaskPaths(body []byte, paths []string) []byte {
	if len(paths) == 0 || len(body) == 0 {
		return body
	}

	masked := string(body)
	for _, path := range paths {
		out, err := jsonpath.SetAll(masked, path, []string{maskSentinel})
		if err != nil {
			continue
		}
		masked = out
	}
	return []byte(masked)
}
