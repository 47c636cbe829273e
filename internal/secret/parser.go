package secret

import (
	"regexp"
	"strings"
)

// refPattern matches ${type:name} secret references inside plan param strings.
var refPattern = regexp.MustCompile(`\$\{([^:}]+):([^}]+)\}`)

// IsRef reports whether the string looks like a secret reference.
func IsRef(input string) bool {
	return refPattern.MatchString(input)
}

// ParseRef parses exactly one secret reference.
func ParseRef(input string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(input)
	if len(m) != 3 {
		return Ref{}, false
	}
	return Ref{
		Type:     strings.TrimSpace(m[1]),
		Name:     strings.TrimSpace(m[2]),
		Original: input,
	}, true
}

// FindRefs returns every secret reference embedded in input.
func FindRefs(input string) []Ref {
	matches := refPattern.FindAllStringSubmatch(input, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Ref{
			Type:     strings.TrimSpace(m[1]),
			Name:     strings.TrimSpace(m[2]),
			Original: m[0],
		})
	}
	return refs
}
