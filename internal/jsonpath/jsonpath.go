// Package jsonpath implements the small JSONPath subset used by
// body-mutation strategies: `$.a.b`, `$.a[*].b`, and `$[*]`. It is built on
// gjson for reads and sjson for writes rather than a full JSONPath engine,
// since the plan format never needs anything richer than dotted field
// access plus one level of array wildcarding per path.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type segment struct {
	name     string
	wildcard bool
}

// Parse compiles a path string into its segment form, returning an error
// for anything outside the documented subset.
func Parse(path string) ([]segment, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("jsonpath: path must start with '$': %q", path)
	}
	rest := strings.TrimPrefix(path, "$")
	rest = strings.TrimPrefix(rest, ".")
	if rest == "" {
		return nil, nil
	}

	tokens := strings.Split(rest, ".")
	segments := make([]segment, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("jsonpath: empty segment in path %q", path)
		}
		if strings.HasSuffix(tok, "[*]") {
			segments = append(segments, segment{name: strings.TrimSuffix(tok, "[*]"), wildcard: true})
			continue
		}
		if strings.Contains(tok, "[") || strings.Contains(tok, "]") {
			return nil, fmt.Errorf("jsonpath: unsupported segment %q (only trailing [*] is supported)", tok)
		}
		segments = append(segments, segment{name: tok})
	}
	return segments, nil
}

// Match is one matched leaf: Path is a concrete gjson/sjson path (array
// wildcards resolved to real indices) suitable for a follow-up write.
type Match struct {
	Path  string
	Value gjson.Result
}

// Eval evaluates a JSONPath-subset expression against a JSON document and
// returns every matching leaf.
func Eval(json, path string) ([]Match, error) {
	segments, err := Parse(path)
	if err != nil {
		return nil, err
	}
	root := gjson.Parse(json)
	return walk(root, segments, ""), nil
}

func walk(node gjson.Result, segments []segment, prefix string) []Match {
	if len(segments) == 0 {
		return []Match{{Path: prefix, Value: node}}
	}

	seg := segments[0]
	rest := segments[1:]

	if seg.wildcard {
		target := node
		newPrefix := prefix
		if seg.name != "" {
			target = node.Get(seg.name)
			newPrefix = joinPath(prefix, seg.name)
		}
		var matches []Match
		target.ForEach(func(key, value gjson.Result) bool {
			matches = append(matches, walk(value, rest, joinPath(newPrefix, key.String()))...)
			return true
		})
		return matches
	}

	child := node.Get(seg.name)
	return walk(child, rest, joinPath(prefix, seg.name))
}

func joinPath(prefix, next string) string {
	if prefix == "" {
		return next
	}
	return prefix + "." + next
}

// SetAll replaces every leaf matched by path with values drawn round-robin
// from replacements (overwrite mode for the phantom-document strategy).
// Returns the transformed document; the input is left untouched.
func SetAll(json, path string, replacements []string) (string, error) {
	matches, err := Eval(json, path)
	if err != nil {
		return "", err
	}
	if len(replacements) == 0 {
		return json, nil
	}

	result := json
	for i, m := range matches {
		value := replacements[i%len(replacements)]
		result, err = sjson.Set(result, m.Path, value)
		if err != nil {
			return "", fmt.Errorf("jsonpath: set %q: %w", m.Path, err)
		}
	}
	return result, nil
}

// Transform applies fn to every leaf matched by path and writes the
// result back, used by strategies that mutate numeric/boolean/date leaves
// in place (data corruption, cognitive hallucination).
func Transform(json, path string, fn func(gjson.Result) (interface{}, bool)) (string, error) {
	matches, err := Eval(json, path)
	if err != nil {
		return "", err
	}

	result := json
	for _, m := range matches {
		newValue, ok := fn(m.Value)
		if !ok {
			continue
		}
		result, err = sjson.Set(result, m.Path, newValue)
		if err != nil {
			return "", fmt.Errorf("jsonpath: transform %q: %w", m.Path, err)
		}
	}
	return result, nil
}
