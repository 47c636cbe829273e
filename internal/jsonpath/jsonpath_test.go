package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestEval_SimpleDotPath(t *testing.T) {
	matches, err := Eval(`{"a":{"b":5}}`, "$.a.b")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(5), matches[0].Value.Int())
}

func TestEval_ArrayWildcard(t *testing.T) {
	matches, err := Eval(`{"results":[{"text":"A"},{"text":"B"}]}`, "$.results[*].text")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "A", matches[0].Value.String())
	assert.Equal(t, "B", matches[1].Value.String())
}

func TestEval_RootWildcard(t *testing.T) {
	matches, err := Eval(`[1,2,3]`, "$[*]")
	require.NoError(t, err)
	require.Len(t, matches, 3)
}

func TestEval_RejectsUnsupportedSyntax(t *testing.T) {
	_, err := Eval(`{}`, "$.a[0].b")
	assert.Error(t, err)
}

func TestSetAll_RoundRobinOverwrite(t *testing.T) {
	out, err := SetAll(`{"results":[{"text":"A"},{"text":"B"}]}`, "$.results[*].text", []string{"X", "Y"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"text":"X"},{"text":"Y"}]}`, out)
}

func TestSetAll_RoundRobinWrapsWhenFewerReplacements(t *testing.T) {
	out, err := SetAll(`{"results":[{"text":"A"},{"text":"B"},{"text":"C"}]}`, "$.results[*].text", []string{"X"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"text":"X"},{"text":"X"},{"text":"X"}]}`, out)
}

func TestTransform_SkipsWhenFnDeclines(t *testing.T) {
	out, err := Transform(`{"a":1,"b":2}`, "$.a", func(v gjson.Result) (interface{}, bool) {
		return nil, false
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2}`, out)
}
