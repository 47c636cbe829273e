package secret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_ExpandString_EnvRef(t *testing.T) {
	t.Setenv("CHAOS_TEST_SECRET", "s3cr3t")
	r := NewResolver()
	got, err := r.ExpandString(context.Background(), "token=${env:CHAOS_TEST_SECRET}")
	require.NoError(t, err)
	assert.Equal(t, "token=s3cr3t", got)
}

func TestResolver_ExpandString_NoRefPassesThrough(t *testing.T) {
	r := NewResolver()
	got, err := r.ExpandString(context.Background(), "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", got)
}

func TestResolver_UnknownProviderErrors(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve(context.Background(), Ref{Type: "vault", Name: "x"})
	assert.Error(t, err)
}

type stubProvider struct{ value string }

func (s *stubProvider) CanResolve(t string) bool { return t == "stub" }
func (s *stubProvider) Resolve(context.Context, Ref) (string, error) { return s.value, nil }
func (s *stubProvider) IsAvailable() bool { return true }

func TestResolver_RegisterProviderOverride(t *testing.T) {
	r := NewResolver()
	r.RegisterProvider("stub", &stubProvider{value: "stubbed"})
	got, err := r.ExpandString(context.Background(), "${stub:anything}")
	require.NoError(t, err)
	assert.Equal(t, "stubbed", got)
}

func TestParseRef(t *testing.T) {
	ref, ok := ParseRef("${env:FOO}")
	require.True(t, ok)
	assert.Equal(t, "env", ref.Type)
	assert.Equal(t, "FOO", ref.Name)
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("${env:FOO}"))
	assert.False(t, IsRef("plain"))
}
