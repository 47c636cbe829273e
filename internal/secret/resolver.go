package secret

import (
	"context"
	"fmt"
	"strings"
)

// Resolver dispatches a Ref to whichever registered Provider handles its type.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver returns a Resolver with the env and keyring providers registered.
func NewResolver() *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.RegisterProvider(SecretTypeEnv, NewEnvProvider())
	r.RegisterProvider(SecretTypeKeyring, NewKeyringProvider())
	return r
}

// RegisterProvider adds or replaces the provider for a secret type. Strategy
// authors or tests may call this to stub resolution without touching the
// environment or a real keyring.
func (r *Resolver) RegisterProvider(secretType string, provider Provider) {
	r.providers[secretType] = provider
}

// Resolve resolves a single reference.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return "", fmt.Errorf("no provider registered for secret type %q", ref.Type)
	}
	return provider.Resolve(ctx, ref)
}

// ExpandString replaces every ${type:name} reference in input with its
// resolved value. A string with no references is returned unchanged.
func (r *Resolver) ExpandString(ctx context.Context, input string) (string, error) {
	if !IsRef(input) {
		return input, nil
	}
	result := input
	for _, ref := range FindRefs(input) {
		value, err := r.Resolve(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", ref.Original, err)
		}
		result = strings.ReplaceAll(result, ref.Original, value)
	}
	return result, nil
}
