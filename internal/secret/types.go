// Package secret resolves ${type:name} references inside chaos plan
// params (e.g. a RAG misinformation source API key, a webhook credential)
// without embedding a production secrets vault — only environment
// variables and the OS keyring are supported.
package secret

import "context"

// Ref is a parsed secret reference, e.g. "${env:WEBHOOK_TOKEN}".
type Ref struct {
	Type     string // env, keyring
	Name     string
	Original string
}

// Provider resolves one class of secret reference.
type Provider interface {
	CanResolve(secretType string) bool
	Resolve(ctx context.Context, ref Ref) (string, error)
	IsAvailable() bool
}
