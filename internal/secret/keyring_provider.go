package secret

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	serviceName       = "chaosproxy"
	SecretTypeKeyring = "keyring"
)

// KeyringProvider resolves secrets from the OS keyring (Keychain, Secret
// Service, WinCred). Useful for operators who don't want plan params
// containing credentials even as environment variables.
type KeyringProvider struct {
	serviceName string
}

func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{serviceName: serviceName}
}

func (p *KeyringProvider) CanResolve(secretType string) bool {
	return secretType == SecretTypeKeyring
}

func (p *KeyringProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	if !p.CanResolve(ref.Type) {
		return "", fmt.Errorf("keyring provider cannot resolve secret type: %s", ref.Type)
	}
	value, err := keyring.Get(p.serviceName, ref.Name)
	if err != nil {
		return "", fmt.Errorf("keyring lookup failed for %s: %w", ref.Name, err)
	}
	return value, nil
}

func (p *KeyringProvider) IsAvailable() bool {
	// Probe with a lookup that is expected to miss; any error other than
	// "not found" indicates no keyring backend is reachable on this host.
	_, err := keyring.Get(p.serviceName, "__chaosproxy_probe__")
	return err == nil || err == keyring.ErrNotFound
}
