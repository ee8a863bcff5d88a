// Package providers maintains the registry of verification providers.
package providers

import (
	"fmt"
	"sync"

	"github.com/open-verix/integrity/internal/providers/verifier"
)

var (
	// verifierProviders stores registered verification providers
	verifierProviders = make(map[string]verifier.Provider)
	verifierMutex     sync.RWMutex
)

// RegisterVerifier registers a verification provider by name.
// This should be called in init() functions of the binary wiring, e.g.:
//
//	providers.RegisterVerifier("sigstore", sigstore.NewProvider(opts))
func RegisterVerifier(name string, provider verifier.Provider) {
	verifierMutex.Lock()
	defer verifierMutex.Unlock()

	verifierProviders[name] = provider
}

// GetVerifier retrieves a registered verification provider by name.
// Returns an error if the provider is not found.
func GetVerifier(name string) (verifier.Provider, error) {
	verifierMutex.RLock()
	defer verifierMutex.RUnlock()

	provider, ok := verifierProviders[name]
	if !ok {
		return nil, &ProviderNotFoundError{Name: name}
	}

	return provider, nil
}

// ListVerifiers returns all registered verification provider names.
func ListVerifiers() []string {
	verifierMutex.RLock()
	defer verifierMutex.RUnlock()

	names := make([]string, 0, len(verifierProviders))
	for name := range verifierProviders {
		names = append(names, name)
	}

	return names
}

// ProviderNotFoundError is returned when a provider is not registered.
type ProviderNotFoundError struct {
	Name string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("verification provider not found: %s", e.Name)
}
