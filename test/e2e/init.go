package e2e

import (
	"github.com/open-verix/integrity/internal/providers"
	"github.com/open-verix/integrity/internal/providers/verifier/mock"
	"github.com/open-verix/integrity/internal/providers/verifier/sigstore"
)

// init registers the providers the E2E tests resolve through the registry.
func init() {
	providers.RegisterVerifier("sigstore", sigstore.NewProvider(sigstore.DefaultOptions()))
	providers.RegisterVerifier("mock", mock.NewProvider())
}
