package main

import (
	"github.com/open-verix/integrity/internal/providers"
	"github.com/open-verix/integrity/internal/providers/verifier/sigstore"
)

// init registers the default verification providers. The verify command
// re-registers the sigstore provider with run-specific Rekor options.
func init() {
	providers.RegisterVerifier("sigstore", sigstore.NewProvider(sigstore.DefaultOptions()))
}
