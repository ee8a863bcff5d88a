package integrity

import (
	"context"
	"log"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/publisher"
)

// NullVerifier is the development AttestationVerifier. It accepts every
// structurally valid attestation as-is: no signatures are checked and no
// predicate-type policing happens. The extraction checks still apply because
// they run before any verifier is consulted.
type NullVerifier struct{}

// NewNullVerifier creates a NullVerifier and emits an operator-visible
// warning: this verifier provides no trust guarantee whatsoever.
func NewNullVerifier() *NullVerifier {
	log.Printf("integrity: null attestation verifier constructed; it performs NO cryptographic verification and must not be used in production")
	return &NullVerifier{}
}

// VerifyAll returns the input unchanged.
func (*NullVerifier) VerifyAll(ctx context.Context, atts []attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) ([]attestations.Attestation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return atts, nil
}
