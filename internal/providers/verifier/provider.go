// Package verifier defines the trust-library capability the integrity
// pipeline consumes: verifying a single attestation against an expected
// signer identity and an uploaded distribution.
package verifier

import (
	"context"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/publisher"
)

// Provider is the opaque signature-verification primitive.
//
// Implementations must:
// - Validate the signing certificate against their trust roots
// - Check the certificate identity against the expected publisher identity
// - Verify the envelope signature over the exact signed bytes
// - Check the statement subject against the uploaded distribution
//
// A cryptographic rejection is reported as *VerificationError; any other
// error is treated as an unexpected internal failure by the caller.
//
// Example implementation: Sigstore provider in internal/providers/verifier/sigstore/
type Provider interface {
	// Verify verifies one attestation. The ctx parameter is used for
	// cancellation of any transparency-log lookups the implementation
	// performs; no timeout or retry is applied by the caller.
	Verify(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*Verification, error)

	// Name returns the provider name (e.g., "sigstore")
	Name() string

	// Version returns the provider version
	Version() string
}

// Verification is the successful result of verifying one attestation.
type Verification struct {
	// PredicateType is the predicate type URI of the verified statement.
	PredicateType string `json:"predicate_type"`

	// Claims is the decoded predicate payload.
	Claims map[string]interface{} `json:"claims,omitempty"`
}

// VerificationError signals that an attestation failed cryptographic
// verification: a bad signature, an untrusted certificate, a signer identity
// that does not match the expected publisher, or a subject mismatch.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return e.Reason
}
