// Package integrity implements the attestation verification and provenance
// pipeline run for each upload: extraction has already shaped the input, and
// this package makes the trust decisions and produces the provenance record
// the caller persists.
package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/observe"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/publisher"
)

// AttestationVerifier confirms a structurally valid attestation list against
// an expected signer identity. Implemented by the production Verifier and by
// NullVerifier.
type AttestationVerifier interface {
	// VerifyAll verifies every attestation, left to right, failing fast on
	// the first rejection. On success it returns the same attestations in
	// their original order.
	VerifyAll(ctx context.Context, atts []attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) ([]attestations.Attestation, error)
}

// Verifier is the production AttestationVerifier. Each attestation is
// checked by the trust library, and its predicate type must be supported and
// unique within the request.
type Verifier struct {
	provider  verifier.Provider
	metrics   observe.Sink
	faults    observe.Tracker
	supported []string

	// Observer, when set, receives each successful per-attestation
	// verification result. The pipeline outcome never depends on it; the
	// CLI uses it to feed policy evaluation.
	Observer func(*verifier.Verification)
}

// NewVerifier creates a production verifier. The supported predicate types
// are fixed at construction; nil means the default set.
func NewVerifier(provider verifier.Provider, metrics observe.Sink, faults observe.Tracker, supported []string) *Verifier {
	if metrics == nil {
		metrics = observe.NopSink{}
	}
	if faults == nil {
		faults = observe.NopTracker{}
	}
	if supported == nil {
		supported = attestations.DefaultSupportedPredicateTypes()
	}
	return &Verifier{
		provider:  provider,
		metrics:   metrics,
		faults:    faults,
		supported: supported,
	}
}

// VerifyAll verifies the attestation list against the expected identity.
//
// Processing stops at the first failure. The seen-set of predicate types is
// request-scoped: it is allocated here and discarded when the call returns.
func (v *Verifier) VerifyAll(ctx context.Context, atts []attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) ([]attestations.Attestation, error) {
	seen := make(map[string]struct{}, len(atts))

	for i := range atts {
		result, err := v.provider.Verify(ctx, &atts[i], identity, dist)
		if err != nil {
			var verr *verifier.VerificationError
			if errors.As(err, &verr) {
				v.metrics.Increment(observe.MetricFailedVerify)
				return nil, &attestations.UploadError{
					Kind:   attestations.ErrVerificationFailed,
					Detail: verr.Reason,
				}
			}

			// Unexpected failure: the original cause goes to the fault
			// tracker only; the client sees a generic message.
			v.faults.Capture(err, []string{fmt.Sprintf("%T", err)})
			return nil, &attestations.UploadError{
				Kind:   attestations.ErrInternal,
				Detail: err.Error(),
			}
		}

		if !v.isSupported(result.PredicateType) {
			v.metrics.Increment(observe.MetricUnsupportedPredicate)
			return nil, &attestations.UploadError{
				Kind:          attestations.ErrUnsupportedPredicate,
				PredicateType: result.PredicateType,
			}
		}

		if _, dup := seen[result.PredicateType]; dup {
			v.metrics.Increment(observe.MetricDuplicatePredicate)
			return nil, &attestations.UploadError{
				Kind:          attestations.ErrDuplicatePredicate,
				PredicateType: result.PredicateType,
			}
		}
		seen[result.PredicateType] = struct{}{}

		if v.Observer != nil {
			v.Observer(result)
		}
	}

	return atts, nil
}

// isSupported reports membership in the fixed supported set.
func (v *Verifier) isSupported(predicateType string) bool {
	for _, t := range v.supported {
		if t == predicateType {
			return true
		}
	}
	return false
}
