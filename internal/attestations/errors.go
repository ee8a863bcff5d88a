package attestations

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of rejection categories. Every rejection the
// pipeline produces is an *UploadError carrying one of these kinds; the
// request boundary owns the kind → status-code mapping.
type ErrorKind int

const (
	// ErrNoPublisher: the upload has no Trusted-Publisher context.
	ErrNoPublisher ErrorKind = iota

	// ErrUnsupportedPublisher: the publisher kind has no attestation support.
	ErrUnsupportedPublisher

	// ErrMalformed: the payload failed JSON or schema validation.
	ErrMalformed

	// ErrEmpty: the payload was an explicitly empty attestation array.
	ErrEmpty

	// ErrTooMany: more attestations than supported predicate types.
	ErrTooMany

	// ErrDuplicatePredicate: two attestations share a predicate type.
	ErrDuplicatePredicate

	// ErrUnsupportedPredicate: a predicate type outside the supported set.
	ErrUnsupportedPredicate

	// ErrVerificationFailed: the trust library rejected an attestation.
	ErrVerificationFailed

	// ErrInternal: an unexpected failure during verification. The original
	// cause goes to the fault tracker, never to the client.
	ErrInternal
)

// UploadError is the single externally visible error kind for every
// rejection in the pipeline. The Kind and structured fields distinguish
// categories; Error() renders the client-facing message.
type UploadError struct {
	Kind ErrorKind

	// PublisherKind is set for ErrUnsupportedPublisher.
	PublisherKind string

	// PredicateType is the offending predicate type, when applicable.
	PredicateType string

	// Limit is the attestation limit, set for ErrTooMany.
	Limit int

	// Detail is the human-readable cause for malformed and verification
	// failures.
	Detail string
}

func (e *UploadError) Error() string {
	switch e.Kind {
	case ErrNoPublisher:
		return "Attestations are only supported when using Trusted Publishing."
	case ErrUnsupportedPublisher:
		return fmt.Sprintf("Attestations are not currently supported with %s publishers.", e.PublisherKind)
	case ErrMalformed:
		return fmt.Sprintf("Malformed attestations: %s", e.Detail)
	case ErrEmpty:
		return "Malformed attestations: an empty attestation set is not permitted."
	case ErrTooMany:
		return fmt.Sprintf("A maximum of %d attestations per file are supported.", e.Limit)
	case ErrDuplicatePredicate:
		return fmt.Sprintf("Multiple attestations for the same file with the same predicate type (%s) are not supported", e.PredicateType)
	case ErrUnsupportedPredicate:
		return fmt.Sprintf("Attestation with unsupported predicate type: %s", e.PredicateType)
	case ErrVerificationFailed:
		return fmt.Sprintf("Could not verify the uploaded artifact using the included attestation: %s", e.Detail)
	case ErrInternal:
		return fmt.Sprintf("Unknown error while trying to verify included attestations: %s", e.Detail)
	}
	return "attestation upload rejected"
}

// AsUploadError unwraps err into an *UploadError when it is one.
func AsUploadError(err error) (*UploadError, bool) {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
