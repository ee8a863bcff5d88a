package attestations

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-verix/integrity/internal/observe"
)

// Extractor decodes and structurally validates the raw attestations payload
// of an upload. It performs no cryptography: its output is a bounded list of
// attestation-shaped objects, in original order, ready for verification.
type Extractor struct {
	metrics observe.Sink
	limit   int
}

// NewExtractor creates an Extractor. The limit is the number of supported
// predicate types, which bounds how many attestations one file may carry.
func NewExtractor(metrics observe.Sink, limit int) *Extractor {
	if metrics == nil {
		metrics = observe.NopSink{}
	}
	return &Extractor{metrics: metrics, limit: limit}
}

// Extract validates the request and returns the parsed attestation list.
//
// Checks run in a fixed order, and the first failure wins:
//  1. the upload must carry a Trusted-Publisher context;
//  2. the publisher kind must support attestations;
//  3. the payload must parse as a list of attestation-shaped objects;
//  4. the list must be non-empty;
//  5. the list must not exceed the supported-predicate-type count.
//
// Extract never partially succeeds: any failure returns a nil list and an
// *UploadError.
func (e *Extractor) Extract(req *UploadRequest) ([]Attestation, error) {
	if req == nil || req.Publisher == nil {
		return nil, &UploadError{Kind: ErrNoPublisher}
	}

	if _, ok := req.Publisher.AttestationIdentity(); !ok {
		return nil, &UploadError{
			Kind:          ErrUnsupportedPublisher,
			PublisherKind: req.Publisher.Kind(),
		}
	}

	atts, err := parseList(req.Attestations)
	if err != nil {
		e.metrics.Increment(observe.MetricMalformed)
		return nil, &UploadError{Kind: ErrMalformed, Detail: err.Error()}
	}

	// An explicitly empty array is rejected; a missing attestations field is
	// a no-attestations upload and never reaches this extractor.
	if len(atts) == 0 {
		return nil, &UploadError{Kind: ErrEmpty}
	}

	if len(atts) > e.limit {
		e.metrics.Increment(observe.MetricFailedLimit)
		return nil, &UploadError{Kind: ErrTooMany, Limit: e.limit}
	}

	return atts, nil
}

// parseList strictly decodes the JSON array payload. Non-array top-level
// values (including null), unknown fields, and structurally invalid
// attestations are rejected.
func parseList(payload string) ([]Attestation, error) {
	if !strings.HasPrefix(strings.TrimSpace(payload), "[") {
		return nil, fmt.Errorf("attestations must be a JSON array")
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()

	var atts []Attestation
	if err := dec.Decode(&atts); err != nil {
		return nil, fmt.Errorf("unable to parse attestations: %v", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing data after attestation list")
	}

	for i, att := range atts {
		if err := validateShape(att); err != nil {
			return nil, fmt.Errorf("attestation at index %d is invalid: %v", i, err)
		}
	}
	return atts, nil
}

// validateShape checks the fields a structurally valid attestation must have.
func validateShape(att Attestation) error {
	if att.Version != 1 {
		return fmt.Errorf("unsupported attestation version %d", att.Version)
	}
	if att.VerificationMaterial.Certificate == "" {
		return fmt.Errorf("missing verification certificate")
	}
	if len(att.Envelope.Statement) == 0 {
		return fmt.Errorf("missing envelope statement")
	}
	if len(att.Envelope.Signature) == 0 {
		return fmt.Errorf("missing envelope signature")
	}
	return nil
}
