package integrity

import (
	"context"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/provenance"
)

// Service runs the full upload-side pipeline: extraction, verification, and
// provenance construction. The caller persists the returned record inside
// its own transaction.
//
// The pipeline is synchronous and per-request: no state is shared across
// calls, and the first failure aborts the run and surfaces as an
// *attestations.UploadError.
type Service struct {
	extractor *attestations.Extractor
	verifier  AttestationVerifier
	builder   *provenance.Builder
}

// NewService wires the pipeline components together.
func NewService(extractor *attestations.Extractor, verifier AttestationVerifier, builder *provenance.Builder) *Service {
	return &Service{
		extractor: extractor,
		verifier:  verifier,
		builder:   builder,
	}
}

// Process runs the pipeline for one upload.
//
// Steps:
//  1. Extract: decode and structurally validate the raw payload.
//  2. Verify: confirm every attestation against the publisher identity.
//  3. Build: assemble the provenance record for the caller to persist.
func (s *Service) Process(ctx context.Context, req *attestations.UploadRequest, dist attestations.Distribution, file *provenance.File) (*provenance.Record, error) {
	atts, err := s.extractor.Extract(req)
	if err != nil {
		return nil, err
	}

	// Extract guarantees the publisher and its identity are present.
	identity, _ := req.Publisher.AttestationIdentity()

	verified, err := s.verifier.VerifyAll(ctx, atts, identity, dist)
	if err != nil {
		return nil, err
	}

	return s.builder.Build(identity, verified, file)
}
