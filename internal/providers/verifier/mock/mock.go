// Package mock provides a configurable verifier.Provider for tests.
package mock

import (
	"context"
	"encoding/json"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/publisher"
)

// Provider is a mock verification provider for testing.
type Provider struct {
	// VerifyFunc allows tests to customize the Verify behavior.
	VerifyFunc func(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error)

	// NameValue is the provider name returned by Name().
	NameValue string
}

// NewProvider creates a mock provider with default behavior: every
// attestation verifies successfully, and the predicate type is read straight
// from the (unverified) statement.
func NewProvider() *Provider {
	return &Provider{NameValue: "mock"}
}

// Verify runs VerifyFunc when set, otherwise the default behavior.
func (p *Provider) Verify(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error) {
	if p.VerifyFunc != nil {
		return p.VerifyFunc(ctx, att, identity, dist)
	}
	return defaultVerify(ctx, att)
}

// Name returns the provider name.
func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

// Version returns the provider version.
func (p *Provider) Version() string { return "1.0.0" }

// defaultVerify accepts the attestation and reports the predicate type its
// statement claims.
func defaultVerify(ctx context.Context, att *attestations.Attestation) (*verifier.Verification, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var stmt struct {
		PredicateType string                 `json:"predicateType"`
		Predicate     map[string]interface{} `json:"predicate"`
	}
	if err := json.Unmarshal(att.Envelope.Statement, &stmt); err != nil {
		return nil, &verifier.VerificationError{Reason: "statement is not valid JSON"}
	}

	predicateType := stmt.PredicateType
	if predicateType == "" {
		predicateType = attestations.PredicateTypePublish
	}
	return &verifier.Verification{
		PredicateType: predicateType,
		Claims:        stmt.Predicate,
	}, nil
}
