// Package sigstore implements the production attestation verification
// capability on top of Sigstore certificate material: Fulcio-issued signing
// certificates, DSSE envelopes over in-toto statements, and Rekor
// transparency entries.
package sigstore

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/secure-systems-lab/go-securesystemslib/dsse"
	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/publisher"
)

// payloadType is the DSSE payload type for in-toto statements.
const payloadType = "application/vnd.in-toto+json"

// providerVersion identifies this provider implementation, independent of
// the library versions it builds on.
const providerVersion = "1.0.0"

// Fulcio certificate extensions (OID 1.3.6.1.4.1.57264.1.*).
var (
	oidIssuerV1 = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 57264, 1, 1}
	oidIssuerV2 = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 57264, 1, 8}
)

// Options configures the Sigstore provider.
type Options struct {
	// RekorURL is the transparency log base URL.
	RekorURL string

	// CheckTransparency enables online inclusion-proof lookups for the
	// transparency entries submitted with each attestation. Disabled in
	// offline deployments.
	CheckTransparency bool

	// TrustRootsPEM overrides the embedded Sigstore roots with PEM-encoded
	// CA certificates. Private deployments and tests set it; empty means
	// the embedded roots.
	TrustRootsPEM string
}

// DefaultOptions returns the default provider options.
func DefaultOptions() Options {
	return Options{
		RekorURL:          "https://rekor.sigstore.dev",
		CheckTransparency: false,
	}
}

// Provider implements verifier.Provider using Sigstore trust material.
type Provider struct {
	rekor *RekorClient
	roots *x509.CertPool
	opts  Options
}

// NewProvider creates a Sigstore-backed verification provider.
func NewProvider(opts Options) *Provider {
	roots := sigstoreRootPool()
	if opts.TrustRootsPEM != "" {
		roots = x509.NewCertPool()
		roots.AppendCertsFromPEM([]byte(opts.TrustRootsPEM))
	}
	return &Provider{
		rekor: NewRekorClient(opts.RekorURL),
		roots: roots,
		opts:  opts,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return "sigstore" }

// Version returns the provider version.
func (p *Provider) Version() string { return providerVersion }

// Verify verifies a single attestation against the expected publisher
// identity and the uploaded distribution.
//
// Verification steps:
//  1. Parse the signing certificate and validate it (expiry, Fulcio
//     extensions).
//  2. Extract the signer identity from the certificate and match it against
//     the expected publisher identity.
//  3. Verify the ECDSA signature over the DSSE pre-authentication encoding
//     of the statement.
//  4. Decode the in-toto statement and check its subject digest against the
//     distribution.
//  5. When enabled, check the submitted transparency entries against Rekor.
//
// Cryptographic rejections return *verifier.VerificationError; transport and
// other unexpected failures return plain errors.
func (p *Provider) Verify(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error) {
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM([]byte(att.VerificationMaterial.Certificate))
	if err != nil || len(certs) == 0 {
		return nil, &verifier.VerificationError{Reason: "unable to parse signing certificate"}
	}
	leaf := certs[0]

	if err := validateLeafCertificate(leaf, certs[1:], p.roots, time.Now()); err != nil {
		return nil, &verifier.VerificationError{Reason: err.Error()}
	}

	subject, issuer := signerIdentity(leaf)
	if err := matchIdentity(identity, subject, issuer); err != nil {
		return nil, &verifier.VerificationError{Reason: err.Error()}
	}

	if err := verifySignature(leaf, att.Envelope.Statement, att.Envelope.Signature); err != nil {
		return nil, &verifier.VerificationError{Reason: err.Error()}
	}

	stmt, err := decodeStatement(att.Envelope.Statement)
	if err != nil {
		return nil, &verifier.VerificationError{Reason: err.Error()}
	}

	if err := matchSubject(stmt, dist); err != nil {
		return nil, &verifier.VerificationError{Reason: err.Error()}
	}

	if err := p.checkTransparency(ctx, att.VerificationMaterial.TransparencyEntries); err != nil {
		// Transparency failures are transport-level and surface as
		// unexpected errors rather than cryptographic rejections.
		return nil, err
	}

	claims, _ := stmt.Predicate.(map[string]interface{})
	return &verifier.Verification{
		PredicateType: stmt.PredicateType,
		Claims:        claims,
	}, nil
}

// signerIdentity extracts the certificate's signer subject and OIDC issuer.
// The subject comes from the SAN; the issuer from the Fulcio extensions,
// preferring the DER-encoded v2 OID over the raw-value v1 OID.
func signerIdentity(cert *x509.Certificate) (subject, issuer string) {
	if len(cert.URIs) > 0 {
		subject = cert.URIs[0].String()
	} else if len(cert.EmailAddresses) > 0 {
		subject = cert.EmailAddresses[0]
	}

	for _, ext := range cert.Extensions {
		switch {
		case ext.Id.Equal(oidIssuerV2):
			var s string
			if _, err := asn1.Unmarshal(ext.Value, &s); err == nil {
				issuer = s
			}
		case ext.Id.Equal(oidIssuerV1) && issuer == "":
			issuer = string(ext.Value)
		}
	}
	return subject, issuer
}

// matchIdentity checks the certificate identity against the expected
// publisher identity. Subjects in certificates carry a trailing ref
// ("@refs/heads/main"), so matching is exact or at the "@" boundary.
func matchIdentity(expected publisher.Identity, subject, issuer string) error {
	if subject == "" {
		return fmt.Errorf("no signer subject in certificate")
	}
	if issuer != expected.Issuer() {
		return fmt.Errorf("certificate issuer %q does not match expected issuer %q", issuer, expected.Issuer())
	}
	want := expected.Subject()
	if subject != want && !strings.HasPrefix(subject, want+"@") {
		return fmt.Errorf("certificate subject %q does not match expected signer %q", subject, want)
	}
	return nil
}

// verifySignature verifies the ECDSA signature over the DSSE
// pre-authentication encoding of the statement.
func verifySignature(cert *x509.Certificate, statement, signature []byte) error {
	// Parse ECDSA signature (ASN.1 DER: SEQUENCE { r INTEGER, s INTEGER }).
	var ecdsaSig struct {
		R, S *big.Int
	}
	if _, err := asn1.Unmarshal(signature, &ecdsaSig); err != nil {
		return fmt.Errorf("unable to parse signature: %v", err)
	}

	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate key is not ECDSA (got %T)", cert.PublicKey)
	}

	pae := dsse.PAE(payloadType, statement)
	digest := sha256.Sum256(pae)

	if !ecdsa.Verify(pub, digest[:], ecdsaSig.R, ecdsaSig.S) {
		return fmt.Errorf("signature does not match statement")
	}
	return nil
}

// decodeStatement decodes the signed bytes into an in-toto statement.
func decodeStatement(raw []byte) (*in_toto.Statement, error) {
	var stmt in_toto.Statement
	if err := json.Unmarshal(raw, &stmt); err != nil {
		return nil, fmt.Errorf("envelope does not contain a valid statement: %v", err)
	}
	if !strings.HasPrefix(stmt.Type, "https://in-toto.io/Statement/") {
		return nil, fmt.Errorf("unexpected statement type: %q", stmt.Type)
	}
	if stmt.PredicateType == "" {
		return nil, fmt.Errorf("statement has no predicate type")
	}
	return &stmt, nil
}

// matchSubject checks the statement subject against the uploaded
// distribution: the sha256 digest must match, and a named subject must name
// the uploaded file.
func matchSubject(stmt *in_toto.Statement, dist attestations.Distribution) error {
	if len(stmt.Subject) == 0 {
		return fmt.Errorf("statement has no subject")
	}
	for _, sub := range stmt.Subject {
		digest, ok := sub.Digest["sha256"]
		if !ok {
			continue
		}
		if digest == dist.SHA256 && (sub.Name == "" || sub.Name == dist.Filename) {
			return nil
		}
	}
	return fmt.Errorf("statement subject does not match uploaded distribution %s", dist.Filename)
}

// checkTransparency validates the submitted transparency entries. Entries
// must at least decode and carry a structurally valid inclusion proof; when
// online checks are enabled each entry is also looked up in the log.
func (p *Provider) checkTransparency(ctx context.Context, entries []json.RawMessage) error {
	for i, raw := range entries {
		var entry TransparencyEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("failed to decode transparency entry %d: %w", i, err)
		}
		if entry.InclusionProof != nil {
			if err := entry.InclusionProof.validate(); err != nil {
				return fmt.Errorf("transparency entry %d: %w", i, err)
			}
		}
		if p.opts.CheckTransparency {
			if err := p.rekor.VerifyEntry(ctx, &entry); err != nil {
				return fmt.Errorf("transparency entry %d: %w", i, err)
			}
		}
	}
	return nil
}
