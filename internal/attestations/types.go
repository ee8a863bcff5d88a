// Package attestations implements the upload-side handling of signed
// attestation statements: the wire format, the structural validation of
// untrusted payloads, and the error taxonomy shared by the whole
// extraction → verification → provenance pipeline.
package attestations

import (
	"bytes"
	"encoding/json"

	"github.com/open-verix/integrity/internal/publisher"
)

// Predicate type URIs accepted by the index.
const (
	// PredicateTypeSLSAProvenance is SLSA Provenance v1.0.
	PredicateTypeSLSAProvenance = "https://slsa.dev/provenance/v1"

	// PredicateTypePublish is the index's own publish attestation.
	PredicateTypePublish = "https://open-verix.dev/attestations/publish/v1"
)

// DefaultSupportedPredicateTypes is the fixed set of predicate types the
// production pipeline accepts. It also bounds how many attestations a single
// file may carry.
func DefaultSupportedPredicateTypes() []string {
	return []string{
		PredicateTypeSLSAProvenance,
		PredicateTypePublish,
	}
}

// Attestation is one signed statement submitted alongside an uploaded file.
//
// The shape mirrors what publishing clients send: a certificate plus
// transparency-log material, and a DSSE envelope holding the base64-encoded
// in-toto statement and its signature. Equality is by value.
type Attestation struct {
	// Version is the attestation schema version; only version 1 exists.
	Version int `json:"version"`

	// VerificationMaterial carries the signing certificate and the
	// transparency-log entries for this statement.
	VerificationMaterial VerificationMaterial `json:"verification_material"`

	// Envelope is the DSSE envelope over the in-toto statement.
	Envelope Envelope `json:"envelope"`
}

// VerificationMaterial carries everything needed to verify an envelope.
type VerificationMaterial struct {
	// Certificate is the PEM-encoded signing certificate.
	Certificate string `json:"certificate"`

	// TransparencyEntries are the raw transparency-log entries. Their inner
	// shape belongs to the transparency-log protocol and is not interpreted
	// during extraction.
	TransparencyEntries []json.RawMessage `json:"transparency_entries"`
}

// Envelope is the DSSE envelope: statement and signature are base64 strings
// on the wire, decoded bytes in memory.
type Envelope struct {
	Statement []byte `json:"statement"`
	Signature []byte `json:"signature"`
}

// Equal reports value equality of two attestations.
func (a Attestation) Equal(other Attestation) bool {
	if a.Version != other.Version {
		return false
	}
	if a.VerificationMaterial.Certificate != other.VerificationMaterial.Certificate {
		return false
	}
	if len(a.VerificationMaterial.TransparencyEntries) != len(other.VerificationMaterial.TransparencyEntries) {
		return false
	}
	for i, e := range a.VerificationMaterial.TransparencyEntries {
		if !bytes.Equal(e, other.VerificationMaterial.TransparencyEntries[i]) {
			return false
		}
	}
	return bytes.Equal(a.Envelope.Statement, other.Envelope.Statement) &&
		bytes.Equal(a.Envelope.Signature, other.Envelope.Signature)
}

// Distribution is the opaque descriptor of the uploaded artifact's bytes.
// It is passed through to the verification primitive untouched.
type Distribution struct {
	// Filename is the uploaded file's name.
	Filename string

	// SHA256 is the lowercase hex digest of the file contents.
	SHA256 string
}

// UploadRequest is the slice of an upload the integrity service sees: the
// trusted-publisher context (nil when the upload did not use Trusted
// Publishing) and the raw attestations payload, a JSON array string.
type UploadRequest struct {
	Publisher    TrustedPublisher
	Attestations string
}

// TrustedPublisher is the publisher capability consumed by the extractor.
// It is implemented by publisher.Publisher and by test doubles.
type TrustedPublisher interface {
	// Kind returns the human-readable publisher kind name.
	Kind() string

	// AttestationIdentity returns the expected signer identity, or false
	// when this publisher kind has no attestation support.
	AttestationIdentity() (publisher.Identity, bool)
}
