// Package provenance assembles verified attestations and publisher identity
// into the provenance record persisted alongside an uploaded file, and
// serves the read-side digest of previously stored provenance.
package provenance

import (
	"encoding/json"
	"fmt"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/observe"
	"github.com/open-verix/integrity/internal/publisher"
)

// AttestationBundle groups the attestations verified against one publisher
// identity. Bundles are created fresh per build call and never mutated.
type AttestationBundle struct {
	Publisher    publisher.Identity         `json:"-"`
	Attestations []attestations.Attestation `json:"attestations"`
}

// bundleWire is the JSON form of a bundle; the publisher identity is encoded
// through its kind-discriminated envelope.
type bundleWire struct {
	Publisher    json.RawMessage            `json:"publisher"`
	Attestations []attestations.Attestation `json:"attestations"`
}

// MarshalJSON encodes the bundle with its publisher envelope.
func (b AttestationBundle) MarshalJSON() ([]byte, error) {
	pub, err := publisher.EncodeIdentity(b.Publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bundle publisher: %w", err)
	}
	return json.Marshal(bundleWire{
		Publisher:    pub,
		Attestations: b.Attestations,
	})
}

// UnmarshalJSON decodes the bundle, restoring the concrete publisher
// identity variant.
func (b *AttestationBundle) UnmarshalJSON(data []byte) error {
	var wire bundleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := publisher.DecodeIdentity(wire.Publisher)
	if err != nil {
		return fmt.Errorf("failed to decode bundle publisher: %w", err)
	}
	b.Publisher = id
	b.Attestations = wire.Attestations
	return nil
}

// Provenance is the value object serialized into the persisted record.
// Today it always holds exactly one bundle; the shape allows more.
type Provenance struct {
	AttestationBundles []AttestationBundle `json:"attestation_bundles"`
}

// Record is the persisted provenance entity: one row per file, keyed by the
// file ID. The at-most-one-per-file invariant is enforced by a uniqueness
// constraint at the storage layer, not here.
type Record struct {
	FileID   string          `json:"file_id"`
	Document json.RawMessage `json:"provenance"`
}

// File is the uploaded artifact as seen by this package: the denormalized
// fields the pipeline reads plus its zero-or-one provenance record.
type File struct {
	ID           string
	Path         string
	PublisherURL string

	// Attestations is the denormalized list of attestation digests; empty
	// means the file was uploaded without attestations.
	Attestations []string

	Provenance *Record
}

// Builder assembles provenance records from verified attestations.
type Builder struct {
	metrics observe.Sink
}

// NewBuilder creates a Builder.
func NewBuilder(metrics observe.Sink) *Builder {
	if metrics == nil {
		metrics = observe.NopSink{}
	}
	return &Builder{metrics: metrics}
}

// Build constructs the persisted provenance record binding file to the
// verified attestations and their publisher identity.
//
// Build does not commit anything: persistence belongs to the caller's
// transaction, and building twice for the same file yields two records whose
// second commit will violate the storage-layer uniqueness constraint.
func (b *Builder) Build(identity publisher.Identity, atts []attestations.Attestation, file *File) (*Record, error) {
	if file == nil {
		return nil, fmt.Errorf("file is required to build provenance")
	}

	prov := Provenance{
		AttestationBundles: []AttestationBundle{
			{
				Publisher:    identity,
				Attestations: atts,
			},
		},
	}

	doc, err := json.Marshal(prov)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize provenance: %w", err)
	}

	b.metrics.Increment(observe.MetricBuildProvenanceOK)

	return &Record{
		FileID:   file.ID,
		Document: doc,
	}, nil
}
