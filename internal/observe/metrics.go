// Package observe holds the observability capabilities the integrity service
// consumes: a metrics sink and a fault tracker. Both are external
// collaborators in production; the implementations here are the nop variants
// used in development plus an in-memory recorder shared by tests.
package observe

import "sync"

// Counter names emitted by the pipeline.
const (
	MetricMalformed            = "integrity.attestations.malformed"
	MetricFailedLimit          = "integrity.attestations.failed_limit_multiple_attestations"
	MetricFailedVerify         = "integrity.attestations.failed_verify"
	MetricUnsupportedPredicate = "integrity.attestations.failed_unsupported_predicate_type"
	MetricDuplicatePredicate   = "integrity.attestations.failed_duplicate_predicate_type"
	MetricBuildProvenanceOK    = "integrity.attestations.build_provenance.ok"
)

// Sink receives counter increments. Emission is fire-and-forget: a Sink must
// never block the caller or influence the pipeline's outcome.
type Sink interface {
	Increment(name string)
}

// NopSink discards all increments.
type NopSink struct{}

func (NopSink) Increment(string) {}

// Recorder is an in-memory Sink that counts increments per name.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int)}
}

// Increment records one increment for name.
func (r *Recorder) Increment(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

// Count returns how many times name was incremented.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}
