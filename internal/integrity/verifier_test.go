package integrity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/observe"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/providers/verifier/mock"
	"github.com/open-verix/integrity/internal/publisher"
)

func testIdentity() publisher.Identity {
	return publisher.GitHubIdentity{
		Repository: "acme/pkg",
		Workflow:   "release.yml",
	}
}

func testDistribution() attestations.Distribution {
	return attestations.Distribution{
		Filename: "pkg-1.0.0.tar.gz",
		SHA256:   "b5bb9d8014a0f9b1d61e21e796d78dccdf1352f23cd32812f4850b878ae4944c",
	}
}

// attWithStatement builds an attestation whose statement claims the given
// predicate type.
func attWithStatement(predicateType string) attestations.Attestation {
	return attestations.Attestation{
		Version: 1,
		VerificationMaterial: attestations.VerificationMaterial{
			Certificate: "cert",
		},
		Envelope: attestations.Envelope{
			Statement: []byte(fmt.Sprintf(`{"predicateType": %q, "predicate": {"ok": true}}`, predicateType)),
			Signature: []byte("sig"),
		},
	}
}

func TestVerifyAllSuccess(t *testing.T) {
	metrics := observe.NewRecorder()
	v := NewVerifier(mock.NewProvider(), metrics, nil, nil)

	var observed []string
	v.Observer = func(result *verifier.Verification) {
		observed = append(observed, result.PredicateType)
	}

	atts := []attestations.Attestation{
		attWithStatement(attestations.PredicateTypeSLSAProvenance),
		attWithStatement(attestations.PredicateTypePublish),
	}

	verified, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution())
	if err != nil {
		t.Fatalf("VerifyAll() error = %v", err)
	}
	if len(verified) != 2 || !verified[0].Equal(atts[0]) || !verified[1].Equal(atts[1]) {
		t.Errorf("VerifyAll() did not return the attestations in order")
	}
	if len(observed) != 2 || observed[0] != attestations.PredicateTypeSLSAProvenance {
		t.Errorf("Observer saw %v, want both predicate types in order", observed)
	}
	for _, metric := range []string{
		observe.MetricFailedVerify,
		observe.MetricUnsupportedPredicate,
		observe.MetricDuplicatePredicate,
	} {
		if got := metrics.Count(metric); got != 0 {
			t.Errorf("metric %s = %d, want 0", metric, got)
		}
	}
}

func TestVerifyAllVerificationFailure(t *testing.T) {
	metrics := observe.NewRecorder()
	faults := &observe.FaultRecorder{}

	provider := mock.NewProvider()
	provider.VerifyFunc = func(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error) {
		return nil, &verifier.VerificationError{Reason: "signature does not match"}
	}
	v := NewVerifier(provider, metrics, faults, nil)

	atts := []attestations.Attestation{attWithStatement(attestations.PredicateTypeSLSAProvenance)}
	_, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution())

	ue, ok := attestations.AsUploadError(err)
	if !ok || ue.Kind != attestations.ErrVerificationFailed {
		t.Fatalf("VerifyAll() error = %v, want ErrVerificationFailed", err)
	}
	want := "Could not verify the uploaded artifact using the included attestation: signature does not match"
	if ue.Error() != want {
		t.Errorf("VerifyAll() message = %q, want %q", ue.Error(), want)
	}
	if got := metrics.Count(observe.MetricFailedVerify); got != 1 {
		t.Errorf("metric %s = %d, want 1", observe.MetricFailedVerify, got)
	}
	if len(faults.Faults()) != 0 {
		t.Errorf("cryptographic rejection was captured as a fault")
	}
}

// timeoutError stands in for an unexpected transport failure.
type timeoutError struct{}

func (timeoutError) Error() string { return "transparency log lookup timed out" }

func TestVerifyAllInternalFailure(t *testing.T) {
	metrics := observe.NewRecorder()
	faults := &observe.FaultRecorder{}

	provider := mock.NewProvider()
	provider.VerifyFunc = func(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error) {
		return nil, timeoutError{}
	}
	v := NewVerifier(provider, metrics, faults, nil)

	atts := []attestations.Attestation{attWithStatement(attestations.PredicateTypeSLSAProvenance)}
	_, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution())

	ue, ok := attestations.AsUploadError(err)
	if !ok || ue.Kind != attestations.ErrInternal {
		t.Fatalf("VerifyAll() error = %v, want ErrInternal", err)
	}

	// Internal failures go to the fault tracker and never count as
	// verification failures.
	if got := metrics.Count(observe.MetricFailedVerify); got != 0 {
		t.Errorf("metric %s = %d, want 0", observe.MetricFailedVerify, got)
	}
	captured := faults.Faults()
	if len(captured) != 1 {
		t.Fatalf("captured %d faults, want 1", len(captured))
	}
	if !errors.Is(captured[0].Err, timeoutError{}) {
		t.Errorf("captured fault = %v, want the provider error", captured[0].Err)
	}
	wantFingerprint := fmt.Sprintf("%T", timeoutError{})
	if len(captured[0].Fingerprint) != 1 || captured[0].Fingerprint[0] != wantFingerprint {
		t.Errorf("fingerprint = %v, want [%s]", captured[0].Fingerprint, wantFingerprint)
	}
}

func TestVerifyAllUnsupportedPredicate(t *testing.T) {
	metrics := observe.NewRecorder()
	v := NewVerifier(mock.NewProvider(), metrics, nil, nil)

	atts := []attestations.Attestation{attWithStatement("https://example.com/custom/v1")}
	_, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution())

	ue, ok := attestations.AsUploadError(err)
	if !ok || ue.Kind != attestations.ErrUnsupportedPredicate {
		t.Fatalf("VerifyAll() error = %v, want ErrUnsupportedPredicate", err)
	}
	if ue.PredicateType != "https://example.com/custom/v1" {
		t.Errorf("PredicateType = %q, want the offending type", ue.PredicateType)
	}
	if got := metrics.Count(observe.MetricUnsupportedPredicate); got != 1 {
		t.Errorf("metric %s = %d, want 1", observe.MetricUnsupportedPredicate, got)
	}
}

func TestVerifyAllDuplicatePredicate(t *testing.T) {
	metrics := observe.NewRecorder()
	v := NewVerifier(mock.NewProvider(), metrics, nil, nil)

	atts := []attestations.Attestation{
		attWithStatement(attestations.PredicateTypeSLSAProvenance),
		attWithStatement(attestations.PredicateTypeSLSAProvenance),
	}
	_, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution())

	ue, ok := attestations.AsUploadError(err)
	if !ok || ue.Kind != attestations.ErrDuplicatePredicate {
		t.Fatalf("VerifyAll() error = %v, want ErrDuplicatePredicate", err)
	}
	if got := metrics.Count(observe.MetricDuplicatePredicate); got != 1 {
		t.Errorf("metric %s = %d, want 1", observe.MetricDuplicatePredicate, got)
	}
}

func TestVerifyAllFailsFast(t *testing.T) {
	calls := 0
	provider := mock.NewProvider()
	provider.VerifyFunc = func(ctx context.Context, att *attestations.Attestation, identity publisher.Identity, dist attestations.Distribution) (*verifier.Verification, error) {
		calls++
		return nil, &verifier.VerificationError{Reason: "bad certificate"}
	}
	v := NewVerifier(provider, observe.NewRecorder(), nil, nil)

	atts := []attestations.Attestation{
		attWithStatement(attestations.PredicateTypeSLSAProvenance),
		attWithStatement(attestations.PredicateTypePublish),
	}
	if _, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution()); err == nil {
		t.Fatalf("VerifyAll() succeeded, want failure")
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1 (fail fast)", calls)
	}
}

func TestVerifyAllSeenSetIsRequestScoped(t *testing.T) {
	v := NewVerifier(mock.NewProvider(), observe.NewRecorder(), nil, nil)

	atts := []attestations.Attestation{attWithStatement(attestations.PredicateTypeSLSAProvenance)}

	// The same predicate type across two calls must not count as a
	// duplicate.
	for i := 0; i < 2; i++ {
		if _, err := v.VerifyAll(context.Background(), atts, testIdentity(), testDistribution()); err != nil {
			t.Fatalf("VerifyAll() call %d error = %v", i+1, err)
		}
	}
}
