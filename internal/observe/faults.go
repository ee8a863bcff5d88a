package observe

import (
	"log"
	"sync"
)

// Tracker receives unexpected internal failures for operator triage.
// Fingerprints group recurring failures by identity rather than by message.
type Tracker interface {
	Capture(err error, fingerprint []string)
}

// NopTracker discards captured faults.
type NopTracker struct{}

func (NopTracker) Capture(error, []string) {}

// LogTracker writes captured faults to the process log. It is the default
// tracker for the CLI, where no external fault-tracking service exists.
type LogTracker struct{}

func (LogTracker) Capture(err error, fingerprint []string) {
	log.Printf("integrity: captured fault %v (fingerprint %v)", err, fingerprint)
}

// CapturedFault is one Capture call recorded by a FaultRecorder.
type CapturedFault struct {
	Err         error
	Fingerprint []string
}

// FaultRecorder is an in-memory Tracker for tests.
type FaultRecorder struct {
	mu     sync.Mutex
	faults []CapturedFault
}

// Capture records the fault.
func (r *FaultRecorder) Capture(err error, fingerprint []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, CapturedFault{Err: err, Fingerprint: fingerprint})
}

// Faults returns a copy of the captured faults.
func (r *FaultRecorder) Faults() []CapturedFault {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CapturedFault, len(r.faults))
	copy(out, r.faults)
	return out
}
