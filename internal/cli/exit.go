package cli

import "github.com/open-verix/integrity/internal/attestations"

// ExitError represents a CLI error with an explicit exit code.
// Codes follow integrity semantics:
//
//	0 - success
//	1 - fatal error
//	2 - upload rejected by extraction or verification
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Exit codes
const (
	ExitSuccess  = 0
	ExitFatal    = 1
	ExitRejected = 2
)

// ExitCode maps any error to an exit code. Upload rejections map to 2, the
// CLI equivalent of the service's 4xx responses; everything else is fatal.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if ee, ok := err.(*ExitError); ok {
		return ee.Code
	}
	if _, ok := attestations.AsUploadError(err); ok {
		return ExitRejected
	}
	return ExitFatal
}
