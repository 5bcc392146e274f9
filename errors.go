package sentinel

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("sentinel: access denied")

	// ErrCapabilityInactive is returned when a mutation references a
	// deactivated capability.
	ErrCapabilityInactive = errors.New("sentinel: capability is inactive")

	// ErrGroupInactive is returned when assigning a deactivated group.
	ErrGroupInactive = errors.New("sentinel: group is inactive")

	// ErrInvalidTimeWindow is returned when an expiration bound does not lie
	// in the future of its reference time.
	ErrInvalidTimeWindow = errors.New("sentinel: expiration must be in the future")
)

// AuditError reports that the audit write failed after the authorization
// decision was already computed. The decision stands, since an audit failure
// never flips an outcome, and the caller chooses whether to retry the write or
// escalate.
type AuditError struct {
	Decision *Decision
	Err      error
}

// Error implements the error interface.
func (e *AuditError) Error() string {
	return "sentinel: audit write failed: " + e.Err.Error()
}

// Unwrap returns the underlying storage error.
func (e *AuditError) Unwrap() error { return e.Err }
