package audit

import (
	"context"
	"errors"

	"github.com/xraph/sentinel/id"
)

// ErrNotFound is returned when an audit entry cannot be found.
var ErrNotFound = errors.New("sentinel: audit entry not found")

// Store defines persistence operations for audit entries. The interface is
// append-only by construction: there is no update, delete, or purge method,
// so immutability is enforced by the contract surface rather than by
// convention. CreateAuditEntry must be safe for concurrent use from many
// evaluation calls without losing entries.
type Store interface {
	// CreateAuditEntry persists a new audit entry.
	CreateAuditEntry(ctx context.Context, e *Entry) error

	// GetAuditEntry retrieves an audit entry by ID.
	GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*Entry, error)

	// ListAuditEntries returns audit entries matching the filter.
	ListAuditEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountAuditEntries returns the number of entries matching the filter.
	CountAuditEntries(ctx context.Context, filter *QueryFilter) (int64, error)
}
