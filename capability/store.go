package capability

import (
	"context"
	"errors"

	"github.com/xraph/sentinel/id"
)

// ErrNotFound is returned when a capability cannot be found. The evaluator
// collapses it into a deny; administrative callers surface it as-is.
var ErrNotFound = errors.New("sentinel: capability not found")

// Store defines persistence operations for capabilities.
type Store interface {
	// CreateCapability persists a new capability.
	CreateCapability(ctx context.Context, c *Capability) error

	// GetCapability retrieves a capability by ID.
	GetCapability(ctx context.Context, capID id.CapabilityID) (*Capability, error)

	// GetCapabilityByCode retrieves a capability by its unique code.
	GetCapabilityByCode(ctx context.Context, code string) (*Capability, error)

	// UpdateCapability persists changes to a capability.
	UpdateCapability(ctx context.Context, c *Capability) error

	// DeleteCapability removes a capability by ID.
	DeleteCapability(ctx context.Context, capID id.CapabilityID) error

	// ListCapabilities returns capabilities matching the filter.
	ListCapabilities(ctx context.Context, filter *ListFilter) ([]*Capability, error)

	// CountCapabilities returns the number of capabilities matching the filter.
	CountCapabilities(ctx context.Context, filter *ListFilter) (int64, error)
}
