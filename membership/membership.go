// Package membership defines the Membership entity (user→group binding).
package membership

import (
	"time"

	"github.com/jellydator/validation"

	"github.com/xraph/sentinel/id"
)

// Membership binds a user to a functional group, optionally time-bounded.
// The (user, group) pair is a natural key: re-assigning an existing pair
// updates expiration and metadata in place instead of creating a duplicate.
type Membership struct {
	ID         id.MembershipID `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	GroupID    id.GroupID      `json:"group_id" db:"group_id"`
	Active     bool            `json:"active" db:"active"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	AssignedBy string          `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt time.Time       `json:"assigned_at" db:"assigned_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
	Metadata   map[string]any  `json:"metadata,omitempty" db:"metadata"`
}

// EffectiveAt reports whether the membership is in force at the given time.
// The expiration boundary is exclusive on the upper end: a membership whose
// ExpiresAt equals now is already expired.
func (m *Membership) EffectiveAt(now time.Time) bool {
	if !m.Active {
		return false
	}
	return m.ExpiresAt == nil || m.ExpiresAt.After(now)
}

// Validate checks the membership for structural correctness.
func (m *Membership) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.UserID, validation.Required),
		validation.Field(&m.GroupID, validation.By(validateGroupID)),
	)
}

func validateGroupID(value any) error {
	gid, _ := value.(id.GroupID)
	if gid.IsNil() {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

// ListFilter contains filters for listing memberships.
type ListFilter struct {
	UserID  string      `json:"user_id,omitempty"`
	GroupID *id.GroupID `json:"group_id,omitempty"`
	Active  *bool       `json:"active,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Offset  int         `json:"offset,omitempty"`
}
