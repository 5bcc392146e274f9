// Package grant defines the ExceptionalGrant entity: a per-user,
// per-capability override that is independent of group membership and
// optionally time-bounded. A grant adds one capability; a revoke removes it
// and takes precedence over every other source.
package grant

import (
	"time"

	"github.com/jellydator/validation"

	"github.com/xraph/sentinel/id"
)

// Kind distinguishes additive grants from suppressing revokes.
type Kind string

// Grant kinds.
const (
	KindGrant  Kind = "grant"
	KindRevoke Kind = "revoke"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindGrant || k == KindRevoke
}

// Grant is an explicit per-user override of one capability. Multiple rows
// for the same (user, capability) may coexist; every currently-effective row
// is considered, and effective revokes always win over effective grants.
type Grant struct {
	ID             id.GrantID     `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	CapabilityCode string         `json:"capability_code" db:"capability_code"`
	Kind           Kind           `json:"kind" db:"kind"`
	StartAt        time.Time      `json:"start_at" db:"start_at"`
	EndAt          *time.Time     `json:"end_at,omitempty" db:"end_at"`
	Reason         string         `json:"reason" db:"reason"`
	AuthorizedBy   string         `json:"authorized_by" db:"authorized_by"`
	Active         bool           `json:"active" db:"active"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// EffectiveAt reports whether the grant is in force at the given time.
// The start boundary is inclusive and the end boundary is inclusive:
// effective iff active and startAt <= now and (endAt is nil or endAt >= now).
func (g *Grant) EffectiveAt(now time.Time) bool {
	if !g.Active {
		return false
	}
	if g.StartAt.After(now) {
		return false
	}
	return g.EndAt == nil || !g.EndAt.Before(now)
}

// Validate checks the grant for structural correctness. Creation requires a
// non-empty reason and an authorizing identity; EndAt, when present, must be
// strictly after StartAt.
func (g *Grant) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.UserID, validation.Required),
		validation.Field(&g.CapabilityCode, validation.Required),
		validation.Field(&g.Kind, validation.Required, validation.By(validateKind)),
		validation.Field(&g.Reason, validation.Required),
		validation.Field(&g.AuthorizedBy, validation.Required),
		validation.Field(&g.EndAt, validation.By(g.validateWindow)),
	)
}

func validateKind(value any) error {
	k, _ := value.(Kind)
	if !k.Valid() {
		return validation.NewError("validation_kind", "must be grant or revoke")
	}
	return nil
}

func (g *Grant) validateWindow(value any) error {
	end, _ := value.(*time.Time)
	if end != nil && !end.After(g.StartAt) {
		return validation.NewError("validation_time_window", "must be after start_at")
	}
	return nil
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	UserID         string `json:"user_id,omitempty"`
	CapabilityCode string `json:"capability_code,omitempty"`
	Kind           Kind   `json:"kind,omitempty"`
	Active         *bool  `json:"active,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}
