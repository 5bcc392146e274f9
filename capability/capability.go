// Package capability defines the Capability entity and its store interface.
//
// A capability is the smallest addressable unit of permission, identified by
// a globally unique code in the form "domain.resource.action". Capabilities
// carry sensitivity metadata and an audit-required flag; an inactive
// capability is never grantable or checkable and evaluates to deny.
package capability

import (
	"regexp"
	"time"

	"github.com/jellydator/validation"

	"github.com/xraph/sentinel/id"
)

// Sensitivity classifies how sensitive a capability is.
type Sensitivity string

// Sensitivity levels, lowest to highest.
const (
	SensitivityLow      Sensitivity = "low"
	SensitivityNormal   Sensitivity = "normal"
	SensitivityHigh     Sensitivity = "high"
	SensitivityCritical Sensitivity = "critical"
)

// Valid reports whether s is a known sensitivity level.
func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityNormal, SensitivityHigh, SensitivityCritical:
		return true
	default:
		return false
	}
}

// Capability represents one addressable action on a resource.
type Capability struct {
	ID            id.CapabilityID `json:"id" db:"id"`
	Code          string          `json:"code" db:"code"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description,omitempty" db:"description"`
	Sensitivity   Sensitivity     `json:"sensitivity" db:"sensitivity"`
	RequiresAudit bool            `json:"requires_audit" db:"requires_audit"`
	Active        bool            `json:"active" db:"active"`
	Metadata      map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// codeRegexp matches "domain.resource.action" style codes: lowercase
// dot-separated segments of letters, digits, underscores and dashes.
var codeRegexp = regexp.MustCompile(`^[a-z0-9_-]+(\.[a-z0-9_-]+)+$`)

// Validate checks the capability for structural correctness.
func (c *Capability) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Code, validation.Required, validation.Match(codeRegexp)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Sensitivity, validation.Required, validation.By(validateSensitivity)),
	)
}

func validateSensitivity(value any) error {
	s, _ := value.(Sensitivity)
	if !s.Valid() {
		return validation.NewError("validation_sensitivity", "must be one of low, normal, high, critical")
	}
	return nil
}

// ListFilter contains filters for listing capabilities.
type ListFilter struct {
	Sensitivity   Sensitivity `json:"sensitivity,omitempty"`
	RequiresAudit *bool       `json:"requires_audit,omitempty"`
	Active        *bool       `json:"active,omitempty"`
	Search        string      `json:"search,omitempty"`
	Limit         int         `json:"limit,omitempty"`
	Offset        int         `json:"offset,omitempty"`
}
