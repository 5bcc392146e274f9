// Package group defines the functional Group entity and its store interface.
//
// A group is a named, non-hierarchical bundle of capability codes. Users may
// belong to any number of groups simultaneously; the capability sets of all
// effective groups are unioned with no conflict resolution.
package group

import (
	"time"

	"github.com/jellydator/validation"

	"github.com/xraph/sentinel/id"
)

// Group is a named bundle of capabilities.
type Group struct {
	ID          id.GroupID     `json:"id" db:"id"`
	Code        string         `json:"code" db:"code"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description,omitempty" db:"description"`
	Active      bool           `json:"active" db:"active"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Validate checks the group for structural correctness.
func (g *Group) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.Code, validation.Required, validation.Length(1, 128)),
		validation.Field(&g.Name, validation.Required),
	)
}

// ListFilter contains filters for listing groups.
type ListFilter struct {
	Active *bool  `json:"active,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
