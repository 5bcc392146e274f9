// Package audit defines the append-only audit Entry entity.
//
// Entries record authorization outcomes for capabilities flagged as
// audit-required and for every denial. The store contract has no update or
// delete operations: once written, an entry is immutable and is retained
// independently of later capability or group mutations.
package audit

import (
	"time"

	"github.com/xraph/sentinel/id"
)

// Outcome is the recorded authorization result.
type Outcome string

// Outcomes.
const (
	OutcomeGranted Outcome = "granted"
	OutcomeDenied  Outcome = "denied"
)

// Entry is a single immutable authorization audit record. UserID is empty
// for anonymous or system callers.
type Entry struct {
	ID             id.AuditEntryID `json:"id" db:"id"`
	UserID         string          `json:"user_id,omitempty" db:"user_id"`
	CapabilityCode string          `json:"capability_code" db:"capability_code"`
	Outcome        Outcome         `json:"outcome" db:"outcome"`
	Stage          string          `json:"stage,omitempty" db:"stage"`
	Reason         string          `json:"reason,omitempty" db:"reason"`
	ResourceID     string          `json:"resource_id,omitempty" db:"resource_id"`
	RequestIP      string          `json:"request_ip,omitempty" db:"request_ip"`
	UserAgent      string          `json:"user_agent,omitempty" db:"user_agent"`
	Metadata       map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	UserID         string     `json:"user_id,omitempty"`
	CapabilityCode string     `json:"capability_code,omitempty"`
	Outcome        Outcome    `json:"outcome,omitempty"`
	ResourceID     string     `json:"resource_id,omitempty"`
	After          *time.Time `json:"after,omitempty"`
	Before         *time.Time `json:"before,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	Offset         int        `json:"offset,omitempty"`
}
