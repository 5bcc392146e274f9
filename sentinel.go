// Package sentinel provides capability-based permission evaluation for Go.
//
// Given a user and a required capability code, the engine decides allow/deny
// with a fixed precedence order (exceptional revoke, then exceptional
// grant, then group-derived capabilities, then default deny) and records
// the outcome for capabilities flagged as audit-required.
//
//	eng, err := sentinel.NewEngine(
//	    sentinel.WithStore(memStore),
//	)
//	dec, err := eng.Authorize(ctx, &sentinel.AuthorizeRequest{
//	    UserID:     "user_123",
//	    Capability: "ops.calls.make",
//	})
package sentinel

// AuthorizeRequest is the input to an authorization decision.
type AuthorizeRequest struct {
	UserID     string         `json:"user_id"`
	Capability string         `json:"capability"`
	ResourceID string         `json:"resource_id,omitempty"`
	RequestIP  string         `json:"request_ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Stage names the evaluation step that settled a decision. Stages run in a
// fixed order and the first one to return a verdict wins, which is what
// makes the precedence contract (revoke > grant > group > default deny)
// explicit rather than an accident of control flow.
type Stage string

// Evaluation stages, in pipeline order.
const (
	// StageCatalog resolves the capability; unknown or inactive codes are
	// denied here (fail closed).
	StageCatalog Stage = "catalog"

	// StageRevoke denies when a currently-effective exceptional revoke
	// exists. Absolute precedence: evaluated before any group lookup.
	StageRevoke Stage = "revoke"

	// StageGrant allows when a currently-effective exceptional grant exists.
	StageGrant Stage = "grant"

	// StageGroup allows when any effective group membership carries the
	// capability.
	StageGroup Stage = "group"

	// StageDefault is the fall-through deny: absence of evidence is not
	// evidence of access.
	StageDefault Stage = "default"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Stage      Stage  `json:"stage"`
	Reason     string `json:"reason,omitempty"`
	Audited    bool   `json:"audited"`
	EvalTimeNs int64  `json:"eval_time_ns"`
}
