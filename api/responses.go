package api

// AuthorizeResponse is the response for an authorization decision.
type AuthorizeResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether the request is allowed"`
	Stage      string `json:"stage" description:"Evaluation stage that settled the decision"`
	Reason     string `json:"reason,omitempty" description:"Human-readable reason"`
	Audited    bool   `json:"audited" description:"Whether an audit entry was recorded"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchAuthorizeResponse contains results for multiple authorization requests.
type BatchAuthorizeResponse struct {
	Results []AuthorizeResponse `json:"results" description:"Decisions in request order"`
}

// UserCapabilitiesResponse lists the capabilities a user currently holds.
type UserCapabilitiesResponse struct {
	UserID       string   `json:"user_id" description:"User identifier"`
	Capabilities []string `json:"capabilities" description:"Sorted capability codes"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
