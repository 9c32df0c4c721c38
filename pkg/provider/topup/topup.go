// Package topup defines the uniform contract over external top-up
// fulfilment APIs and the rules that normalize their responses.
package topup

import (
	"context"
)

// State is a provider-side order state in the core vocabulary.
type State string

const (
	StateSuccess State = "success"
	StatePending State = "pending"
	StateFailed  State = "failed"
	StateUnknown State = "unknown"
)

// Failure kinds recorded in audit metadata.
const (
	FailureTransport = "transport"
	FailureBusiness  = "business"
)

// SubmitRequest carries everything a provider needs to deliver a pack.
type SubmitRequest struct {
	OrderID   string
	GameCode  string
	ProductID string
	UserID    string
	ServerID  string
	Contact   string
}

// ValidateRequest identifies an in-game account to look up.
type ValidateRequest struct {
	GameCode  string
	ProductID string
	UserID    string
	ServerID  string
}

// Result is the normalized outcome of SubmitOrder.
type Result struct {
	Success         bool
	ExternalOrderID string
	Reason          string
	// FailureKind is FailureTransport when the call never produced a
	// provider answer and FailureBusiness when the provider said no.
	FailureKind string
	Raw         map[string]any
}

// Audit returns the raw response annotated with the failure kind.
func (r *Result) Audit() map[string]any {
	out := make(map[string]any, len(r.Raw)+1)
	for k, v := range r.Raw {
		out[k] = v
	}
	if !r.Success {
		out["failureKind"] = r.FailureKind
	}
	return out
}

// Status is the normalized outcome of GetOrderStatus.
type Status struct {
	State  State
	Reason string
	Raw    map[string]any
}

// Validation is the outcome of ValidateAccount.
type Validation struct {
	Valid       bool           `json:"valid"`
	DisplayName string         `json:"displayName,omitempty"`
	Raw         map[string]any `json:"-"`
}

// Client is implemented by every top-up provider variant.
//
// Returned errors mean the call did not reach a provider answer (network,
// timeout, undecodable body). Business rejections come back as a Result
// with Success false and a nil error.
type Client interface {
	Name() string
	RequiresContact() bool
	SubmitOrder(ctx context.Context, req SubmitRequest) (*Result, error)
	// GetOrderStatus checks an accepted order. last is the stored raw
	// submit response, replayed by providers without a status endpoint.
	GetOrderStatus(ctx context.Context, externalOrderID string, last map[string]any) (*Status, error)
	ValidateAccount(ctx context.Context, req ValidateRequest) (*Validation, error)
}
