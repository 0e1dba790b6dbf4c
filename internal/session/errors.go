// ABOUTME: Error taxonomy for session operations
// ABOUTME: Sentinel errors for lifecycle violations, typed ValidationError for local precondition failures

package session

import "errors"

// ErrConversationEnded is returned when a mutation is attempted on a
// conversation that has reached its terminal ended state.
var ErrConversationEnded = errors.New("conversation has ended")

// ErrSendInProgress is returned when a second send is attempted while one
// is still in flight.
var ErrSendInProgress = errors.New("send already in progress")

// ErrNoActiveConversation is returned when a lifecycle operation requires
// a bound conversation and the store is unbound.
var ErrNoActiveConversation = errors.New("no active conversation")

// ValidationError reports a local precondition failure (empty or oversized
// message, blank title). It never reaches the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
