package domain

import "fmt"

// RequestStatus is the lifecycle of a charity request. Transitions only open -> closed.
type RequestStatus string

const (
	RequestStatusOpen   RequestStatus = "open"
	RequestStatusClosed RequestStatus = "closed"
)

func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	return s == RequestStatusOpen || s == RequestStatusClosed
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	s := RequestStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid request status %q", value)
	}
	return s, nil
}

// TransactionStatus tracks a purchase from acceptance to payment release.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusShipping  TransactionStatus = "shipping"
	TransactionStatusDelivered TransactionStatus = "delivered"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusShipping,
	TransactionStatusDelivered,
	TransactionStatusCompleted,
	TransactionStatusRejected,
}

// AllTransactionStatuses lists every status in lifecycle order.
func AllTransactionStatuses() []TransactionStatus {
	out := make([]TransactionStatus, len(validTransactionStatuses))
	copy(out, validTransactionStatuses)
	return out
}

func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusRejected
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}

// TransactionEvent names an actor-driven step of the purchase lifecycle.
type TransactionEvent string

const (
	EventShip        TransactionEvent = "ship"
	EventDeliver     TransactionEvent = "deliver"
	EventRelease     TransactionEvent = "release"
	EventReportIssue TransactionEvent = "report_issue"
)

// transitions is the complete table of legal moves. Anything absent is rejected.
var transitions = map[TransactionStatus]map[TransactionEvent]TransactionStatus{
	TransactionStatusPending: {
		EventShip: TransactionStatusShipping,
	},
	TransactionStatusShipping: {
		EventDeliver: TransactionStatusDelivered,
	},
	TransactionStatusDelivered: {
		EventRelease:     TransactionStatusCompleted,
		EventReportIssue: TransactionStatusRejected,
	},
}

// ErrIllegalTransition is returned by Next when the event is not allowed from the current status.
type ErrIllegalTransition struct {
	From  TransactionStatus
	Event TransactionEvent
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("cannot %s a transaction in status %q", e.Event, e.From)
}

// Next is the single authoritative transition function for transactions.
func (s TransactionStatus) Next(event TransactionEvent) (TransactionStatus, error) {
	if next, ok := transitions[s][event]; ok {
		return next, nil
	}
	return s, &ErrIllegalTransition{From: s, Event: event}
}

// RequiredRole returns the role allowed to fire the event.
func (e TransactionEvent) RequiredRole() Role {
	switch e {
	case EventShip, EventDeliver:
		return RoleVendor
	default:
		return RoleCharity
	}
}
