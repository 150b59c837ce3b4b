package domain

import (
	"fmt"
	"strings"
)

// Status is the booking state. The legacy "Approved to Rent" and
// "Rejected to Rent" values are distinct states, not aliases of approved
// and rejected.
type Status string

const (
	StatusCart           Status = "cart"
	StatusPending        Status = "pending"
	StatusBooked         Status = "booked"
	StatusApproved       Status = "approved"
	StatusOngoing        Status = "ongoing"
	StatusTerminated     Status = "terminated"
	StatusCancelled      Status = "cancelled"
	StatusRejected       Status = "rejected"
	StatusApprovedToRent Status = "Approved to Rent"
	StatusRejectedToRent Status = "Rejected to Rent"
)

var allStatuses = []Status{
	StatusCart, StatusPending, StatusBooked, StatusApproved, StatusOngoing,
	StatusTerminated, StatusCancelled, StatusRejected,
	StatusApprovedToRent, StatusRejectedToRent,
}

// ParseStatus matches exact stored values first, then case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	for _, st := range allStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusTerminated, StatusCancelled, StatusRejected, StatusRejectedToRent:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type Event string

const (
	EventSubmit           Event = "submit"
	EventAcceptRequest    Event = "accept_request"
	EventApprove          Event = "approve"
	EventReject           Event = "reject"
	EventRejectBooking    Event = "reject_booking"
	EventCancel           Event = "cancel"
	EventStart            Event = "start"
	EventTerminate        Event = "terminate"
	EventPaymentConfirmed Event = "payment_confirmed"
	EventReturn           Event = "return"
)

type rule struct {
	from []Status
	to   Status
}

// anyNonTerminal marks rules legal from every non-terminal status.
var anyNonTerminal []Status

var rules = map[Event]rule{
	EventSubmit:           {from: []Status{StatusCart}, to: StatusPending},
	EventAcceptRequest:    {from: []Status{StatusPending}, to: StatusBooked},
	EventApprove:          {from: []Status{StatusPending}, to: StatusApproved},
	EventReject:           {from: []Status{StatusPending}, to: StatusRejected},
	EventRejectBooking:    {from: []Status{StatusPending, StatusBooked, StatusApproved, StatusApprovedToRent}, to: StatusRejectedToRent},
	EventCancel:           {from: []Status{StatusCart, StatusPending, StatusApproved, StatusOngoing, StatusBooked, StatusApprovedToRent}, to: StatusCancelled},
	EventStart:            {from: []Status{StatusApproved, StatusBooked, StatusApprovedToRent}, to: StatusOngoing},
	EventTerminate:        {from: anyNonTerminal, to: StatusTerminated},
	EventPaymentConfirmed: {from: []Status{StatusPending, StatusApproved}, to: StatusBooked},
	EventReturn:           {from: []Status{StatusOngoing}, to: StatusTerminated},
}

// IllegalTransitionError is returned when an event is applied to a status
// that is not one of its legal predecessors.
type IllegalTransitionError struct {
	From  Status
	Event Event
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking that is %s", strings.ReplaceAll(string(e.Event), "_", " "), e.From)
}

// Transition returns the status reached by applying ev to current.
// Re-applying an event whose target is the current status returns current
// unchanged; EventReturn is the exception since its target row is archived.
func Transition(current Status, ev Event) (Status, error) {
	r, ok := rules[ev]
	if !ok {
		return current, fmt.Errorf("unknown booking event %q", ev)
	}
	if ev != EventReturn && current == r.to {
		return current, nil
	}
	if r.from == nil {
		if current.Valid() && !current.IsTerminal() {
			return r.to, nil
		}
		return current, &IllegalTransitionError{From: current, Event: ev}
	}
	for _, f := range r.from {
		if f == current {
			return r.to, nil
		}
	}
	return current, &IllegalTransitionError{From: current, Event: ev}
}

// CanTransition reports whether ev would change current.
func CanTransition(current Status, ev Event) bool {
	next, err := Transition(current, ev)
	return err == nil && next != current
}

// Target is the status an event moves a booking to.
func Target(ev Event) Status {
	return rules[ev].to
}
