// Package domain holds the lead funnel's core types: the closed status enum
// and its transition table. Persistence and transport layers depend on this
// package, never the other way around.
package domain

import (
	"fmt"

	"inmueble_backend/platform/apperr"
)

// Status is a lead's position in the sales funnel. The set is closed: strings
// not in the enum are rejected at the boundary by Parse.
type Status string

const (
	// StatusPendingContact is the initial state of every lead.
	StatusPendingContact Status = "PENDING_CONTACT"
	// StatusReported marks the lead as handed to the developer's sales desk.
	StatusReported Status = "REPORTED"
	// StatusAssignedExternal marks the lead as owned by an external advisor.
	StatusAssignedExternal Status = "ASSIGNED_EXTERNAL"
	// StatusWon, StatusLost and StatusClosed are terminal outcomes.
	StatusWon    Status = "WON"
	StatusLost   Status = "LOST"
	StatusClosed Status = "CLOSED"
)

// transitions is the funnel graph. Re-assignment from ASSIGNED_EXTERNAL back
// to ASSIGNED_EXTERNAL is a correction, so it appears as a self-edge.
var transitions = map[Status][]Status{
	StatusPendingContact:   {StatusReported, StatusAssignedExternal, StatusWon, StatusLost, StatusClosed},
	StatusReported:         {StatusAssignedExternal, StatusWon, StatusLost, StatusClosed},
	StatusAssignedExternal: {StatusAssignedExternal, StatusWon, StatusLost, StatusClosed},
	StatusWon:              nil,
	StatusLost:             nil,
	StatusClosed:           nil,
}

// Parse validates a raw status string against the closed enum.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown lead status %q", raw))
	}
	return s, nil
}

// IsTerminal reports whether no further transition is accepted from s.
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusClosed
}

// CanTransition reports whether the funnel allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ErrInvalidTransition builds the rejection for an illegal funnel move.
// Terminal states fail closed: the stored status is left untouched.
func ErrInvalidTransition(from, to Status) error {
	return apperr.Conflict(fmt.Sprintf("invalid lead transition %s -> %s", from, to))
}
