// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParticipant is returned when a vote references a participant
	// that was never added to the session.
	ErrUnknownParticipant = errors.New("unknown participant")

	// ErrUnknownItem is returned when an allocation references an item id
	// that does not exist in the session.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNegativeAllocation is returned when any allocation value is below zero.
	ErrNegativeAllocation = errors.New("negative allocation")

	// ErrBudgetExceeded is returned when the sum of a participant's allocation
	// exceeds the session's votes-per-participant budget.
	ErrBudgetExceeded = errors.New("vote budget exceeded")

	// ErrNoItems is returned when starting a session that has no items.
	ErrNoItems = errors.New("session has no items")

	// ErrInvalidStateTransition matches any *InvalidStateTransitionError
	// via errors.Is.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// InvalidStateTransitionError reports a mutation attempted while the session
// is in a status that forbids it. It names both the current status and the
// attempted operation; disallowed mutations never silently no-op.
type InvalidStateTransitionError struct {
	Status    string
	Operation string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("operation %q not allowed while session is %q", e.Operation, e.Status)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
