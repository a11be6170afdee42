// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session defines the voting session record, its vote ledger and its
lifecycle state machine.

# Lifecycle

Sessions progress through three states, monotonically:

	draft → active → completed

Items, participants, details and settings may only change while a session is
a draft; votes may only change while it is active; a completed session is
read-only. Each transition stamps its timestamp exactly once. Disallowed
mutations fail with an *InvalidStateTransitionError naming the current status
and the attempted operation (matchable via errors.Is against
ErrInvalidStateTransition) — they never silently no-op.

# Vote Ledger

SubmitVotes is the single mutating entry point into the ledger. A
resubmission replaces the participant's prior allocation wholly, so network
retries are harmless. Aggregates (Results) are always recomputed by summing
current allocations, never accumulated incrementally.

# Concurrency

Session values carry no locking. The manager package serializes mutations per
session id and publishes immutable snapshots (Clone) to readers; all methods
here assume they run inside that critical section.
*/
package session
