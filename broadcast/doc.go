// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast fans live state-change events out to per-session rooms.

Admin dashboards, presentation screens and voting clients subscribe to a
session id and receive Event envelopes over a buffered channel:

	sub := b.Subscribe(sessionID)
	defer sub.Close()
	for ev := range sub.Events() { ... }

Publish delivers only to the named room — cross-session leakage is treated
as a correctness violation, not an edge case. Subscribers can never mutate
state through the broadcaster; payloads are a closed set of derived-view
variants (StatusChanged, TallyUpdated, ParticipantJoined, SessionUpdated,
SessionDeleted) that carry aggregates and counts, never raw ledger entries
or participant identities.

Per-subscriber buffering is bounded; a subscriber that stops reading loses
its oldest events rather than stalling the publisher.
*/
package broadcast
