// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package manager coordinates all session operations: the in-memory cache of
live records, per-session mutation serialization, persistence through the
store, and live-update publication through the broadcaster.

# Concurrency model

Mutations against a given session id acquire an exclusive, session-scoped
token; mutations against different sessions proceed fully in parallel — there
is no global lock. A caller waiting for a token may abandon the wait via its
context (or the default lock wait), surfacing ErrOperationTimedOut with no
side effect.

Read-only operations never take the token. The cache holds immutable
snapshots: a mutation clones the current record, applies the change, persists
the clone, and swaps the pointer only after the write succeeds. Readers
therefore never block writers, never observe a partially-applied mutation,
and a store failure rolls back for free — the old snapshot simply stays
current.

# Usage

	st, _ := store.NewFileStore(dataDir)
	b := broadcast.New()
	m := manager.New(st, b)
	rec, err := m.Create(ctx, "Lunch vote", "", adminID, session.RoleOwner, session.DefaultSettings())

The Manager is constructed at startup and passed explicitly to the HTTP
handlers; there is no ambient singleton.
*/
package manager
