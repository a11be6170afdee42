// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

var (
	// ErrSessionNotFound is returned for any operation against an id with no
	// cached or durable record.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOperationTimedOut is returned when a caller abandons the wait for a
	// session's serialization token. No mutation has occurred.
	ErrOperationTimedOut = errors.New("operation timed out waiting for session")
)

// DefaultLockWait bounds how long a mutating call waits for a session's
// serialization token when the caller's context has no deadline of its own.
const DefaultLockWait = 5 * time.Second

// Store is the persistence boundary the manager drives. *store.FileStore
// satisfies it; tests substitute failure-injecting fakes.
type Store interface {
	Save(rec *session.Session) error
	SaveKey(rec *session.Session, key []byte) error
	LoadRecord(id string) (*session.Session, error)
	LoadKey(id string) ([]byte, error)
	MoveToCompleted(rec *session.Session) error
	Delete(id string) error
	ListIndex(status string) ([]store.IndexEntry, error)
}

// Manager owns the authoritative in-memory cache of live session records and
// is the sole concurrency boundary for mutations: at most one mutating
// operation executes per session at any time, while mutations against
// different sessions proceed fully in parallel.
//
// Records in the cache are immutable. Every mutation clones the current
// record, applies the change to the clone, persists it, and only then swaps
// the pointer — so read-only callers always observe a consistent snapshot,
// and a persistence failure leaves the last durable value in place
// (automatic rollback, no partial effect).
//
// A Manager is constructed explicitly and passed to collaborators; it is
// never a package-level singleton.
type Manager struct {
	store       Store
	broadcaster *broadcast.Broadcaster
	lockWait    time.Duration

	mu    sync.RWMutex
	cache map[string]*session.Session
	keys  map[string][]byte // session id -> link key, lazily loaded
	locks map[string]chan struct{}
}

// New builds a Manager over the given store and broadcaster.
func New(st Store, b *broadcast.Broadcaster) *Manager {
	return &Manager{
		store:       st,
		broadcaster: b,
		lockWait:    DefaultLockWait,
		cache:       map[string]*session.Session{},
		keys:        map[string][]byte{},
		locks:       map[string]chan struct{}{},
	}
}

// acquire takes the session's serialization token, waiting until it is free,
// the context is done, or the default lock wait elapses. Tokens are created
// lazily under the table lock and retained for the life of the process, so
// there is no create-lock/use-lock race.
func (m *Manager) acquire(ctx context.Context, id string) (release func(), err error) {
	m.mu.Lock()
	token, ok := m.locks[id]
	if !ok {
		token = make(chan struct{}, 1)
		m.locks[id] = token
	}
	m.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.lockWait)
		defer cancel()
	}

	select {
	case token <- struct{}{}:
		return func() { <-token }, nil
	case <-ctx.Done():
		return nil, ErrOperationTimedOut
	}
}

// lookup returns the current record for id, loading it from disk into the
// cache on a miss.
func (m *Manager) lookup(id string) (*session.Session, error) {
	m.mu.RLock()
	rec, ok := m.cache[id]
	m.mu.RUnlock()
	if ok {
		return rec, nil
	}

	rec, err := m.store.LoadRecord(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	m.mu.Lock()
	// Another goroutine may have loaded it first; keep the cached one.
	if cached, ok := m.cache[id]; ok {
		rec = cached
	} else {
		m.cache[id] = rec
	}
	m.mu.Unlock()
	return rec, nil
}

// linkKey returns the session's link key, loading and caching it on demand.
func (m *Manager) linkKey(id string) ([]byte, error) {
	m.mu.RLock()
	key, ok := m.keys[id]
	m.mu.RUnlock()
	if ok {
		return key, nil
	}

	key, err := m.store.LoadKey(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	m.mu.Lock()
	m.keys[id] = key
	m.mu.Unlock()
	return key, nil
}

// swap installs the mutated clone as the session's current snapshot.
func (m *Manager) swap(rec *session.Session) {
	m.mu.Lock()
	m.cache[rec.ID] = rec
	m.mu.Unlock()
}

// mutate runs fn against a clone of the session inside its critical section,
// persists the clone, swaps it into the cache and publishes the event fn
// returned. Any error out of fn or the store leaves the cache untouched.
func (m *Manager) mutate(ctx context.Context, id string, fn func(*session.Session) (broadcast.Payload, error)) (*session.Session, error) {
	release, err := m.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	payload, err := fn(next)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(next); err != nil {
		slog.Error("persist failed, rolling back", "session_id", id, "error", err)
		return nil, err
	}
	m.swap(next)
	if payload != nil {
		m.broadcaster.Publish(id, payload)
	}
	return next, nil
}
