// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// subscriberBuffer bounds each subscriber's channel. On overflow the oldest
// buffered event is dropped in favor of the newest, so a stalled subscriber
// never blocks the publisher or other subscribers.
const subscriberBuffer = 16

// Broadcaster fans state-change events out to per-session rooms.
type Broadcaster struct {
	mu      sync.Mutex
	rooms   map[string]map[*Subscription]struct{}
	entropy *ulid.MonotonicEntropy
}

// New returns an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		rooms:   map[string]map[*Subscription]struct{}{},
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Subscription is one subscriber's membership in a session room.
type Subscription struct {
	b         *Broadcaster
	sessionID string
	ch        chan Event
	closed    bool
}

// Events is the subscriber's receive channel. It is closed when the
// subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close leaves the room and closes the event channel. Idempotent.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if room, ok := s.b.rooms[s.sessionID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(s.b.rooms, s.sessionID)
		}
	}
	close(s.ch)
}

// Subscribe joins the room for sessionID.
func (b *Broadcaster) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		b:         b,
		sessionID: sessionID,
		ch:        make(chan Event, subscriberBuffer),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[sessionID]
	if !ok {
		room = map[*Subscription]struct{}{}
		b.rooms[sessionID] = room
	}
	room[sub] = struct{}{}
	return sub
}

// Publish delivers payload to every current subscriber of the session's room
// and to no one outside it. Fire-and-forget: delivery to a full subscriber
// drops that subscriber's oldest buffered event.
func (b *Broadcaster) Publish(sessionID string, payload Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room, ok := b.rooms[sessionID]
	if !ok || len(room) == 0 {
		return
	}

	event := Event{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String(),
		SessionID: sessionID,
		Kind:      payload.Kind(),
		At:        time.Now().UTC(),
		Payload:   payload,
	}

	for sub := range room {
		select {
		case sub.ch <- event:
		default:
			// Full buffer: drop the oldest event, then retry once. The
			// second send only fails if a reader raced in and refilled the
			// buffer, in which case the subscriber is keeping up anyway.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// RoomSize reports the number of current subscribers for a session.
func (b *Broadcaster) RoomSize(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms[sessionID])
}
