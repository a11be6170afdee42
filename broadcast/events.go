// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"time"

	"github.com/danielhkuo/vote-for-me/session"
)

// Kind discriminates event payload variants.
type Kind string

const (
	KindStatusChanged     Kind = "status_changed"
	KindTallyUpdated      Kind = "tally_updated"
	KindParticipantJoined Kind = "participant_joined"
	KindSessionUpdated    Kind = "session_updated"
	KindSessionDeleted    Kind = "session_deleted"
)

// Payload is the closed set of event variants. Payloads are derived views
// only: individual allocations and participant identities never cross the
// publish boundary, so subscribers cannot reconstruct another participant's
// ballot even when a session is anonymous.
type Payload interface {
	Kind() Kind
}

// StatusChanged announces a lifecycle transition.
type StatusChanged struct {
	Status string `json:"status"`
}

func (StatusChanged) Kind() Kind { return KindStatusChanged }

// TallyUpdated carries the recomputed aggregate after a vote submission.
type TallyUpdated struct {
	Results          []session.ItemResult `json:"results"`
	VotedCount       int                  `json:"voted_count"`
	ParticipantCount int                  `json:"participant_count"`
}

func (TallyUpdated) Kind() Kind { return KindTallyUpdated }

// ParticipantJoined announces roster growth without identifying anyone.
type ParticipantJoined struct {
	ParticipantCount int `json:"participant_count"`
}

func (ParticipantJoined) Kind() Kind { return KindParticipantJoined }

// SessionUpdated announces a change to items, details or settings.
type SessionUpdated struct{}

func (SessionUpdated) Kind() Kind { return KindSessionUpdated }

// SessionDeleted announces terminal removal of the session.
type SessionDeleted struct{}

func (SessionDeleted) Kind() Kind { return KindSessionDeleted }

// Event is the envelope delivered to subscribers. IDs are ULIDs, so they
// sort by emission time.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      Kind      `json:"kind"`
	At        time.Time `json:"at"`
	Payload   Payload   `json:"payload"`
}
