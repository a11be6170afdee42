// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

// Request types

type LoginRequest struct {
	Password string `json:"password"`
}

type CreateSessionRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	VotesPerParticipant int    `json:"votes_per_participant"`
	Anonymous           *bool  `json:"anonymous"` // nil → default true
}

type UpdateSessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AddItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AddParticipantRequest struct {
	Email          string `json:"email"`
	SendInvitation bool   `json:"send_invitation"`
}

// item_id -> point allocation
type SubmitVotesRequest struct {
	Votes map[int]int `json:"votes"`
}

// Response types

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateSessionResponse struct {
	SessionID string           `json:"session_id"`
	Session   *session.Session `json:"session"`
}

type SessionListResponse struct {
	Sessions []store.IndexEntry `json:"sessions"`
}

type AddItemResponse struct {
	Item session.Item `json:"item"`
}

type AddParticipantResponse struct {
	ParticipantID  string `json:"participant_id"`
	InvitationSent bool   `json:"invitation_sent"`
	Warning        string `json:"warning,omitempty"`
}

type ParticipantLinkResponse struct {
	ParticipantID string `json:"participant_id"`
	Token         string `json:"token"`
	VotingURL     string `json:"voting_url"`
}

type InvitationSummaryResponse struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed,omitempty"`
}

type ResultsResponse struct {
	SessionID         string               `json:"session_id"`
	SessionTitle      string               `json:"session_title"`
	Status            string               `json:"status"`
	TotalParticipants int                  `json:"total_participants"`
	VotesCast         int                  `json:"votes_cast"`
	Results           []session.ItemResult `json:"results"`
}

// BallotView is what a participant sees when resolving their voting link.
// It never exposes other participants or their allocations.
type BallotView struct {
	SessionID   string         `json:"session_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Items       []session.Item `json:"items"`
	Budget      int            `json:"budget"`
	HasVoted    bool           `json:"has_voted"`
	MyVotes     map[int]int    `json:"my_votes,omitempty"`
}

// TimelineEntry is one cast ballot in the analytics vote timeline. The
// participant id is withheld for anonymous sessions.
type TimelineEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	ParticipantID string    `json:"participant_id,omitempty"`
}

type AnalyticsResponse struct {
	SessionID         string           `json:"session_id"`
	Title             string           `json:"title"`
	Status            string           `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	TotalParticipants int              `json:"total_participants"`
	VotedParticipants int              `json:"voted_participants"`
	ParticipationRate float64          `json:"participation_rate"`
	TotalItems        int              `json:"total_items"`
	VoteTimeline      []TimelineEntry  `json:"vote_timeline"`
	Settings          session.Settings `json:"settings"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
