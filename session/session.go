// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"time"

	"github.com/google/uuid"
)

// Session status constants
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Creator role constants
const (
	RoleOwner         = "owner"
	RoleAdministrator = "administrator"
)

// DefaultBudget is the votes-per-participant budget applied when none is given.
const DefaultBudget = 10

// Item is a choosable option within a session. Item ids are assigned
// sequentially and never reused, even after removal.
type Item struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Participant is an invitee authorized to vote via an encrypted link.
type Participant struct {
	Email    string     `json:"email"`
	HasVoted bool       `json:"has_voted"`
	AddedAt  time.Time  `json:"added_at"`
	VotedAt  *time.Time `json:"voted_at,omitempty"`
}

// Settings controls how a session accepts and reveals votes.
type Settings struct {
	Anonymous           bool   `json:"anonymous"`
	VotesPerParticipant int    `json:"votes_per_participant"`
	ShowResultsLive     bool   `json:"show_results_live"`
	ResultsAccess       string `json:"results_access"` // "public" or "private"
	ShowItemNames       bool   `json:"show_item_names"`
	PresentationMode    bool   `json:"presentation_mode"`
}

// DefaultSettings mirrors the defaults applied to a freshly created session.
func DefaultSettings() Settings {
	return Settings{
		Anonymous:           true,
		VotesPerParticipant: DefaultBudget,
		ShowResultsLive:     false,
		ResultsAccess:       "public",
		ShowItemNames:       true,
		PresentationMode:    true,
	}
}

// Session is one voting event: metadata, items, participants, vote
// allocations, settings and lifecycle status.
//
// Session carries no locking of its own. The manager package serializes all
// mutations per session id; methods here assume they run inside that
// critical section.
type Session struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Status       string                 `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	Items        []Item                 `json:"items"`
	NextItemID   int                    `json:"next_item_id"`
	Participants map[string]Participant `json:"participants"`
	Votes        map[string]map[int]int `json:"votes"`
	Settings     Settings               `json:"settings"`
	CreatorID    string                 `json:"creator_id"`
	CreatorRole  string                 `json:"creator_role"`
}

// New creates a draft session with a fresh id. A non-positive budget falls
// back to DefaultBudget.
func New(title, description, creatorID, creatorRole string, settings Settings) *Session {
	if settings.VotesPerParticipant <= 0 {
		settings.VotesPerParticipant = DefaultBudget
	}
	if settings.ResultsAccess == "" {
		settings.ResultsAccess = "public"
	}
	return &Session{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Status:       StatusDraft,
		CreatedAt:    time.Now().UTC(),
		Items:        []Item{},
		NextItemID:   1,
		Participants: map[string]Participant{},
		Votes:        map[string]map[int]int{},
		Settings:     settings,
		CreatorID:    creatorID,
		CreatorRole:  creatorRole,
	}
}

// transitionGuard returns an error unless the session is in want status.
func (s *Session) transitionGuard(operation, want string) error {
	if s.Status != want {
		return &InvalidStateTransitionError{Status: s.Status, Operation: operation}
	}
	return nil
}

// AddItem appends a new item and returns it. Items may only be added while
// the session is a draft.
func (s *Session) AddItem(name, description string) (Item, error) {
	if err := s.transitionGuard("add_item", StatusDraft); err != nil {
		return Item{}, err
	}
	item := Item{ID: s.NextItemID, Name: name, Description: description}
	s.NextItemID++
	s.Items = append(s.Items, item)
	return item, nil
}

// RemoveItem deletes an item by id. The id is never reused. Removing an
// unknown id fails with ErrUnknownItem.
func (s *Session) RemoveItem(itemID int) error {
	if err := s.transitionGuard("remove_item", StatusDraft); err != nil {
		return err
	}
	for i, item := range s.Items {
		if item.ID == itemID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return nil
		}
	}
	return ErrUnknownItem
}

// AddParticipant registers an invitee under a fresh participant id and
// returns the id. Participants may only be added while the session is a draft.
func (s *Session) AddParticipant(email string) (string, error) {
	if err := s.transitionGuard("add_participant", StatusDraft); err != nil {
		return "", err
	}
	participantID := uuid.NewString()
	s.Participants[participantID] = Participant{
		Email:   email,
		AddedAt: time.Now().UTC(),
	}
	return participantID, nil
}

// RemoveParticipant deletes a participant and any votes they hold.
func (s *Session) RemoveParticipant(participantID string) error {
	if err := s.transitionGuard("remove_participant", StatusDraft); err != nil {
		return err
	}
	if _, ok := s.Participants[participantID]; !ok {
		return ErrUnknownParticipant
	}
	delete(s.Participants, participantID)
	delete(s.Votes, participantID)
	return nil
}

// UpdateDetails changes the title and description of a draft session.
func (s *Session) UpdateDetails(title, description string) error {
	if err := s.transitionGuard("update_details", StatusDraft); err != nil {
		return err
	}
	s.Title = title
	s.Description = description
	return nil
}

// UpdateSettings replaces the settings of a draft session. A non-positive
// budget is rejected by the HTTP layer before it reaches here; a zero value
// is normalized to the default as a safety net.
func (s *Session) UpdateSettings(settings Settings) error {
	if err := s.transitionGuard("update_settings", StatusDraft); err != nil {
		return err
	}
	if settings.VotesPerParticipant <= 0 {
		settings.VotesPerParticipant = DefaultBudget
	}
	s.Settings = settings
	return nil
}

// Start transitions draft → active and stamps StartedAt exactly once.
// At least one item must exist.
func (s *Session) Start() error {
	if err := s.transitionGuard("start", StatusDraft); err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return ErrNoItems
	}
	now := time.Now().UTC()
	s.StartedAt = &now
	s.Status = StatusActive
	return nil
}

// Complete transitions active → completed and stamps CompletedAt exactly
// once. No further vote mutation is accepted afterwards.
func (s *Session) Complete() error {
	if err := s.transitionGuard("complete", StatusActive); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.CompletedAt = &now
	s.Status = StatusCompleted
	return nil
}

// CanMutate is the ownership predicate: administrators may mutate any
// session, owners only their own. Enforcement policy lives in the HTTP layer.
func (s *Session) CanMutate(actorID, role string) bool {
	if role == RoleAdministrator {
		return true
	}
	return actorID != "" && actorID == s.CreatorID
}

// VotedCount reports how many participants have cast a ballot.
func (s *Session) VotedCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.HasVoted {
			n++
		}
	}
	return n
}

// Duplicate returns a fresh draft session copying title (with a "(Copy)"
// suffix), description, items and settings, with empty participants and
// votes and a newly generated id.
func (s *Session) Duplicate() *Session {
	dup := New(s.Title+" (Copy)", s.Description, s.CreatorID, s.CreatorRole, s.Settings)
	dup.Items = make([]Item, len(s.Items))
	copy(dup.Items, s.Items)
	dup.NextItemID = s.NextItemID
	return dup
}

// Clone returns a deep copy. The manager mutates clones and swaps them into
// the cache atomically so readers never observe a half-applied mutation.
func (s *Session) Clone() *Session {
	c := *s
	c.Items = make([]Item, len(s.Items))
	copy(c.Items, s.Items)
	c.Participants = make(map[string]Participant, len(s.Participants))
	for id, p := range s.Participants {
		c.Participants[id] = p
	}
	c.Votes = make(map[string]map[int]int, len(s.Votes))
	for pid, alloc := range s.Votes {
		inner := make(map[int]int, len(alloc))
		for itemID, count := range alloc {
			inner[itemID] = count
		}
		c.Votes[pid] = inner
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
