// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package manager

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/linkcodec"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

// Create builds a draft session, generates its link key, and persists both.
func (m *Manager) Create(ctx context.Context, title, description, creatorID, creatorRole string, settings session.Settings) (*session.Session, error) {
	rec := session.New(title, description, creatorID, creatorRole, settings)
	return m.adopt(ctx, rec)
}

// Duplicate creates an independent draft copy of an existing session: same
// title (suffixed), description, items and settings, empty participants and
// votes, fresh id and fresh key. The source is only read, never locked.
func (m *Manager) Duplicate(ctx context.Context, id string) (*session.Session, error) {
	src, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return m.adopt(ctx, src.Duplicate())
}

// adopt persists a brand-new record plus its freshly generated key and
// installs it in the cache.
func (m *Manager) adopt(ctx context.Context, rec *session.Session) (*session.Session, error) {
	release, err := m.acquire(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	key, err := linkcodec.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(rec); err != nil {
		return nil, err
	}
	if err := m.store.SaveKey(rec, key); err != nil {
		// Don't leave a keyless record behind.
		if derr := m.store.Delete(rec.ID); derr != nil {
			slog.Warn("failed to clean up record after key write failure", "session_id", rec.ID, "error", derr)
		}
		return nil, err
	}

	m.mu.Lock()
	m.cache[rec.ID] = rec
	m.keys[rec.ID] = key
	m.mu.Unlock()

	slog.Info("session created", "session_id", rec.ID, "title", rec.Title)
	return rec, nil
}

// Get returns the current snapshot of a session. Read-only: it does not take
// the serialization token, and the returned record must not be modified.
func (m *Manager) Get(id string) (*session.Session, error) {
	return m.lookup(id)
}

// ListActive returns index entries for draft and active sessions, newest
// first, reading only the index.
func (m *Manager) ListActive() ([]store.IndexEntry, error) {
	return m.store.ListIndex(session.StatusActive)
}

// ListCompleted returns index entries for completed sessions.
func (m *Manager) ListCompleted() ([]store.IndexEntry, error) {
	return m.store.ListIndex(session.StatusCompleted)
}

// AddItem appends an item to a draft session.
func (m *Manager) AddItem(ctx context.Context, id, name, description string) (session.Item, error) {
	var item session.Item
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		var err error
		item, err = rec.AddItem(name, description)
		if err != nil {
			return nil, err
		}
		return broadcast.SessionUpdated{}, nil
	})
	return item, err
}

// RemoveItem removes an item from a draft session.
func (m *Manager) RemoveItem(ctx context.Context, id string, itemID int) error {
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.RemoveItem(itemID); err != nil {
			return nil, err
		}
		return broadcast.SessionUpdated{}, nil
	})
	return err
}

// AddParticipant registers an invitee and returns their new participant id.
func (m *Manager) AddParticipant(ctx context.Context, id, email string) (string, error) {
	var participantID string
	rec, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		var err error
		participantID, err = rec.AddParticipant(email)
		if err != nil {
			return nil, err
		}
		return broadcast.ParticipantJoined{ParticipantCount: len(rec.Participants)}, nil
	})
	if err != nil {
		return "", err
	}
	slog.Info("participant added", "session_id", rec.ID, "participant_id", participantID)
	return participantID, nil
}

// RemoveParticipant drops a participant and any votes they hold.
func (m *Manager) RemoveParticipant(ctx context.Context, id, participantID string) error {
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.RemoveParticipant(participantID); err != nil {
			return nil, err
		}
		return broadcast.SessionUpdated{}, nil
	})
	return err
}

// UpdateDetails changes the title/description of a draft session.
func (m *Manager) UpdateDetails(ctx context.Context, id, title, description string) error {
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.UpdateDetails(title, description); err != nil {
			return nil, err
		}
		return broadcast.SessionUpdated{}, nil
	})
	return err
}

// UpdateSettings replaces the settings of a draft session.
func (m *Manager) UpdateSettings(ctx context.Context, id string, settings session.Settings) error {
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.UpdateSettings(settings); err != nil {
			return nil, err
		}
		return broadcast.SessionUpdated{}, nil
	})
	return err
}

// Start transitions a draft session to active.
func (m *Manager) Start(ctx context.Context, id string) error {
	rec, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.Start(); err != nil {
			return nil, err
		}
		return broadcast.StatusChanged{Status: rec.Status}, nil
	})
	if err != nil {
		return err
	}
	slog.Info("session started", "session_id", rec.ID)
	return nil
}

// Complete transitions an active session to completed and relocates its
// record into the completed partition as one logical operation.
func (m *Manager) Complete(ctx context.Context, id string) error {
	release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	current, err := m.lookup(id)
	if err != nil {
		return err
	}

	next := current.Clone()
	if err := next.Complete(); err != nil {
		return err
	}
	if err := m.store.MoveToCompleted(next); err != nil {
		slog.Error("relocation failed, rolling back", "session_id", id, "error", err)
		return err
	}
	m.swap(next)
	m.broadcaster.Publish(id, broadcast.StatusChanged{Status: next.Status})
	slog.Info("session completed", "session_id", id)
	return nil
}

// Delete removes a session's record, key and index entry, in any status.
func (m *Manager) Delete(ctx context.Context, id string) error {
	release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if _, err := m.lookup(id); err != nil {
		return err
	}
	if err := m.store.Delete(id); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.cache, id)
	delete(m.keys, id)
	m.mu.Unlock()

	m.broadcaster.Publish(id, broadcast.SessionDeleted{})
	slog.Info("session deleted", "session_id", id)
	return nil
}

// SubmitVotes records a participant's full allocation (whole replacement)
// and publishes the recomputed tally.
func (m *Manager) SubmitVotes(ctx context.Context, id, participantID string, allocation map[int]int) error {
	_, err := m.mutate(ctx, id, func(rec *session.Session) (broadcast.Payload, error) {
		if err := rec.SubmitVotes(participantID, allocation); err != nil {
			return nil, err
		}
		return broadcast.TallyUpdated{
			Results:          rec.Results(),
			VotedCount:       rec.VotedCount(),
			ParticipantCount: len(rec.Participants),
		}, nil
	})
	return err
}

// Results returns the recomputed aggregate tally for a session. Read-only.
func (m *Manager) Results(id string) ([]session.ItemResult, error) {
	rec, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return rec.Results(), nil
}

// ParticipantLink mints the encrypted voting token for one participant.
func (m *Manager) ParticipantLink(id, participantID string) (string, error) {
	rec, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	if _, ok := rec.Participants[participantID]; !ok {
		return "", session.ErrUnknownParticipant
	}
	key, err := m.linkKey(id)
	if err != nil {
		return "", err
	}
	return linkcodec.Encode(id, participantID, key)
}

// ResolveToken resolves an inbound participant token to its session and
// participant ids. The token names no session in cleartext, so resolution
// tries each non-completed session's key from the active index; the decode
// itself authenticates the match. Every failure is ErrInvalidToken.
func (m *Manager) ResolveToken(token string) (sessionID, participantID string, err error) {
	entries, err := m.store.ListIndex(session.StatusActive)
	if err != nil {
		return "", "", err
	}
	for _, entry := range entries {
		key, err := m.linkKey(entry.ID)
		if err != nil {
			continue
		}
		sid, pid, err := linkcodec.Decode(token, key)
		if err != nil || sid != entry.ID {
			continue
		}
		return sid, pid, nil
	}
	return "", "", linkcodec.ErrInvalidToken
}
