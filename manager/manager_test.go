// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/linkcodec"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

// failingStore wraps a real store and fails selected operations on demand.
type failingStore struct {
	Store
	failSave bool
}

var errInjected = errors.New("injected store failure")

func (f *failingStore) Save(rec *session.Session) error {
	if f.failSave {
		return errInjected
	}
	return f.Store.Save(rec)
}

func newManager(t *testing.T) (*Manager, Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return New(st, broadcast.New()), st
}

// activeSession creates a started session with two items and one participant.
func startedSession(t *testing.T, m *Manager) (id, pid string) {
	t.Helper()
	ctx := context.Background()
	rec, err := m.Create(ctx, "Lunch Vote", "", "admin", session.RoleOwner, session.DefaultSettings())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.AddItem(ctx, rec.ID, "Pizza", ""); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := m.AddItem(ctx, rec.ID, "Tacos", ""); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	pid, err = m.AddParticipant(ctx, rec.ID, "alice@example.com")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	if err := m.Start(ctx, rec.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return rec.ID, pid
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	rec, err := m.Create(ctx, "Lunch Vote", "Where to eat", "admin", session.RoleOwner, session.DefaultSettings())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := m.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Lunch Vote" || got.Status != session.StatusDraft {
		t.Errorf("Unexpected session: %+v", got)
	}

	entries, err := m.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != rec.ID {
		t.Errorf("Unexpected active listing: %+v", entries)
	}

	if _, err := m.Get("nonexistent"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestMutationsSurviveRestart(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	m1 := New(st, broadcast.New())
	id, pid := startedSession(t, m1)
	if err := m1.SubmitVotes(context.Background(), id, pid, map[int]int{1: 7, 2: 3}); err != nil {
		t.Fatalf("SubmitVotes failed: %v", err)
	}

	// A fresh manager over the same store must see the durable state
	m2 := New(st, broadcast.New())
	rec, err := m2.Get(id)
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}
	if rec.Status != session.StatusActive {
		t.Errorf("Expected active status after restart, got %q", rec.Status)
	}
	if rec.Votes[pid][1] != 7 || rec.Votes[pid][2] != 3 {
		t.Errorf("Votes lost across restart: %+v", rec.Votes)
	}

	// Tokens must still resolve with the reloaded key
	token, err := m2.ParticipantLink(id, pid)
	if err != nil {
		t.Fatalf("ParticipantLink after restart failed: %v", err)
	}
	sid, gotPid, err := m2.ResolveToken(token)
	if err != nil || sid != id || gotPid != pid {
		t.Errorf("ResolveToken after restart = (%q, %q, %v)", sid, gotPid, err)
	}
}

func TestRollbackOnPersistFailure(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	fs := &failingStore{Store: st}
	m := New(fs, broadcast.New())

	id, pid := startedSession(t, m)
	if err := m.SubmitVotes(context.Background(), id, pid, map[int]int{1: 5}); err != nil {
		t.Fatalf("First submission failed: %v", err)
	}

	fs.failSave = true
	err = m.SubmitVotes(context.Background(), id, pid, map[int]int{1: 9})
	if !errors.Is(err, errInjected) {
		t.Fatalf("Expected injected failure, got %v", err)
	}

	// The cache must still hold the last durable value
	rec, _ := m.Get(id)
	if rec.Votes[pid][1] != 5 {
		t.Errorf("Expected rollback to 5 votes, got %d", rec.Votes[pid][1])
	}

	// And so must the disk
	durable, err := st.LoadRecord(id)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if durable.Votes[pid][1] != 5 {
		t.Errorf("Durable state corrupted by failed write: %+v", durable.Votes)
	}

	// Recovery: once the store heals, mutations proceed
	fs.failSave = false
	if err := m.SubmitVotes(context.Background(), id, pid, map[int]int{1: 9}); err != nil {
		t.Fatalf("Submission after recovery failed: %v", err)
	}
	rec, _ = m.Get(id)
	if rec.Votes[pid][1] != 9 {
		t.Errorf("Expected 9 votes after recovery, got %d", rec.Votes[pid][1])
	}
}

func TestCompleteRelocatesAndSeals(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	id, pid := startedSession(t, m)

	if err := m.SubmitVotes(ctx, id, pid, map[int]int{1: 4}); err != nil {
		t.Fatalf("SubmitVotes failed: %v", err)
	}
	if err := m.Complete(ctx, id); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	completed, err := m.ListCompleted()
	if err != nil {
		t.Fatalf("ListCompleted failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != id {
		t.Errorf("Unexpected completed listing: %+v", completed)
	}
	active, _ := m.ListActive()
	if len(active) != 0 {
		t.Errorf("Expected empty active listing, got %+v", active)
	}

	// Votes against a completed session are rejected and results stay frozen
	err = m.SubmitVotes(ctx, id, pid, map[int]int{1: 9})
	if !errors.Is(err, session.ErrInvalidStateTransition) {
		t.Errorf("Expected invalid transition, got %v", err)
	}
	results, _ := m.Results(id)
	if results[0].Votes != 4 {
		t.Errorf("Results changed after completion: %+v", results)
	}

	// Completed sessions no longer resolve voting tokens
	token, err := m.ParticipantLink(id, pid)
	if err != nil {
		t.Fatalf("ParticipantLink failed: %v", err)
	}
	if _, _, err := m.ResolveToken(token); !errors.Is(err, linkcodec.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for completed session, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	id, _ := startedSession(t, m)

	if err := m.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := m.Delete(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	id, pid := startedSession(t, m)
	if err := m.SubmitVotes(ctx, id, pid, map[int]int{1: 3}); err != nil {
		t.Fatalf("SubmitVotes failed: %v", err)
	}

	dup, err := m.Duplicate(ctx, id)
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if dup.ID == id {
		t.Error("Duplicate must get a fresh id")
	}
	if dup.Status != session.StatusDraft || len(dup.Votes) != 0 || len(dup.Participants) != 0 {
		t.Errorf("Duplicate must be an empty draft: %+v", dup)
	}
	if len(dup.Items) != 2 {
		t.Errorf("Duplicate must copy items, got %d", len(dup.Items))
	}

	// The duplicate gets its own key: tokens are not interchangeable
	dupPid, err := m.AddParticipant(ctx, dup.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	if err := m.Start(ctx, dup.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	dupToken, err := m.ParticipantLink(dup.ID, dupPid)
	if err != nil {
		t.Fatalf("ParticipantLink failed: %v", err)
	}
	sid, gotPid, err := m.ResolveToken(dupToken)
	if err != nil || sid != dup.ID || gotPid != dupPid {
		t.Errorf("ResolveToken = (%q, %q, %v), want (%q, %q, nil)", sid, gotPid, err, dup.ID, dupPid)
	}
}

func TestResolveTokenRejectsGarbage(t *testing.T) {
	m, _ := newManager(t)
	startedSession(t, m)

	for _, token := range []string{"", "garbage", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		if _, _, err := m.ResolveToken(token); !errors.Is(err, linkcodec.ErrInvalidToken) {
			t.Errorf("ResolveToken(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParticipantLinkUnknownParticipant(t *testing.T) {
	m, _ := newManager(t)
	id, _ := startedSession(t, m)
	if _, err := m.ParticipantLink(id, "ghost"); !errors.Is(err, session.ErrUnknownParticipant) {
		t.Errorf("Expected ErrUnknownParticipant, got %v", err)
	}
}

func TestMutationTimesOutWhenLockHeld(t *testing.T) {
	m, _ := newManager(t)
	id, pid := startedSession(t, m)
	m.lockWait = 50 * time.Millisecond

	// Hold the session's serialization token
	release, err := m.acquire(context.Background(), id)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	err = m.SubmitVotes(context.Background(), id, pid, map[int]int{1: 1})
	if !errors.Is(err, ErrOperationTimedOut) {
		t.Errorf("Expected ErrOperationTimedOut, got %v", err)
	}

	// The failed wait must leave no mutation behind
	rec, _ := m.Get(id)
	if len(rec.Votes) != 0 {
		t.Error("Timed-out operation must have no effect")
	}
}

func TestMutationRespectsCallerDeadline(t *testing.T) {
	m, _ := newManager(t)
	id, pid := startedSession(t, m)

	release, err := m.acquire(context.Background(), id)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = m.SubmitVotes(ctx, id, pid, map[int]int{1: 1})
	if !errors.Is(err, ErrOperationTimedOut) {
		t.Errorf("Expected ErrOperationTimedOut, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Caller deadline ignored, waited %v", elapsed)
	}
}
