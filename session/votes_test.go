// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"testing"
)

// activeSession returns an active session with two items (ids 1 and 2) and
// two registered participants.
func activeSession(t *testing.T) (s *Session, p1, p2 string) {
	t.Helper()
	s = New("Lunch Vote", "", "admin", RoleOwner, DefaultSettings())
	s.AddItem("Pizza", "")
	s.AddItem("Tacos", "")
	p1, _ = s.AddParticipant("p1@example.com")
	p2, _ = s.AddParticipant("p2@example.com")
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return s, p1, p2
}

func TestSubmitVotesValidation(t *testing.T) {
	tests := []struct {
		name        string
		participant string // "" means use p1
		allocation  map[int]int
		wantErr     error
	}{
		{"valid full budget", "", map[int]int{1: 7, 2: 3}, nil},
		{"valid under budget", "", map[int]int{1: 2}, nil},
		{"valid empty allocation", "", map[int]int{}, nil},
		{"unknown participant", "ghost", map[int]int{1: 1}, ErrUnknownParticipant},
		{"unknown item", "", map[int]int{99: 1}, ErrUnknownItem},
		{"negative allocation", "", map[int]int{1: -1}, ErrNegativeAllocation},
		{"budget exceeded", "", map[int]int{1: 7, 2: 4}, ErrBudgetExceeded},
		{"budget exceeded single item", "", map[int]int{1: 11}, ErrBudgetExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p1, _ := activeSession(t)
			pid := tt.participant
			if pid == "" {
				pid = p1
			}
			err := s.SubmitVotes(pid, tt.allocation)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			// A rejected ballot must leave the ledger untouched
			if pid == p1 {
				if _, ok := s.Votes[p1]; ok {
					t.Error("Rejected submission must not touch the ledger")
				}
				if s.Participants[p1].HasVoted {
					t.Error("Rejected submission must not mark the participant as voted")
				}
			}
		})
	}
}

func TestSubmitVotesUnknownItemCheckedBeforeNegative(t *testing.T) {
	s, p1, _ := activeSession(t)
	// Allocation is both negative and against an unknown item; the unknown
	// item must win.
	err := s.SubmitVotes(p1, map[int]int{99: -5})
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Expected ErrUnknownItem, got %v", err)
	}
}

func TestSubmitVotesReplacesWholesale(t *testing.T) {
	s, p1, _ := activeSession(t)

	if err := s.SubmitVotes(p1, map[int]int{1: 7, 2: 3}); err != nil {
		t.Fatalf("First submission failed: %v", err)
	}
	// Resubmission omitting item 2 must zero it, not keep the old value
	if err := s.SubmitVotes(p1, map[int]int{1: 4}); err != nil {
		t.Fatalf("Resubmission failed: %v", err)
	}

	if got := s.Votes[p1][1]; got != 4 {
		t.Errorf("Expected 4 votes on item 1, got %d", got)
	}
	if got, ok := s.Votes[p1][2]; ok && got != 0 {
		t.Errorf("Expected item 2 to be cleared, got %d", got)
	}
	if s.VotedCount() != 1 {
		t.Errorf("Expected 1 voted participant, got %d", s.VotedCount())
	}
}

func TestSubmitVotesRejectedOnCompleted(t *testing.T) {
	s, p1, _ := activeSession(t)
	if err := s.Complete(); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	err := s.SubmitVotes(p1, map[int]int{1: 1})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected invalid transition voting on completed session, got %v", err)
	}
}

func TestSubmitVotesDetachedFromCallerMap(t *testing.T) {
	s, p1, _ := activeSession(t)
	alloc := map[int]int{1: 5}
	s.SubmitVotes(p1, alloc)
	alloc[1] = 999 // caller keeps mutating their map

	if s.Votes[p1][1] != 5 {
		t.Error("Ledger must store a copy of the allocation, not the caller's map")
	}
}

func TestResults(t *testing.T) {
	s, p1, p2 := activeSession(t)
	s.SubmitVotes(p1, map[int]int{1: 7, 2: 3})
	s.SubmitVotes(p2, map[int]int{1: 2, 2: 8})

	results := s.Results()
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Tacos (item 2) leads with 11, Pizza (item 1) has 9
	if results[0].ItemID != 2 || results[0].Votes != 11 || results[0].Rank != 1 {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
	if results[1].ItemID != 1 || results[1].Votes != 9 || results[1].Rank != 2 {
		t.Errorf("Unexpected second result: %+v", results[1])
	}
	if results[0].Percentage != 55.0 {
		t.Errorf("Expected 55.0%%, got %v", results[0].Percentage)
	}
	if results[1].Percentage != 45.0 {
		t.Errorf("Expected 45.0%%, got %v", results[1].Percentage)
	}
}

func TestResultsTieBreaksByItemID(t *testing.T) {
	s, p1, _ := activeSession(t)
	s.SubmitVotes(p1, map[int]int{1: 5, 2: 5})

	results := s.Results()
	if results[0].ItemID != 1 || results[1].ItemID != 2 {
		t.Errorf("Ties must break by ascending item id, got %d then %d",
			results[0].ItemID, results[1].ItemID)
	}
}

func TestResultsEmptyLedger(t *testing.T) {
	s, _, _ := activeSession(t)
	results := s.Results()
	for _, r := range results {
		if r.Votes != 0 || r.Percentage != 0 {
			t.Errorf("Expected zeroed result, got %+v", r)
		}
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Error("Ranks must still be assigned with no votes")
	}
}
