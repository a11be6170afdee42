// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// SubmitVotes records a participant's full allocation, replacing any prior
// allocation wholly. Items omitted from the allocation count as zero.
// Resubmission while the session is active is idempotent-overwrite, never
// additive, so partial or duplicated network retries cannot inflate tallies.
//
// Validation order: unknown participant, unknown item, negative allocation,
// budget exceeded. A failed submission leaves the ledger untouched.
func (s *Session) SubmitVotes(participantID string, allocation map[int]int) error {
	if err := s.transitionGuard("submit_votes", StatusActive); err != nil {
		return err
	}

	participant, ok := s.Participants[participantID]
	if !ok {
		return ErrUnknownParticipant
	}

	for itemID := range allocation {
		if !s.hasItem(itemID) {
			return fmt.Errorf("%w: item %d", ErrUnknownItem, itemID)
		}
	}
	for itemID, count := range allocation {
		if count < 0 {
			return fmt.Errorf("%w: item %d", ErrNegativeAllocation, itemID)
		}
	}
	total := 0
	for _, count := range allocation {
		total += count
	}
	if total > s.Settings.VotesPerParticipant {
		return fmt.Errorf("%w: %d > %d", ErrBudgetExceeded, total, s.Settings.VotesPerParticipant)
	}

	stored := make(map[int]int, len(allocation))
	for itemID, count := range allocation {
		stored[itemID] = count
	}
	s.Votes[participantID] = stored

	now := time.Now().UTC()
	participant.HasVoted = true
	participant.VotedAt = &now
	s.Participants[participantID] = participant
	return nil
}

// ItemResult is the aggregated tally for one item.
type ItemResult struct {
	ItemID      int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
	Rank        int     `json:"rank"`
}

// Results recomputes the aggregate tally from the current allocations. It is
// recomputed on every read rather than cached: the maps are small and summing
// is O(participants × items), which keeps the ledger free of delta-drift.
// Results are sorted by votes descending, item id ascending for ties.
func (s *Session) Results() []ItemResult {
	results := make([]ItemResult, 0, len(s.Items))
	for _, item := range s.Items {
		results = append(results, ItemResult{
			ItemID:      item.ID,
			Name:        item.Name,
			Description: item.Description,
		})
	}

	byID := make(map[int]int, len(results)) // item id -> index in results
	for i, r := range results {
		byID[r.ItemID] = i
	}

	grandTotal := 0
	for _, allocation := range s.Votes {
		for itemID, count := range allocation {
			if i, ok := byID[itemID]; ok {
				results[i].Votes += count
				grandTotal += count
			}
		}
	}

	if grandTotal > 0 {
		for i := range results {
			pct := float64(results[i].Votes) / float64(grandTotal) * 100
			results[i].Percentage = math.Round(pct*10) / 10
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Votes != results[j].Votes {
			return results[i].Votes > results[j].Votes
		}
		return results[i].ItemID < results[j].ItemID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (s *Session) hasItem(itemID int) bool {
	for _, item := range s.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}
