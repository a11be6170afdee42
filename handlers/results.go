// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"sort"

	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/models"
)

type ResultsHandler struct {
	mgr *manager.Manager
}

func NewResultsHandler(mgr *manager.Manager) *ResultsHandler {
	return &ResultsHandler{mgr: mgr}
}

// GetResults handles GET /api/sessions/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	rec, err := h.mgr.Get(r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		SessionID:         rec.ID,
		SessionTitle:      rec.Title,
		Status:            rec.Status,
		TotalParticipants: len(rec.Participants),
		VotesCast:         rec.VotedCount(),
		Results:           rec.Results(),
	})
}

// GetAnalytics handles GET /api/sessions/{id}/analytics
func (h *ResultsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	rec, err := h.mgr.Get(r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	voted := rec.VotedCount()
	rate := 0.0
	if len(rec.Participants) > 0 {
		rate = float64(voted) / float64(len(rec.Participants)) * 100
	}

	timeline := make([]models.TimelineEntry, 0, voted)
	for pid, p := range rec.Participants {
		if !p.HasVoted || p.VotedAt == nil {
			continue
		}
		entry := models.TimelineEntry{Timestamp: *p.VotedAt}
		if !rec.Settings.Anonymous {
			entry.ParticipantID = pid
		}
		timeline = append(timeline, entry)
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})

	middleware.JSONResponse(w, http.StatusOK, models.AnalyticsResponse{
		SessionID:         rec.ID,
		Title:             rec.Title,
		Status:            rec.Status,
		CreatedAt:         rec.CreatedAt,
		CompletedAt:       rec.CompletedAt,
		TotalParticipants: len(rec.Participants),
		VotedParticipants: voted,
		ParticipationRate: rate,
		TotalItems:        len(rec.Items),
		VoteTimeline:      timeline,
		Settings:          rec.Settings,
	})
}
