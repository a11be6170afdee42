// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/models"
)

type VotingHandler struct {
	mgr *manager.Manager
}

func NewVotingHandler(mgr *manager.Manager) *VotingHandler {
	return &VotingHandler{mgr: mgr}
}

// GetBallot handles GET /vote/{token}. The token alone identifies both the
// session and the participant; no other credential is needed.
func (h *VotingHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	sessionID, participantID, err := h.mgr.ResolveToken(r.PathValue("token"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	participant, ok := rec.Participants[participantID]
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid or expired voting link")
		return
	}

	view := models.BallotView{
		SessionID:   rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      rec.Status,
		Items:       rec.Items,
		Budget:      rec.Settings.VotesPerParticipant,
		HasVoted:    participant.HasVoted,
	}
	if prior, ok := rec.Votes[participantID]; ok {
		view.MyVotes = prior
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// SubmitVotes handles POST /vote/{token}. Re-submission replaces the
// participant's previous allocation wholesale.
func (h *VotingHandler) SubmitVotes(w http.ResponseWriter, r *http.Request) {
	sessionID, participantID, err := h.mgr.ResolveToken(r.PathValue("token"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	var req models.SubmitVotesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Votes == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "votes is required")
		return
	}

	if err := h.mgr.SubmitVotes(r.Context(), sessionID, participantID, req.Votes); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true, Message: "Votes recorded"})
}
