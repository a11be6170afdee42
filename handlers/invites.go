// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/vote-for-me/cliparse"
	"github.com/danielhkuo/vote-for-me/mailer"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/models"
)

type InviteHandler struct {
	mgr    *manager.Manager
	sender mailer.Sender
	cfg    cliparse.Config
}

func NewInviteHandler(mgr *manager.Manager, sender mailer.Sender, cfg cliparse.Config) *InviteHandler {
	return &InviteHandler{mgr: mgr, sender: sender, cfg: cfg}
}

// SendOne handles POST /api/sessions/{id}/participants/{participantID}/invite
func (h *InviteHandler) SendOne(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	participantID := r.PathValue("participantID")

	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	participant, ok := rec.Participants[participantID]
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Participant not found")
		return
	}
	if !emailPattern.MatchString(participant.Email) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Participant has no deliverable email address")
		return
	}

	token, err := h.mgr.ParticipantLink(sessionID, participantID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	inv := mailer.Invitation{
		To:                 participant.Email,
		SessionTitle:       rec.Title,
		SessionDescription: rec.Description,
		VotingURL:          h.cfg.BaseURL + "/vote/" + token,
	}
	if err := h.sender.SendInvitation(r.Context(), inv); err != nil {
		slog.Warn("invitation failed", "session_id", sessionID, "participant_id", participantID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to send invitation: "+err.Error())
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true, Message: "Invitation sent"})
}

// SendAll handles POST /api/sessions/{id}/send-invitations. Participants
// whose identifiers are not deliverable email addresses are skipped, and
// individual delivery failures are reported, not fatal.
func (h *InviteHandler) SendAll(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	summary := models.InvitationSummaryResponse{}
	for pid, participant := range rec.Participants {
		if !emailPattern.MatchString(participant.Email) {
			continue
		}
		token, err := h.mgr.ParticipantLink(sessionID, pid)
		if err != nil {
			summary.Failed = append(summary.Failed, participant.Email)
			continue
		}
		inv := mailer.Invitation{
			To:                 participant.Email,
			SessionTitle:       rec.Title,
			SessionDescription: rec.Description,
			VotingURL:          h.cfg.BaseURL + "/vote/" + token,
		}
		if err := h.sender.SendInvitation(r.Context(), inv); err != nil {
			slog.Warn("invitation failed", "session_id", sessionID, "participant_id", pid, "error", err)
			summary.Failed = append(summary.Failed, participant.Email)
			continue
		}
		summary.Sent++
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}
