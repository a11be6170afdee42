// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/danielhkuo/vote-for-me/cliparse"
	"github.com/danielhkuo/vote-for-me/mailer"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/models"
	"github.com/danielhkuo/vote-for-me/session"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type SessionHandler struct {
	mgr    *manager.Manager
	sender mailer.Sender
	cfg    cliparse.Config
}

func NewSessionHandler(mgr *manager.Manager, sender mailer.Sender, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{mgr: mgr, sender: sender, cfg: cfg}
}

// authorize loads the session and applies the ownership predicate for the
// authenticated actor. It writes the response itself on failure.
func (h *SessionHandler) authorize(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return false
	}
	claims, ok := middleware.ActorFromContext(r.Context())
	if !ok || !rec.CanMutate(claims.ActorID, claims.Role) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not allowed to modify this session")
		return false
	}
	return true
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.VotesPerParticipant < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "votes_per_participant must be positive")
		return
	}

	settings := session.DefaultSettings()
	if req.VotesPerParticipant > 0 {
		settings.VotesPerParticipant = req.VotesPerParticipant
	}
	if req.Anonymous != nil {
		settings.Anonymous = *req.Anonymous
	}

	creatorID := "admin"
	if claims, ok := middleware.ActorFromContext(r.Context()); ok {
		creatorID = claims.ActorID
	}
	rec, err := h.mgr.Create(r.Context(), req.Title, req.Description, creatorID, session.RoleOwner, settings)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: rec.ID,
		Session:   rec,
	})
}

// ListActive handles GET /api/sessions
func (h *SessionHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	entries, err := h.mgr.ListActive()
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SessionListResponse{Sessions: entries})
}

// ListCompleted handles GET /api/sessions/completed
func (h *SessionHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	entries, err := h.mgr.ListCompleted()
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SessionListResponse{Sessions: entries})
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.mgr.Get(r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, rec)
}

// Update handles PUT /api/sessions/{id}
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	var req models.UpdateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.mgr.UpdateDetails(r.Context(), sessionID, req.Title, req.Description); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// UpdateSettings handles PUT /api/sessions/{id}/settings
func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	var req session.Settings
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VotesPerParticipant <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "votes_per_participant must be positive")
		return
	}

	if err := h.mgr.UpdateSettings(r.Context(), sessionID, req); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}
	if err := h.mgr.Delete(r.Context(), sessionID); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true, Message: "Session deleted"})
}

// Duplicate handles POST /api/sessions/{id}/duplicate
func (h *SessionHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	dup, err := h.mgr.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: dup.ID,
		Session:   dup,
	})
}

// Start handles POST /api/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}
	if err := h.mgr.Start(r.Context(), sessionID); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true, Message: "Session started"})
}

// Complete handles POST /api/sessions/{id}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}
	if err := h.mgr.Complete(r.Context(), sessionID); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true, Message: "Session completed"})
}

// AddItem handles POST /api/sessions/{id}/items
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	var req models.AddItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := h.mgr.AddItem(r.Context(), sessionID, req.Name, req.Description)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.AddItemResponse{Item: item})
}

// RemoveItem handles DELETE /api/sessions/{id}/items/{itemID}
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	itemID, err := strconv.Atoi(r.PathValue("itemID"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.mgr.RemoveItem(r.Context(), sessionID, itemID); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// AddParticipant handles POST /api/sessions/{id}/participants
func (h *SessionHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}

	var req models.AddParticipantRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}
	// Labels are fine as participant identifiers; a deliverable address is
	// only required when an invitation should go out.
	if req.SendInvitation && !emailPattern.MatchString(req.Email) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	participantID, err := h.mgr.AddParticipant(r.Context(), sessionID, req.Email)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	resp := models.AddParticipantResponse{ParticipantID: participantID}
	if req.SendInvitation {
		if err := h.invite(r, sessionID, participantID, req.Email); err != nil {
			slog.Warn("invitation failed", "session_id", sessionID, "participant_id", participantID, "error", err)
			resp.Warning = "Participant added but invitation failed to send: " + err.Error()
		} else {
			resp.InvitationSent = true
		}
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// RemoveParticipant handles DELETE /api/sessions/{id}/participants/{participantID}
func (h *SessionHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if !h.authorize(w, r, sessionID) {
		return
	}
	if err := h.mgr.RemoveParticipant(r.Context(), sessionID, r.PathValue("participantID")); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ParticipantLink handles GET /api/sessions/{id}/participants/{participantID}/link
func (h *SessionHandler) ParticipantLink(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	participantID := r.PathValue("participantID")
	if !h.authorize(w, r, sessionID) {
		return
	}

	token, err := h.mgr.ParticipantLink(sessionID, participantID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ParticipantLinkResponse{
		ParticipantID: participantID,
		Token:         token,
		VotingURL:     h.cfg.BaseURL + "/vote/" + token,
	})
}

// invite mints a participant's personal link and hands it to the sender.
func (h *SessionHandler) invite(r *http.Request, sessionID, participantID, email string) error {
	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		return err
	}
	token, err := h.mgr.ParticipantLink(sessionID, participantID)
	if err != nil {
		return err
	}
	return h.sender.SendInvitation(r.Context(), mailer.Invitation{
		To:                 email,
		SessionTitle:       rec.Title,
		SessionDescription: rec.Description,
		VotingURL:          h.cfg.BaseURL + "/vote/" + token,
	})
}
