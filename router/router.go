// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/vote-for-me/auth"
	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/cliparse"
	"github.com/danielhkuo/vote-for-me/handlers"
	"github.com/danielhkuo/vote-for-me/mailer"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
)

func NewRouter(mgr *manager.Manager, b *broadcast.Broadcaster, admin *auth.Admin, sender mailer.Sender, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(admin)
	sessionHandler := handlers.NewSessionHandler(mgr, sender, cfg)
	votingHandler := handlers.NewVotingHandler(mgr)
	resultsHandler := handlers.NewResultsHandler(mgr)
	exportHandler := handlers.NewExportHandler(mgr)
	inviteHandler := handlers.NewInviteHandler(mgr, sender, cfg)
	liveHandler := handlers.NewLiveHandler(mgr, b)

	// admin wraps a handler with logging plus the bearer-token guard.
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(admin, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Authentication
	mux.HandleFunc("POST /api/login", middleware.WithLogging(authHandler.Login))

	// Session management (admin operations)
	mux.HandleFunc("POST /api/sessions", adminOnly(sessionHandler.Create))
	mux.HandleFunc("GET /api/sessions", adminOnly(sessionHandler.ListActive))
	mux.HandleFunc("GET /api/sessions/completed", adminOnly(sessionHandler.ListCompleted))
	mux.HandleFunc("GET /api/sessions/{id}", adminOnly(sessionHandler.Get))
	mux.HandleFunc("PUT /api/sessions/{id}", adminOnly(sessionHandler.Update))
	mux.HandleFunc("DELETE /api/sessions/{id}", adminOnly(sessionHandler.Delete))
	mux.HandleFunc("PUT /api/sessions/{id}/settings", adminOnly(sessionHandler.UpdateSettings))
	mux.HandleFunc("POST /api/sessions/{id}/duplicate", adminOnly(sessionHandler.Duplicate))
	mux.HandleFunc("POST /api/sessions/{id}/start", adminOnly(sessionHandler.Start))
	mux.HandleFunc("POST /api/sessions/{id}/complete", adminOnly(sessionHandler.Complete))

	// Items and participants (admin operations)
	mux.HandleFunc("POST /api/sessions/{id}/items", adminOnly(sessionHandler.AddItem))
	mux.HandleFunc("DELETE /api/sessions/{id}/items/{itemID}", adminOnly(sessionHandler.RemoveItem))
	mux.HandleFunc("POST /api/sessions/{id}/participants", adminOnly(sessionHandler.AddParticipant))
	mux.HandleFunc("DELETE /api/sessions/{id}/participants/{participantID}", adminOnly(sessionHandler.RemoveParticipant))
	mux.HandleFunc("GET /api/sessions/{id}/participants/{participantID}/link", adminOnly(sessionHandler.ParticipantLink))

	// Invitations (admin operations)
	mux.HandleFunc("POST /api/sessions/{id}/participants/{participantID}/invite", adminOnly(inviteHandler.SendOne))
	mux.HandleFunc("POST /api/sessions/{id}/send-invitations", adminOnly(inviteHandler.SendAll))

	// Analytics and export (admin operations)
	mux.HandleFunc("GET /api/sessions/{id}/analytics", adminOnly(resultsHandler.GetAnalytics))
	mux.HandleFunc("GET /api/sessions/{id}/export/csv", adminOnly(exportHandler.ExportCSV))

	// Results and live updates (public, for shared dashboards)
	mux.HandleFunc("GET /api/sessions/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/sessions/{id}/events", middleware.WithLogging(liveHandler.Stream))

	// Participant voting (authenticated by the encrypted link alone)
	mux.HandleFunc("GET /vote/{token}", middleware.WithLogging(votingHandler.GetBallot))
	mux.HandleFunc("POST /vote/{token}", middleware.WithLogging(votingHandler.SubmitVotes))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("vote-for-me API v1"))
	})

	return mux
}
