// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
)

// keepAliveInterval is how often an SSE comment is written to detect dead
// connections behind buffering proxies.
const keepAliveInterval = 25 * time.Second

type LiveHandler struct {
	mgr *manager.Manager
	b   *broadcast.Broadcaster
}

func NewLiveHandler(mgr *manager.Manager, b *broadcast.Broadcaster) *LiveHandler {
	return &LiveHandler{mgr: mgr, b: b}
}

// Stream handles GET /api/sessions/{id}/events: a Server-Sent Events feed of
// the session's live updates. The first event is always a tally snapshot so
// late joiners render current state without waiting for the next ballot.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	rec, err := h.mgr.Get(sessionID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sub := h.b.Subscribe(sessionID)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot := broadcast.Event{
		SessionID: sessionID,
		Kind:      broadcast.KindTallyUpdated,
		At:        time.Now().UTC(),
		Payload: broadcast.TallyUpdated{
			Results:          rec.Results(),
			VotedCount:       rec.VotedCount(),
			ParticipantCount: len(rec.Participants),
		},
	}
	if err := writeSSE(w, snapshot); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Kind == broadcast.KindSessionDeleted {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev broadcast.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode live event", "session_id", ev.SessionID, "error", err)
		return err
	}
	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
