// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/testutil"
)

// waitForSubscriber polls until the session's room is non-empty.
func waitForSubscriber(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.b.RoomSize(sessionID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Stream never subscribed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLiveStream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := testutil.CreateTestSession(t, env.mgr, session.StatusDraft)
	pid := testutil.AddTestParticipant(t, env.mgr, rec.ID, "alice@example.com")
	if err := env.mgr.Start(ctx, rec.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/sessions/"+rec.ID+"/events", nil).WithContext(streamCtx)
	req.SetPathValue("id", rec.ID)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.live.Stream(w, req)
	}()

	waitForSubscriber(t, env, rec.ID)

	// A vote lands while the stream is open
	if err := env.mgr.SubmitVotes(ctx, rec.ID, pid, map[int]int{1: 3}); err != nil {
		t.Fatalf("SubmitVotes failed: %v", err)
	}

	// Give the event a moment to flush, then hang up
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not terminate on disconnect")
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}
	body := w.Body.String()
	// The initial snapshot plus the live tally update
	if strings.Count(body, "event: tally_updated") < 2 {
		t.Errorf("Expected snapshot and live tally events, got:\n%s", body)
	}
	if !strings.Contains(body, `"voted_count":1`) {
		t.Errorf("Expected updated tally in stream, got:\n%s", body)
	}
}

func TestLiveStreamUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/api/sessions/nope/events", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	env.live.Stream(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestLiveStreamEndsOnDeletion(t *testing.T) {
	env := newTestEnv(t)
	rec := testutil.CreateTestSession(t, env.mgr, session.StatusActive)

	req := httptest.NewRequest("GET", "/api/sessions/"+rec.ID+"/events", nil)
	req.SetPathValue("id", rec.ID)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.live.Stream(w, req)
	}()

	waitForSubscriber(t, env, rec.ID)
	if err := env.mgr.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not end after session deletion")
	}
	if !strings.Contains(w.Body.String(), "event: session_deleted") {
		t.Error("Expected a session_deleted event before the stream closed")
	}
}
