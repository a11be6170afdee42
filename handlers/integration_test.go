// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/vote-for-me/models"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/testutil"
)

// TestFullVotingWorkflow tests the complete end-to-end workflow:
// 1. Admin logs in
// 2. Create session
// 3. Add items
// 4. Add participants and mint their voting links
// 5. Start the session
// 6. Participants spend their budgets
// 7. One participant changes their mind
// 8. Live results reflect every ballot
// 9. Complete the session
// 10. Voting links die, results stay frozen
func TestFullVotingWorkflow(t *testing.T) {
	env := newTestEnv(t)
	authHandler := NewAuthHandler(env.admin)

	// Step 1: Login
	req := testutil.MakeRequest("POST", "/api/login", models.LoginRequest{Password: testutil.TestAdminPassword}, nil)
	w := httptest.NewRecorder()
	authHandler.Login(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 1 - Login failed: %d - %s", w.Code, w.Body.String())
	}
	var loginResp models.LoginResponse
	testutil.AssertJSON(t, w, &loginResp)
	env.token = loginResp.Token
	t.Log("Step 1 - Logged in")

	// Step 2: Create a session with the default budget of 10
	req = testutil.MakeRequest("POST", "/api/sessions",
		models.CreateSessionRequest{Title: "Team Lunch", Description: "Pick a place"}, nil)
	w = env.asAdmin(env.sessions.Create, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - Create failed: %d - %s", w.Code, w.Body.String())
	}
	var createResp models.CreateSessionResponse
	testutil.AssertJSON(t, w, &createResp)
	sessionID := createResp.SessionID
	t.Logf("Step 2 - Created session: %s", sessionID)

	// Step 3: Add two items
	itemIDs := make([]int, 0, 2)
	for _, name := range []string{"Pizza", "Tacos"} {
		req = testutil.MakeRequest("POST", "/api/sessions/"+sessionID+"/items",
			models.AddItemRequest{Name: name}, nil)
		req.SetPathValue("id", sessionID)
		w = env.asAdmin(env.sessions.AddItem, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 3 - Add item %q failed: %d - %s", name, w.Code, w.Body.String())
		}
		var itemResp models.AddItemResponse
		testutil.AssertJSON(t, w, &itemResp)
		itemIDs = append(itemIDs, itemResp.Item.ID)
	}
	t.Logf("Step 3 - Added items: %v", itemIDs)

	// Step 4: Add two participants and fetch their voting links
	tokens := make([]string, 0, 2)
	for _, email := range []string{"p1@example.com", "p2@example.com"} {
		req = testutil.MakeRequest("POST", "/api/sessions/"+sessionID+"/participants",
			models.AddParticipantRequest{Email: email}, nil)
		req.SetPathValue("id", sessionID)
		w = env.asAdmin(env.sessions.AddParticipant, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 4 - Add participant failed: %d - %s", w.Code, w.Body.String())
		}
		var addResp models.AddParticipantResponse
		testutil.AssertJSON(t, w, &addResp)

		req = testutil.MakeRequest("GET",
			"/api/sessions/"+sessionID+"/participants/"+addResp.ParticipantID+"/link", nil, nil)
		req.SetPathValue("id", sessionID)
		req.SetPathValue("participantID", addResp.ParticipantID)
		w = env.asAdmin(env.sessions.ParticipantLink, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 4 - Mint link failed: %d - %s", w.Code, w.Body.String())
		}
		var linkResp models.ParticipantLinkResponse
		testutil.AssertJSON(t, w, &linkResp)
		tokens = append(tokens, linkResp.Token)
	}
	t.Log("Step 4 - Added 2 participants with voting links")

	// Step 5: Votes before the session starts are rejected
	w = postVotes(env, tokens[0], map[int]int{itemIDs[0]: 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("Step 5 - Expected 409 voting on a draft, got %d", w.Code)
	}

	req = testutil.MakeRequest("POST", "/api/sessions/"+sessionID+"/start", nil, nil)
	req.SetPathValue("id", sessionID)
	w = env.asAdmin(env.sessions.Start, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Start failed: %d - %s", w.Code, w.Body.String())
	}
	t.Log("Step 5 - Session started")

	// Step 6: Both participants spend their budgets
	w = postVotes(env, tokens[0], map[int]int{itemIDs[0]: 7, itemIDs[1]: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - P1 vote failed: %d - %s", w.Code, w.Body.String())
	}
	// Overspending is rejected and changes nothing
	w = postVotes(env, tokens[1], map[int]int{itemIDs[0]: 11})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Step 6 - Expected 400 over budget, got %d", w.Code)
	}
	w = postVotes(env, tokens[1], map[int]int{itemIDs[0]: 4, itemIDs[1]: 6})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - P2 vote failed: %d - %s", w.Code, w.Body.String())
	}
	t.Log("Step 6 - Both ballots cast")

	// Step 7: P2 changes their mind; the new ballot replaces the old wholesale
	w = postVotes(env, tokens[1], map[int]int{itemIDs[0]: 2, itemIDs[1]: 8})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - P2 revote failed: %d - %s", w.Code, w.Body.String())
	}
	t.Log("Step 7 - P2 revoted")

	// Step 8: Results: Pizza 7+2=9, Tacos 3+8=11
	req = testutil.MakeRequest("GET", "/api/sessions/"+sessionID+"/results", nil, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	env.results.GetResults(w, req)
	var resultsResp models.ResultsResponse
	testutil.AssertJSON(t, w, &resultsResp)
	if resultsResp.VotesCast != 2 {
		t.Errorf("Step 8 - Expected 2 ballots, got %d", resultsResp.VotesCast)
	}
	if resultsResp.Results[0].Name != "Tacos" || resultsResp.Results[0].Votes != 11 {
		t.Errorf("Step 8 - Unexpected leader: %+v", resultsResp.Results[0])
	}
	if resultsResp.Results[1].Name != "Pizza" || resultsResp.Results[1].Votes != 9 {
		t.Errorf("Step 8 - Unexpected runner-up: %+v", resultsResp.Results[1])
	}
	t.Log("Step 8 - Results verified")

	// Step 9: Complete the session
	req = testutil.MakeRequest("POST", "/api/sessions/"+sessionID+"/complete", nil, nil)
	req.SetPathValue("id", sessionID)
	w = env.asAdmin(env.sessions.Complete, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 9 - Complete failed: %d - %s", w.Code, w.Body.String())
	}
	rec, err := env.mgr.Get(sessionID)
	if err != nil || rec.Status != session.StatusCompleted {
		t.Fatalf("Step 9 - Expected completed session, got %+v (%v)", rec, err)
	}
	t.Log("Step 9 - Session completed")

	// Step 10: Links are dead, results frozen
	w = postVotes(env, tokens[0], map[int]int{itemIDs[0]: 10})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Step 10 - Expected dead voting link, got %d", w.Code)
	}
	results, _ := env.mgr.Results(sessionID)
	if results[0].Votes != 11 || results[1].Votes != 9 {
		t.Errorf("Step 10 - Results changed after completion: %+v", results)
	}
	t.Log("Step 10 - Links dead, results frozen")
}
