// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/vote-for-me/auth"
	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/cliparse"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/session"
	"github.com/danielhkuo/vote-for-me/store"
)

// TestAdminPassword is the organizer password used throughout the tests
const TestAdminPassword = "test-admin-password"

// TestJWTSecret signs admin tokens in tests
const TestJWTSecret = "test-jwt-secret"

// SetupTestStore creates a FileStore rooted in a fresh temp directory
func SetupTestStore(t *testing.T) *store.FileStore {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return st
}

// SetupTestManager creates a Manager over a temp-dir store and a fresh broadcaster
func SetupTestManager(t *testing.T) (*manager.Manager, *broadcast.Broadcaster) {
	t.Helper()

	b := broadcast.New()
	return manager.New(SetupTestStore(t), b), b
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          8443,
		DataDir:       "unused",
		BaseURL:       "http://test.local",
		AdminPassword: TestAdminPassword,
		JWTSecret:     TestJWTSecret,
	}
}

// SetupTestAdmin builds the admin authenticator with the test credentials
func SetupTestAdmin(t *testing.T) *auth.Admin {
	t.Helper()

	admin, err := auth.NewAdmin(TestAdminPassword, TestJWTSecret)
	if err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return admin
}

// AdminToken logs in and returns a valid bearer token
func AdminToken(t *testing.T, admin *auth.Admin) string {
	t.Helper()

	token, err := admin.Login(TestAdminPassword)
	if err != nil {
		t.Fatalf("Failed to login test admin: %v", err)
	}
	return token
}

// CreateTestSession creates a session in the given status with two items
// ("Pizza", "Tacos") and the default budget.
// status should be session.StatusDraft, StatusActive, or StatusCompleted
func CreateTestSession(t *testing.T, mgr *manager.Manager, status string) *session.Session {
	t.Helper()
	ctx := context.Background()

	rec, err := mgr.Create(ctx, "Test Session", "A test session", "admin", session.RoleOwner, session.DefaultSettings())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	if _, err := mgr.AddItem(ctx, rec.ID, "Pizza", "Cheesy"); err != nil {
		t.Fatalf("Failed to add test item: %v", err)
	}
	if _, err := mgr.AddItem(ctx, rec.ID, "Tacos", "Crunchy"); err != nil {
		t.Fatalf("Failed to add test item: %v", err)
	}

	if status == session.StatusActive || status == session.StatusCompleted {
		if err := mgr.Start(ctx, rec.ID); err != nil {
			t.Fatalf("Failed to start test session: %v", err)
		}
	}
	if status == session.StatusCompleted {
		if err := mgr.Complete(ctx, rec.ID); err != nil {
			t.Fatalf("Failed to complete test session: %v", err)
		}
	}

	current, err := mgr.Get(rec.ID)
	if err != nil {
		t.Fatalf("Failed to reload test session: %v", err)
	}
	return current
}

// AddTestParticipant registers a participant and returns their id
func AddTestParticipant(t *testing.T, mgr *manager.Manager, sessionID, email string) string {
	t.Helper()

	pid, err := mgr.AddParticipant(context.Background(), sessionID, email)
	if err != nil {
		t.Fatalf("Failed to add test participant: %v", err)
	}
	return pid
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
