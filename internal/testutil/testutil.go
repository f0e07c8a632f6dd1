// Package testutil provides common test utilities and helpers for GoalForge tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/BTreeMap/GoalForge/internal/api"
	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// NewTestStore builds a fresh SQLite-backed store.Store rooted in a
// per-test temp directory, so tests get real repo behavior without
// managing a shared database file.
func NewTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "goalforge-test.db")
	st, err := store.NewSQLiteStore(store.WithDSN(dbPath))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// NewTestServer creates a test API server wired to the given dispatcher.
// This centralizes the test server creation logic used across multiple
// test files.
func NewTestServer(dispatcher api.Dispatcher) *httptest.Server {
	srv := api.NewServer(":0", dispatcher)
	return httptest.NewServer(srv.Engine())
}

// TestingT is the subset of *testing.T needed by AssertHTTPStatus, allowing
// it to be exercised with a mock in tests of the test helpers themselves.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t TestingT, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertResponse decodes a models.Response body and validates its Success flag.
func AssertResponse(t *testing.T, rr *httptest.ResponseRecorder, wantSuccess bool) models.Response {
	t.Helper()
	var resp models.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success != wantSuccess {
		t.Errorf("expected success=%v, got %v (text=%q error=%q)", wantSuccess, resp.Success, resp.Text, resp.Error)
	}
	return resp
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// SeedTestUser inserts a user with notifications enabled, for tests that
// exercise the scheduler or pipeline against a real store.
func SeedTestUser(t *testing.T, st store.Store, userID, chatID, timezone string) models.User {
	t.Helper()
	u := models.User{
		UserID:              userID,
		ChatID:              chatID,
		Timezone:            timezone,
		NotifyEventReminder: true,
		NotifyGoalDeadline:  true,
		NotifyStepReminder:  true,
		NotifyMotivation:    true,
		NotifyDigest:        true,
	}
	if err := st.UpsertUser(u); err != nil {
		t.Fatalf("failed to seed test user: %v", err)
	}
	return u
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
