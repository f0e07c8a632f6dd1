package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

type fakeDispatcher struct {
	lastUserID string
	lastText   string
	resp       models.Response
}

func (f *fakeDispatcher) HandleMessage(ctx context.Context, userID, text string, now time.Time) models.Response {
	f.lastUserID, f.lastText = userID, text
	return f.resp
}

func (f *fakeDispatcher) HandleCallback(ctx context.Context, userID, callbackData string, now time.Time) models.Response {
	f.lastUserID, f.lastText = userID, callbackData
	return f.resp
}

func TestHandleProcessDelegatesAndReturnsResponse(t *testing.T) {
	fake := &fakeDispatcher{resp: models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "ok"}}
	srv := NewServer(":0", fake)

	body, _ := json.Marshal(processRequest{UserID: "u1", Message: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/process", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.lastUserID != "u1" || fake.lastText != "hello" {
		t.Fatalf("dispatcher got (%q, %q)", fake.lastUserID, fake.lastText)
	}
	var got models.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !got.Success || got.Text != "ok" {
		t.Fatalf("response = %+v", got)
	}
}

func TestHandleProcessMissingFieldsReturns400(t *testing.T) {
	fake := &fakeDispatcher{}
	srv := NewServer(":0", fake)

	req := httptest.NewRequest(http.MethodPost, "/process", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCallbackDelegates(t *testing.T) {
	fake := &fakeDispatcher{resp: models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "done"}}
	srv := NewServer(":0", fake)

	body, _ := json.Marshal(callbackRequest{UserID: "u1", CallbackData: "cancel"})
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.lastText != "cancel" {
		t.Fatalf("callback data = %q", fake.lastText)
	}
}
