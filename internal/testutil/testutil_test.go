package testutil

import (
	"net/http/httptest"
	"testing"
)

// mockTestingT implements a subset of testing.T for testing our test helpers.
type mockTestingT struct {
	failed   bool
	errorMsg string
}

func (m *mockTestingT) Helper() {}

func (m *mockTestingT) Errorf(format string, args ...interface{}) {
	m.failed = true
}

func (m *mockTestingT) Fatalf(format string, args ...interface{}) {
	m.failed = true
	panic("test failed")
}

func TestNewTestStoreBuildsAUsableStore(t *testing.T) {
	st := NewTestStore(t)
	u := SeedTestUser(t, st, "u1", "chat1", "UTC")
	got, err := st.GetUser(u.UserID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.ChatID != "chat1" {
		t.Errorf("GetUser() = %+v, want the seeded user", got)
	}
}

func TestAssertHTTPStatusPassesAndFails(t *testing.T) {
	mockT := &mockTestingT{}
	AssertHTTPStatus(mockT, 200, 200, "matching")
	if mockT.failed {
		t.Error("AssertHTTPStatus(200, 200) reported failure, want pass")
	}

	mockT = &mockTestingT{}
	AssertHTTPStatus(mockT, 200, 404, "mismatched")
	if !mockT.failed {
		t.Error("AssertHTTPStatus(200, 404) reported pass, want failure")
	}
}

func TestAssertResponseChecksSuccessField(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Body.WriteString(`{"success":true,"text":"ok"}`)

	resp := AssertResponse(t, rr, true)
	if resp.Text != "ok" {
		t.Errorf("AssertResponse() = %+v, want text %q", resp, "ok")
	}
}

func TestCreateHTTPRequestSetsMethodURLAndBody(t *testing.T) {
	req := CreateHTTPRequest(t, "POST", "/process", map[string]string{"user_id": "u1"})
	if req.Method != "POST" {
		t.Errorf("req.Method = %q, want POST", req.Method)
	}
	if req.URL.Path != "/process" {
		t.Errorf("req.URL.Path = %q, want /process", req.URL.Path)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Error("CreateHTTPRequest did not set Content-Type: application/json")
	}
}

func TestMustMarshalAndUnmarshalJSONRoundTrip(t *testing.T) {
	data := MustMarshalJSON(t, map[string]int{"x": 1})
	var target map[string]int
	MustUnmarshalJSON(t, data, &target)
	if target["x"] != 1 {
		t.Errorf("round trip = %v, want {x:1}", target)
	}
}
