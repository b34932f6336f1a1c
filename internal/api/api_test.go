package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slicework/pizza-lb-go/internal/game"
	"github.com/slicework/pizza-lb-go/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	srv := NewServer(db, time.Minute)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		db.Close()
	})
	return ts
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func createSession(t *testing.T, ts *httptest.Server, difficulty string) SessionResponse {
	t.Helper()
	var created SessionResponse
	resp := postJSON(t, ts.URL+"/api/v1/sessions", CreateSessionRequest{Difficulty: difficulty}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating session, got %d", resp.StatusCode)
	}
	return created
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)

	created := createSession(t, ts, "easy")
	if created.SessionID == "" {
		t.Error("Expected a session ID")
	}
	if created.Session.State != game.StateRunning {
		t.Errorf("Expected new session running, got %s", created.Session.State)
	}
	if len(created.Session.Servers) != 3 {
		t.Errorf("Expected 3 servers on easy, got %d", len(created.Session.Servers))
	}
}

func TestCreateSessionUnknownDifficulty(t *testing.T) {
	ts := newTestServer(t)

	var engineErr EngineError
	resp := postJSON(t, ts.URL+"/api/v1/sessions", CreateSessionRequest{Difficulty: "nightmare"}, &engineErr)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if engineErr.Type != ErrTypeInvalidDifficulty {
		t.Errorf("Expected error type %s, got %s", ErrTypeInvalidDifficulty, engineErr.Type)
	}
}

func TestTickAndAssignFlow(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "easy")
	base := ts.URL + "/api/v1/sessions/" + created.SessionID

	var ticked TickResponse
	resp := postJSON(t, base+"/tick", TickRequest{DtSeconds: 3.0}, &ticked)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on tick, got %d", resp.StatusCode)
	}
	if len(ticked.Result.Spawned) != 1 {
		t.Fatalf("Expected 1 spawned order after 3s on easy, got %d", len(ticked.Result.Spawned))
	}

	var assigned AssignResponse
	resp = postJSON(t, base+"/assign", AssignRequest{
		OrderID:  ticked.Result.Spawned[0].ID,
		ServerID: "server-1",
	}, &assigned)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on assign, got %d", resp.StatusCode)
	}
	if !assigned.Result.Order.Delivered {
		t.Error("Expected delivered order in assign response")
	}
	if assigned.Session.DeliveredCount != 1 {
		t.Errorf("Expected delivered count 1, got %d", assigned.Session.DeliveredCount)
	}

	var fetched SessionResponse
	resp = getJSON(t, base, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on get, got %d", resp.StatusCode)
	}
	if fetched.Session.DeliveredCount != 1 {
		t.Errorf("Expected persisted delivered count 1, got %d", fetched.Session.DeliveredCount)
	}
}

func TestAssignErrors(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "easy")
	base := ts.URL + "/api/v1/sessions/" + created.SessionID

	postJSON(t, base+"/tick", TickRequest{DtSeconds: 3.0}, nil)

	tests := []struct {
		name     string
		req      AssignRequest
		status   int
		errType  string
	}{
		{"unknown order", AssignRequest{OrderID: "pizza-404", ServerID: "server-1"}, http.StatusNotFound, ErrTypeOrderNotFound},
		{"unknown server", AssignRequest{OrderID: "pizza-1", ServerID: "server-404"}, http.StatusNotFound, ErrTypeServerNotFound},
		{"missing fields", AssignRequest{}, http.StatusBadRequest, ErrTypeValidation},
	}

	for _, tt := range tests {
		var engineErr EngineError
		resp := postJSON(t, base+"/assign", tt.req, &engineErr)
		if resp.StatusCode != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.status, resp.StatusCode)
		}
		if engineErr.Type != tt.errType {
			t.Errorf("%s: expected error type %s, got %s", tt.name, tt.errType, engineErr.Type)
		}
	}
}

func TestGameOverRecordsHighScore(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "easy")
	base := ts.URL + "/api/v1/sessions/" + created.SessionID

	postJSON(t, base+"/tick", TickRequest{DtSeconds: 3.0}, nil)

	var assigned AssignResponse
	postJSON(t, base+"/assign", AssignRequest{OrderID: "pizza-1", ServerID: "server-1"}, &assigned)

	var ticked TickResponse
	postJSON(t, base+"/tick", TickRequest{DtSeconds: 297.0}, &ticked)
	if !ticked.Result.GameOver {
		t.Fatal("Expected game over at session duration")
	}
	// 1 delivery, 0s remaining, 1.0x: floor(10) == 10.
	if ticked.Result.FinalScore != 10 {
		t.Errorf("Expected final score 10, got %d", ticked.Result.FinalScore)
	}
	if !ticked.Result.NewHighScore {
		t.Error("Expected first finished session to set a high score")
	}

	var hs HighScoreResponse
	resp := getJSON(t, ts.URL+"/api/v1/highscores/easy", &hs)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 fetching high score, got %d", resp.StatusCode)
	}
	if hs.Score != 10 {
		t.Errorf("Expected recorded high score 10, got %d", hs.Score)
	}

	// The finished session shows up in history.
	var results ResultsResponse
	getJSON(t, ts.URL+"/api/v1/results?difficulty=easy", &results)
	if results.TotalCount != 1 {
		t.Errorf("Expected 1 recorded result, got %d", results.TotalCount)
	}
}

func TestTickAfterGameOver(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "hard")
	base := ts.URL + "/api/v1/sessions/" + created.SessionID

	postJSON(t, base+"/tick", TickRequest{DtSeconds: 180.0}, nil)

	var engineErr EngineError
	resp := postJSON(t, base+"/tick", TickRequest{DtSeconds: 1.0}, &engineErr)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 ticking a finished session, got %d", resp.StatusCode)
	}
	if engineErr.Type != ErrTypeSessionState {
		t.Errorf("Expected error type %s, got %s", ErrTypeSessionState, engineErr.Type)
	}
}

func TestRestart(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "medium")
	base := ts.URL + "/api/v1/sessions/" + created.SessionID

	postJSON(t, base+"/tick", TickRequest{DtSeconds: 240.0}, nil)

	var restarted SessionResponse
	resp := postJSON(t, base+"/restart", nil, &restarted)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on restart, got %d", resp.StatusCode)
	}
	if restarted.Session.State != game.StateRunning {
		t.Errorf("Expected running after restart, got %s", restarted.Session.State)
	}
	if restarted.Session.Elapsed != 0 {
		t.Errorf("Expected elapsed reset, got %v", restarted.Session.Elapsed)
	}
}

func TestSessionNotFound(t *testing.T) {
	ts := newTestServer(t)

	var engineErr EngineError
	resp := getJSON(t, ts.URL+"/api/v1/sessions/00000000-0000-0000-0000-000000000000", &engineErr)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if engineErr.Type != ErrTypeSessionNotFound {
		t.Errorf("Expected error type %s, got %s", ErrTypeSessionNotFound, engineErr.Type)
	}

	resp = getJSON(t, ts.URL+"/api/v1/sessions/not-a-uuid", &engineErr)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed ID, got %d", resp.StatusCode)
	}
}

func TestListDifficulties(t *testing.T) {
	ts := newTestServer(t)

	var resp DifficultiesResponse
	r := getJSON(t, ts.URL+"/api/v1/difficulties", &resp)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", r.StatusCode)
	}
	if len(resp.Difficulties) < 3 {
		t.Errorf("Expected at least 3 tiers, got %d", len(resp.Difficulties))
	}
}

func TestHighScoreUnknownTier(t *testing.T) {
	ts := newTestServer(t)

	var engineErr EngineError
	resp := getJSON(t, ts.URL+"/api/v1/highscores/nightmare", &engineErr)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if engineErr.Type != ErrTypeInvalidDifficulty {
		t.Errorf("Expected error type %s, got %s", ErrTypeInvalidDifficulty, engineErr.Type)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	var health HealthCheckResponse
	getJSON(t, ts.URL+"/health", &health)
	if health.Status != HealthStatusHealthy {
		t.Errorf("Expected healthy status, got %s", health.Status)
	}
	if health.Checks["database"].Status != HealthStatusHealthy {
		t.Errorf("Expected healthy database check, got %+v", health.Checks["database"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var info VersionInfo
	resp := getJSON(t, ts.URL+"/api/v1/version", &info)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if info.EngineVersion == "" {
		t.Error("Expected a non-empty engine version")
	}
}

func TestResultsPaginationValidation(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{"page=0", "page=abc", "per_page=0", "per_page=1000"} {
		var engineErr EngineError
		resp := getJSON(t, fmt.Sprintf("%s/api/v1/results?%s", ts.URL, q), &engineErr)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, resp.StatusCode)
		}
	}
}
