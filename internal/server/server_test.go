package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/internal/jobs"
	"github.com/bhupeshcoding/codecoach/internal/registry"
	"github.com/bhupeshcoding/codecoach/internal/store"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.General.ProjectName = "Scalable AI Backend"
	cfg.General.Version = "1.0.0"
	cfg.General.Listen = ":8000"
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.ResponseTTL = time.Minute
	cfg.Cache.RecsTTL = time.Minute
	cfg.RateLimit.ChatMaxCalls = 50
	cfg.RateLimit.ChatWindow = time.Minute
	cfg.RateLimit.ProblemsMaxCalls = 100
	cfg.RateLimit.ProblemsWindow = time.Minute
	cfg.AI.MotivationInterval = time.Millisecond
	cfg.AI.MotivationDuration = 5 * time.Millisecond
	cfg.AI.TrainMaxAttempts = 1
	return cfg
}

func testServer(cfg *config.Config) *Server {
	cm := cache.NewManager(nil)
	svc := ai.New(cfg, cm, ai.NewMotivator(nil, nil))
	return New(cfg, cm, nil, svc, registry.New(), jobs.NewManager())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["version"] != "1.0.0" {
		t.Fatalf("unexpected version %v", resp["version"])
	}
	if resp["motivation"] == "" {
		t.Fatal("expected motivation in root payload")
	}
}

func TestHealthReportsCacheStatus(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Fatalf("unexpected status %v", resp["status"])
	}
	if resp["cache_status"] != "disconnected" {
		t.Fatalf("expected disconnected cache got %v", resp["cache_status"])
	}
}

// Every error response carries the {error, status_code, motivation} envelope
// with a non-empty motivation string.
func TestErrorEnvelope(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/train/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	var resp struct {
		Error      string `json:"error"`
		StatusCode int    `json:"status_code"`
		Motivation string `json:"motivation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("envelope status %d does not match %d", resp.StatusCode, rec.Code)
	}
	if resp.Error == "" {
		t.Fatal("expected error message")
	}
	if resp.Motivation == "" {
		t.Fatal("expected non-empty motivation")
	}
}

func TestServerFailureEnvelope(t *testing.T) {
	s := testServer(testConfig())
	s.Echo().GET("/boom", func(c echo.Context) error {
		return errors.New("kaboom")
	})

	rec := doRequest(s, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}

	var resp struct {
		Error      string `json:"error"`
		StatusCode int    `json:"status_code"`
		Motivation string `json:"motivation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" || resp.Motivation == "" {
		t.Fatalf("incomplete envelope %+v", resp)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("envelope status %d", resp.StatusCode)
	}
}

func TestRateLimitRejectionEnvelope(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.ProblemsMaxCalls = 1
	s := testServer(cfg)

	if rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/problems/top150", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request expected 200 got %d", rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/problems/top150", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp["error"].(string), "rate limit exceeded: 1 calls per 60 seconds") {
		t.Fatalf("unexpected error message %v", resp["error"])
	}
	if resp["motivation"] == "" {
		t.Fatal("expected motivation in rate limit envelope")
	}
}

func TestTop150Enrichment(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/problems/top150", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp struct {
		TotalProblems int              `json:"total_problems"`
		Problems      []map[string]any `json:"problems"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalProblems != 5 {
		t.Fatalf("expected 5 problems got %d", resp.TotalProblems)
	}
	for _, p := range resp.Problems {
		if p["daily_tip"] == "" {
			t.Fatalf("problem %v missing daily tip", p["id"])
		}
		if p["encouragement"] == "" {
			t.Fatalf("problem %v missing encouragement", p["id"])
		}
	}
}

func TestTop150DifficultyFilterFromStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Seed(ai.TopProblems(), nil, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := testConfig()
	cm := cache.NewManager(nil)
	svc := ai.New(cfg, cm, ai.NewMotivator(nil, nil))
	s := New(cfg, cm, st, svc, registry.New(), jobs.NewManager())

	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/problems/top150?difficulty=Hard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp struct {
		TotalProblems int              `json:"total_problems"`
		Problems      []map[string]any `json:"problems"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalProblems != 1 {
		t.Fatalf("expected 1 hard problem got %d", resp.TotalProblems)
	}
	if resp.Problems[0]["difficulty"] != "Hard" {
		t.Fatalf("unexpected problem %v", resp.Problems[0])
	}
}

func TestChatNonStreaming(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodPost, "/api/v1/chat/chat", `{"message":"hello","stream":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["response"] == "" {
		t.Fatal("expected a response")
	}
	if resp["motivation"] == "" {
		t.Fatal("expected motivation")
	}
}

func TestChatStreamingEmitsTokensAndFinal(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodPost, "/api/v1/chat/chat", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"token"`) {
		t.Fatal("expected token events in stream")
	}
	lines := strings.Split(strings.TrimSpace(body), "\n\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, `"done":true`) {
		t.Fatalf("expected terminal done frame, got %q", last)
	}
}

func TestSolutionStreamEndsWithDone(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/problems/1/solution/stream", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"content"`) {
		t.Fatal("expected content frames")
	}
	lines := strings.Split(strings.TrimSpace(body), "\n\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, `"done":true`) {
		t.Fatalf("expected terminal done frame, got %q", last)
	}
}

func TestTrainReturnsQueryableJob(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodPost, "/api/v1/leetcode/train", `{"data":[{"x":1},{"x":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "training_initiated" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if resp.JobID == "" {
		t.Fatal("expected a job id")
	}

	// The job handle must be queryable; poll until it leaves running.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = doRequest(s, http.MethodGet, "/api/v1/leetcode/train/"+resp.JobID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status lookup expected 200 got %d", rec.Code)
		}
		var snap struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == "completed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/chat/suggestions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/leetcode/recommendations/u1?skill_level=beginner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp struct {
		SkillLevel      string           `json:"skill_level"`
		Recommendations []map[string]any `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SkillLevel != "beginner" {
		t.Fatalf("unexpected skill level %q", resp.SkillLevel)
	}
	for _, r := range resp.Recommendations {
		if r["difficulty"] != "Easy" {
			t.Fatalf("beginner got %v problem", r["difficulty"])
		}
	}
}

func TestChatHistoryTruncatesToLimit(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/chat/history/u1?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp struct {
		UserID  string           `json:"user_id"`
		History []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != "u1" {
		t.Fatalf("unexpected user id %q", resp.UserID)
	}
	if len(resp.History) != 1 {
		t.Fatalf("expected 1 entry got %d", len(resp.History))
	}
}

func TestChatFeedbackAcknowledged(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodPost, "/api/v1/chat/feedback", `{"rating":5,"comment":"great"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp struct {
		FeedbackID string `json:"feedback_id"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "received" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if !strings.HasPrefix(resp.FeedbackID, "feedback_") {
		t.Fatalf("unexpected feedback id %q", resp.FeedbackID)
	}
}

func TestWebSocketChat(t *testing.T) {
	s := testServer(testConfig())
	srv := httptest.NewServer(s.Echo())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws/chat"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() map[string]any {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return msg
	}

	welcome := read()
	if welcome["type"] != "welcome" {
		t.Fatalf("expected welcome frame got %v", welcome)
	}
	if welcome["motivation"] == "" {
		t.Fatal("expected motivation in welcome frame")
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"message":"I need some motivation"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply := read()
	if reply["type"] != "ai_response" {
		t.Fatalf("expected ai_response frame got %v", reply)
	}
	if reply["message"] == "" || reply["motivation"] == "" {
		t.Fatalf("incomplete reply %v", reply)
	}
	if _, ok := reply["timestamp"].(float64); !ok {
		t.Fatalf("expected numeric timestamp got %v", reply["timestamp"])
	}

	// Malformed input gets a best-effort error push, not a teardown.
	if err := conn.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	errFrame := read()
	if errFrame["type"] != "error" {
		t.Fatalf("expected error frame got %v", errFrame)
	}

	// The channel is still usable after the error.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"message":"hello"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if reply := read(); reply["type"] != "ai_response" {
		t.Fatalf("expected ai_response after recovery got %v", reply)
	}
}

func TestProgressStatsMock(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/stats/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["problems_solved"].(float64) != 45 {
		t.Fatalf("unexpected problems_solved %v", resp["problems_solved"])
	}
}

func TestMotivationStream(t *testing.T) {
	s := testServer(testConfig())
	rec := doRequest(s, http.MethodGet, "/api/v1/leetcode/motivation/stream", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"quote"`) || !strings.Contains(body, `"tip"`) {
		t.Fatal("expected quote/tip frames")
	}
	if !strings.Contains(body, `"done":true`) {
		t.Fatal("expected terminal done frame")
	}
}
