package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/goleak"

	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/rzbill/tally/internal/runtime"
	"github.com/rzbill/tally/internal/stable"
	logpkg "github.com/rzbill/tally/pkg/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) (*Server, *runtime.Runtime, *logpkg.RingOutput) {
	t.Helper()
	ring := logpkg.NewRingOutput(128)
	logger, err := logpkg.ApplyConfig(&logpkg.Config{Level: "debug", Format: "text", DisableConsole: true, Outputs: []logpkg.Output{ring}})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := cfgpkg.Default()
	cfg.Backend = cfgpkg.BackendMemory
	cfg.BucketSizePages = 1
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger, Memory: stable.NewVectorMemory(0)})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	arg, _ := rt.ArgFor(cfgpkg.ModeAuto, "Hello")
	if err := rt.Start(arg); err != nil {
		t.Fatalf("start: %v", err)
	}
	s, err := New(rt, logger, WithLogRing(ring), WithVersion("test"))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s, rt, ring
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthHandler(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestGreetAndCounts(t *testing.T) {
	s, _, _ := newTestServer(t)
	for _, name := range []string{"a", "b", "a"} {
		w := do(t, s, http.MethodPost, "/v1/greet", `{"name":"`+name+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("greet status: %d %s", w.Code, w.Body.String())
		}
		var resp greetBody
		decode(t, w, &resp)
		if resp.Message != "Hello, "+name+"!" {
			t.Fatalf("message = %q", resp.Message)
		}
	}

	var count struct {
		Name  string `json:"name"`
		Count uint64 `json:"count"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/greeted?name=a", ""), &count)
	if count.Count != 2 {
		t.Fatalf("count(a) = %d", count.Count)
	}
	var total struct {
		Total uint64 `json:"total"`
	}
	decode(t, do(t, s, http.MethodGet, "/v1/greeted/total", ""), &total)
	if total.Total != 2 {
		t.Fatalf("distinct = %d", total.Total)
	}
	decode(t, do(t, s, http.MethodGet, "/v1/events/total", ""), &total)
	if total.Total != 3 {
		t.Fatalf("events = %d", total.Total)
	}
}

type greetBody struct {
	Message string `json:"message"`
}

func TestGreetRejectsBadInput(t *testing.T) {
	s, _, _ := newTestServer(t)
	if w := do(t, s, http.MethodGet, "/v1/greet", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /v1/greet status = %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/greet", "{"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/greeted", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name status = %d", w.Code)
	}
}

func TestEventsPaging(t *testing.T) {
	s, rt, _ := newTestServer(t)
	for _, n := range []string{"ann", "bob", "amy", "cal"} {
		if err := rt.RecordAndIncrement(context.Background(), n); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	type page struct {
		Items []struct {
			Seq     uint64 `json:"seq"`
			Payload string `json:"payload"`
		} `json:"items"`
		Next string `json:"next"`
	}
	var p1 page
	decode(t, do(t, s, http.MethodGet, "/v1/events?limit=2", ""), &p1)
	if len(p1.Items) != 2 || p1.Items[0].Payload != "ann" || p1.Next == "" {
		t.Fatalf("page 1 = %+v", p1)
	}
	var p2 page
	decode(t, do(t, s, http.MethodGet, "/v1/events?limit=2&start="+p1.Next, ""), &p2)
	if len(p2.Items) != 2 || p2.Items[0].Seq != 2 || p2.Next != "" {
		t.Fatalf("page 2 = %+v", p2)
	}

	var filtered page
	decode(t, do(t, s, http.MethodGet, `/v1/events?filter=text.startsWith(%22a%22)&reverse=true`, ""), &filtered)
	if len(filtered.Items) != 2 || filtered.Items[0].Payload != "amy" || filtered.Items[1].Payload != "ann" {
		t.Fatalf("filtered = %+v", filtered)
	}

	if w := do(t, s, http.MethodGet, "/v1/events?filter=1%2B", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/events?start=%21%21", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad token status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, rt, _ := newTestServer(t)
	if _, err := rt.Greet(context.Background(), "a"); err != nil {
		t.Fatalf("greet: %v", err)
	}
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; version=0.0.4" {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"# TYPE stable_memory_bytes gauge", "event_log_records 1 ", "greeted_names_distinct 1 ", `process_start_mode{mode="init"} 1 `} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s, rt, _ := newTestServer(t)
	_, _ = rt.Greet(context.Background(), "Ada")
	w := do(t, s, http.MethodGet, "/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<h1>Hello</h1>") || !strings.Contains(w.Body.String(), "Ada") {
		t.Fatalf("unexpected body:\n%s", w.Body.String())
	}
}

func TestLogsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	type logs struct {
		Entries []struct {
			Priority string `json:"priority"`
			Message  string `json:"message"`
			Counter  uint64 `json:"counter"`
		} `json:"entries"`
	}

	var all logs
	decode(t, do(t, s, http.MethodGet, "/logs", ""), &all)
	if len(all.Entries) == 0 {
		t.Fatal("expected startup log entries")
	}
	for i := 1; i < len(all.Entries); i++ {
		if all.Entries[i-1].Counter > all.Entries[i].Counter {
			t.Fatalf("default order should be ascending: %+v", all.Entries)
		}
	}

	var info logs
	decode(t, do(t, s, http.MethodGet, "/logs?priority=info", ""), &info)
	for _, e := range info.Entries {
		if e.Priority == "DEBUG" {
			t.Fatalf("debug entry in info view: %+v", e)
		}
	}

	if w := do(t, s, http.MethodGet, "/logs?time=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad time status = %d", w.Code)
	}
}
