package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intrafind/ihub-apps-sub007/gateway"
)

const (
	testApp  = "a1"
	testChat = "c1"
)

// sseWriter writes named events to a flushing response writer.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSEWriter(t *testing.T, w http.ResponseWriter) *sseWriter {
	t.Helper()
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &sseWriter{w: w, f: f}
}

func (s *sseWriter) event(name, data string) {
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.f.Flush()
}

func collectHandler(buf int) (Handler, chan Event) {
	ch := make(chan Event, buf)
	return func(ev Event) { ch <- ev }, ch
}

func waitEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func startSession(t *testing.T, serverURL string, cfg Config) (*Session, chan Event) {
	t.Helper()
	handler, events := collectHandler(16)
	cfg.BaseURL = serverURL
	cfg.AppID = testApp
	cfg.ChatID = testChat
	cfg.Handler = handler

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Cleanup)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, events
}

func TestSessionStreamsToCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		sse.event("chunk", `{"content":"Hel"}`)
		sse.event("chunk", `{"content":"Hello"}`)
		sse.event("done", `{"finishReason":"stop"}`)
	}))
	defer server.Close()

	s, events := startSession(t, server.URL, Config{})

	if ev := waitEvent(t, events); ev.Kind != EventConnected {
		t.Fatalf("first event = %v, want connected", ev.Kind)
	}

	first := waitEvent(t, events)
	if first.Kind != EventChunk || first.Content != "Hel" {
		t.Errorf("first chunk = %+v", first)
	}
	second := waitEvent(t, events)
	if second.Kind != EventChunk || second.Content != "Hello" {
		t.Errorf("second chunk = %+v, want cumulative body", second)
	}

	done := waitEvent(t, events)
	if done.Kind != EventDone {
		t.Fatalf("final event = %v, want done", done.Kind)
	}
	if done.Content != "Hello" || done.FinishReason != "stop" {
		t.Errorf("done = %+v", done)
	}

	if got := s.State(); got != Done {
		t.Errorf("state = %v, want Done", got)
	}
	if !s.State().Terminal() {
		t.Error("Done should be terminal")
	}
}

func TestSessionConnectTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newSSEWriter(t, w)
		// Never send connected.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	s, events := startSession(t, server.URL, Config{ConnectTimeout: 30 * time.Millisecond})

	ev := waitEvent(t, events)
	if ev.Kind != EventError {
		t.Fatalf("event = %v, want error", ev.Kind)
	}
	if !errors.Is(ev.Err, ErrConnectTimeout) {
		t.Errorf("err = %v, want ErrConnectTimeout", ev.Err)
	}
	if got := s.State(); got != Errored {
		t.Errorf("state = %v, want Errored", got)
	}
}

func TestSessionServerErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		sse.event("error", `{"code":"quota_exceeded","message":"quota exhausted"}`)
	}))
	defer server.Close()

	s, events := startSession(t, server.URL, Config{})

	waitEvent(t, events) // connected
	ev := waitEvent(t, events)
	if ev.Kind != EventError {
		t.Fatalf("event = %v, want error", ev.Kind)
	}
	if ev.Code != "quota_exceeded" || ev.Message != "quota exhausted" {
		t.Errorf("error event = %+v", ev)
	}
	if !errors.Is(ev.Err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", ev.Err)
	}
	if got := s.State(); got != Errored {
		t.Errorf("state = %v, want Errored", got)
	}
}

func TestSessionConnectionClosedWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		sse.event("chunk", `{"content":"partial"}`)
		// Handler returns, closing the stream mid-reply.
	}))
	defer server.Close()

	_, events := startSession(t, server.URL, Config{})

	waitEvent(t, events) // connected
	waitEvent(t, events) // chunk

	done := waitEvent(t, events)
	if done.Kind != EventDone {
		t.Fatalf("event = %v, want done", done.Kind)
	}
	if done.FinishReason != FinishConnectionClosed {
		t.Errorf("finish reason = %q, want %q", done.FinishReason, FinishConnectionClosed)
	}
	if done.Content != "partial" {
		t.Errorf("content = %q, want accumulated text", done.Content)
	}
}

func TestSessionClosedBeforeHandshake(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Open the channel, then close it without a single event.
		newSSEWriter(t, w)
	}))
	defer server.Close()

	s, events := startSession(t, server.URL, Config{})

	ev := waitEvent(t, events)
	if ev.Kind != EventError {
		t.Fatalf("event = %v, want error (a pre-handshake drain is not a completed reply)", ev.Kind)
	}
	if ev.Err == nil {
		t.Error("expected a connect failure error")
	}
	if got := s.State(); got != Errored {
		t.Errorf("state = %v, want Errored", got)
	}
}

func TestSessionCleanupStopsLiveGeneration(t *testing.T) {
	var stopCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/apps/a1/chat/c1", func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		sse.event("chunk", `{"content":"in progress"}`)
		<-r.Context().Done()
	})
	mux.HandleFunc("POST /api/apps/a1/chat/c1/stop", func(w http.ResponseWriter, _ *http.Request) {
		stopCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	s, events := startSession(t, server.URL, Config{Gateway: gw})

	waitEvent(t, events) // connected
	waitEvent(t, events) // chunk

	s.Cleanup()

	// Discarding a live session must still halt server-side generation.
	deadline := time.Now().Add(2 * time.Second)
	for stopCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if stopCalls.Load() != 1 {
		t.Errorf("stop calls = %d, want 1", stopCalls.Load())
	}

	// Cleanup after a terminal outcome must not stop again.
	s.Cleanup()
	time.Sleep(50 * time.Millisecond)
	if stopCalls.Load() != 1 {
		t.Errorf("stop calls after repeat cleanup = %d, want 1", stopCalls.Load())
	}

	select {
	case ev := <-events:
		t.Errorf("cleanup must not notify, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionCancelStopsServer(t *testing.T) {
	var stopCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/apps/a1/chat/c1", func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		sse.event("chunk", `{"content":"in progress"}`)
		<-r.Context().Done()
	})
	mux.HandleFunc("POST /api/apps/a1/chat/c1/stop", func(w http.ResponseWriter, _ *http.Request) {
		stopCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	s, events := startSession(t, server.URL, Config{Gateway: gw})

	waitEvent(t, events) // connected
	waitEvent(t, events) // chunk

	s.Cancel(context.Background())

	ev := waitEvent(t, events)
	if ev.Kind != EventCancelled {
		t.Fatalf("event = %v, want cancelled", ev.Kind)
	}
	if ev.Reason != ReasonUser {
		t.Errorf("reason = %q, want %q", ev.Reason, ReasonUser)
	}
	if ev.Content != "in progress" {
		t.Errorf("content = %q, want accumulated text", ev.Content)
	}
	if got := s.State(); got != Cancelled {
		t.Errorf("state = %v, want Cancelled", got)
	}

	// The stop call is fired from a detached goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for stopCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if stopCalls.Load() != 1 {
		t.Errorf("stop calls = %d, want 1", stopCalls.Load())
	}

	// A second cancel is a no-op.
	s.Cancel(context.Background())
	select {
	case ev := <-events:
		t.Errorf("unexpected event after terminal state: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionHeartbeatInactiveForcesCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/apps/a1/chat/c1", func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		<-r.Context().Done()
	})
	mux.HandleFunc("GET /api/apps/a1/chat/c1/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"active":false}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	s, events := startSession(t, server.URL, Config{
		Gateway:           gw,
		HeartbeatInterval: 20 * time.Millisecond,
	})

	waitEvent(t, events) // connected

	ev := waitEvent(t, events)
	if ev.Kind != EventCancelled {
		t.Fatalf("event = %v, want cancelled", ev.Kind)
	}
	if ev.Reason != ReasonInactive {
		t.Errorf("reason = %q, want %q", ev.Reason, ReasonInactive)
	}
	if got := s.State(); got != Cancelled {
		t.Errorf("state = %v, want Cancelled", got)
	}
}

func TestSessionHeartbeatProbeErrorsAreNotFatal(t *testing.T) {
	var probes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/apps/a1/chat/c1", func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		<-r.Context().Done()
	})
	mux.HandleFunc("GET /api/apps/a1/chat/c1/status", func(w http.ResponseWriter, _ *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	// Close via t.Cleanup so the session's own cleanup (registered later,
	// run first) releases the push connection before the server waits on it.
	t.Cleanup(server.Close)

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	s, events := startSession(t, server.URL, Config{
		Gateway:           gw,
		HeartbeatInterval: 20 * time.Millisecond,
	})

	waitEvent(t, events) // connected

	deadline := time.Now().Add(2 * time.Second)
	for probes.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if probes.Load() < 2 {
		t.Fatal("expected repeated probes despite failures")
	}
	if got := s.State(); got != Connected {
		t.Errorf("state = %v, want Connected", got)
	}
}

func TestSessionCleanupIsIdempotentAndSilent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("connected", "{}")
		<-r.Context().Done()
	}))
	defer server.Close()

	s, events := startSession(t, server.URL, Config{})
	waitEvent(t, events) // connected

	s.Cleanup()
	s.Cleanup()
	s.Cleanup()

	if got := s.State(); got != Cancelled {
		t.Errorf("state = %v, want Cancelled", got)
	}
	select {
	case ev := <-events:
		t.Errorf("cleanup must not notify, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionStartTwice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newSSEWriter(t, w)
		<-r.Context().Done()
	}))
	// Close via t.Cleanup so the session's own cleanup (registered later,
	// run first) releases the push connection before the server waits on it.
	t.Cleanup(server.Close)

	s, _ := startSession(t, server.URL, Config{})
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestSessionConfigValidation(t *testing.T) {
	handler := func(Event) {}
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"missing base URL", Config{AppID: "a", ChatID: "c", Handler: handler}, ErrMissingBaseURL},
		{"missing app", Config{BaseURL: "http://x", ChatID: "c", Handler: handler}, ErrMissingApp},
		{"missing chat", Config{BaseURL: "http://x", AppID: "a", Handler: handler}, ErrMissingChat},
		{"missing handler", Config{BaseURL: "http://x", AppID: "a", ChatID: "c"}, ErrMissingHandler},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, tc.want) {
				t.Errorf("New = %v, want %v", err, tc.want)
			}
		})
	}
}
