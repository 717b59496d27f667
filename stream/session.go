package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/intrafind/ihub-apps-sub007/gateway"
	"github.com/intrafind/ihub-apps-sub007/observe"
)

// Default session timing.
const (
	// DefaultConnectTimeout bounds how long the channel may stay in
	// Connecting before the session errors out.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHeartbeatInterval is how often the server-side session is
	// probed while the channel is live.
	DefaultHeartbeatInterval = 30 * time.Second

	// sideChannelTimeout bounds heartbeat and stop calls.
	sideChannelTimeout = 5 * time.Second
)

// FinishConnectionClosed is the finish reason reported when the push
// channel closes without a done event.
const FinishConnectionClosed = "connection-closed"

// Wire event names of the push channel.
const (
	wireConnected = "connected"
	wireChunk     = "chunk"
	wireDone      = "done"
	wireError     = "error"
)

// Config configures a streaming session.
type Config struct {
	// BaseURL is the backend base URL (required).
	BaseURL string

	// AppID is the application identifier (required).
	AppID string

	// ChatID is the chat identifier (required).
	ChatID string

	// Handler receives all session outcomes (required).
	Handler Handler

	// HTTPClient opens the push channel. It must not carry an overall
	// timeout or the long-lived stream would be torn down mid-reply.
	// If nil, a client without a timeout is used.
	HTTPClient *http.Client

	// Gateway performs the heartbeat and stop side-channel calls.
	// Nil disables both.
	Gateway *gateway.Client

	// ConnectTimeout bounds the Connecting phase.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// HeartbeatInterval is the probe interval while live. Default: 30s
	HeartbeatInterval time.Duration

	// Logger receives session diagnostics. Nil means no logging.
	Logger observe.Logger
}

// Session owns exactly one push connection for a chat exchange.
//
// Contract:
// - Concurrency: safe for concurrent use; the handler is invoked from
//   internal goroutines, one event at a time per terminal outcome.
// - Errors: Start fails only on misuse; every runtime failure is
//   delivered through the handler, never returned.
type Session struct {
	cfg     Config
	id      string
	baseURL string

	mu           sync.Mutex
	state        State
	handler      Handler
	content      string
	body         io.ReadCloser
	cancelConn   context.CancelFunc
	connectTimer *time.Timer
	cleaned      bool

	done chan struct{}
}

// New creates a session in the Idle state.
func New(cfg Config) (*Session, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.AppID == "" {
		return nil, ErrMissingApp
	}
	if cfg.ChatID == "" {
		return nil, ErrMissingChat
	}
	if cfg.Handler == nil {
		return nil, ErrMissingHandler
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Session{
		cfg:     cfg,
		id:      uuid.NewString(),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		handler: cfg.Handler,
		done:    make(chan struct{}),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Content returns the cumulative reply text received so far.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Start opens the push channel and arms the connect timeout. It returns
// immediately; all outcomes arrive through the handler.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = Connecting

	connCtx, cancel := context.WithCancel(ctx)
	s.cancelConn = cancel
	s.connectTimer = time.AfterFunc(s.cfg.ConnectTimeout, s.onConnectTimeout)
	s.mu.Unlock()

	go s.run(connCtx)
	return nil
}

// Cancel closes the session locally and issues a best-effort stop call
// so server-side generation halts. Stop failure never blocks local
// cleanup. Idempotent once the session is terminal.
func (s *Session) Cancel(_ context.Context) {
	s.cancelWithReason(ReasonUser, true)
}

// Cleanup releases everything the session holds: both timers, the
// heartbeat loop, the connection handle, and the handler. Tearing down
// a started, non-terminal session also issues the same best-effort
// stop call Cancel does, so server-side generation never outlives the
// local session. Unlike Cancel no event is delivered. Safe to call any
// number of times; always called before a replacement session starts
// for the same chat.
func (s *Session) Cleanup() {
	s.mu.Lock()
	stop := !s.state.Terminal() && s.state != Idle
	if !s.state.Terminal() {
		s.state = Cancelled
	}
	s.handler = nil
	s.cleanupLocked()
	s.mu.Unlock()

	if stop && s.cfg.Gateway != nil {
		go s.stopServer()
	}
}

func (s *Session) run(ctx context.Context) {
	u := fmt.Sprintf("%s/api/apps/%s/chat/%s", s.baseURL, s.cfg.AppID, s.cfg.ChatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		s.fail(fmt.Errorf("stream: build request: %w", err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The session was torn down locally before the connect
			// completed; nothing to report.
			return
		}
		s.fail(fmt.Errorf("stream: connect: %w", err))
		return
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		s.fail(fmt.Errorf("stream: connect: unexpected status %d", resp.StatusCode))
		return
	}

	s.mu.Lock()
	if s.cleaned {
		s.mu.Unlock()
		resp.Body.Close()
		return
	}
	s.body = resp.Body
	s.mu.Unlock()

	readErr := readEvents(resp.Body, s.dispatch)
	s.finishRead(readErr)
}

func (s *Session) dispatch(ev sseEvent) {
	switch ev.name {
	case wireConnected:
		s.onConnected()

	case wireChunk:
		var payload struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			s.cfg.Logger.Warn(context.Background(), "undecodable chunk event",
				observe.Field{Key: "error", Value: err.Error()})
			return
		}
		s.onChunk(payload.Content)

	case wireDone:
		var payload struct {
			FinishReason string `json:"finishReason"`
		}
		_ = json.Unmarshal([]byte(ev.data), &payload)
		s.onDone(payload.FinishReason)

	case wireError:
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal([]byte(ev.data), &payload)
		s.onError(payload.Code, payload.Message)
	}
}

func (s *Session) onConnected() {
	s.mu.Lock()
	if s.state != Connecting {
		s.mu.Unlock()
		return
	}
	s.state = Connected
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	s.mu.Unlock()

	if s.cfg.Gateway != nil {
		go s.heartbeatLoop()
	}
	s.emit(Event{Kind: EventConnected})
}

func (s *Session) onChunk(content string) {
	s.mu.Lock()
	if s.state != Connected && s.state != Streaming {
		s.mu.Unlock()
		return
	}
	s.state = Streaming
	// The server resends the cumulative text on every chunk.
	s.content = content
	s.mu.Unlock()

	s.emit(Event{Kind: EventChunk, Content: content})
}

func (s *Session) onDone(finishReason string) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = Done
	content := s.content
	s.cleanupLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventDone, Content: content, FinishReason: finishReason})
}

func (s *Session) onError(code, message string) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = Errored
	content := s.content
	s.cleanupLocked()
	s.mu.Unlock()

	detail := message
	if detail == "" {
		detail = code
	}
	err := ErrProtocol
	if detail != "" {
		err = fmt.Errorf("%w: %s", ErrProtocol, detail)
	}
	s.emit(Event{Kind: EventError, Content: content, Code: code, Message: message, Err: err})
}

// fail handles connect-phase failures.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = Errored
	s.cleanupLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventError, Message: err.Error(), Err: err})
}

// finishRead handles the reader draining without a terminal wire event.
// After the handshake that counts as a completed reply with a
// connection-closed finish; before it no reply ever started, so the
// drain is a connect failure.
func (s *Session) finishRead(readErr error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	if s.state == Connecting {
		s.mu.Unlock()
		err := readErr
		if err == nil {
			err = errors.New("channel closed before handshake")
		}
		s.fail(fmt.Errorf("stream: connect: %w", err))
		return
	}
	s.state = Done
	content := s.content
	s.cleanupLocked()
	s.mu.Unlock()

	if readErr != nil {
		s.cfg.Logger.Warn(context.Background(), "push channel read error",
			observe.Field{Key: "error", Value: readErr.Error()})
	}
	s.emit(Event{Kind: EventDone, Content: content, FinishReason: FinishConnectionClosed})
}

// onConnectTimeout fires from the connect timer. The session may have
// connected or been superseded since the timer was armed, so the state
// is re-checked before acting.
func (s *Session) onConnectTimeout() {
	s.mu.Lock()
	if s.state != Connecting {
		s.mu.Unlock()
		return
	}
	s.state = Errored
	s.cleanupLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventError, Message: "the server did not open the reply channel in time", Err: ErrConnectTimeout})
}

func (s *Session) cancelWithReason(reason string, stopServer bool) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = Cancelled
	content := s.content
	s.cleanupLocked()
	s.mu.Unlock()

	if stopServer && s.cfg.Gateway != nil {
		go s.stopServer()
	}
	s.emit(Event{Kind: EventCancelled, Content: content, Reason: reason})
}

// stopServer is best effort and runs detached so it can never block
// local teardown.
func (s *Session) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), sideChannelTimeout)
	defer cancel()

	desc := gateway.RequestDescriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/apps/%s/chat/%s/stop", s.cfg.AppID, s.cfg.ChatID),
	}
	if _, err := s.cfg.Gateway.Call(ctx, desc, gateway.CallOptions{}); err != nil {
		s.cfg.Logger.Warn(ctx, "stop request failed",
			observe.Field{Key: "chat_id", Value: s.cfg.ChatID},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.probe() {
				return
			}
		}
	}
}

// probe asks the server whether this chat's session is still alive.
// It returns false when the loop should stop. A failed probe is not a
// verdict on the session; only an explicit inactive answer is.
func (s *Session) probe() bool {
	s.mu.Lock()
	live := s.state == Connected || s.state == Streaming
	s.mu.Unlock()
	if !live {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), sideChannelTimeout)
	defer cancel()

	desc := gateway.RequestDescriptor{
		Path: fmt.Sprintf("/api/apps/%s/chat/%s/status", s.cfg.AppID, s.cfg.ChatID),
	}
	v, err := s.cfg.Gateway.Call(ctx, desc, gateway.CallOptions{})
	if err != nil {
		s.cfg.Logger.Warn(ctx, "heartbeat probe failed",
			observe.Field{Key: "chat_id", Value: s.cfg.ChatID},
			observe.Field{Key: "error", Value: err.Error()})
		return true
	}

	if status, ok := v.(map[string]any); ok {
		if active, ok := status["active"].(bool); ok && !active {
			// The server-side session died under an open local channel.
			s.cancelWithReason(ReasonInactive, false)
			return false
		}
	}
	return true
}

// emit delivers an event unless the handler has been detached by
// Cleanup.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	h := s.handler
	if ev.Kind.terminal() {
		// Nothing is delivered past a terminal event.
		s.handler = nil
	} else if s.state.Terminal() {
		// A terminal transition won the race; drop the stale event.
		h = nil
	}
	s.mu.Unlock()

	if h != nil {
		h(ev)
	}
}

func (k EventKind) terminal() bool {
	return k == EventDone || k == EventError || k == EventCancelled
}

func (s *Session) cleanupLocked() {
	if s.cleaned {
		return
	}
	s.cleaned = true

	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	close(s.done)
}
