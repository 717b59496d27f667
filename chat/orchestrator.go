package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/intrafind/ihub-apps-sub007/gateway"
	"github.com/intrafind/ihub-apps-sub007/observe"
	"github.com/intrafind/ihub-apps-sub007/stream"
)

// submitTimeout bounds the payload submission call.
const submitTimeout = 30 * time.Second

// Config configures the orchestrator.
type Config struct {
	// Gateway performs payload submission and the session side-channel
	// calls (required).
	Gateway *gateway.Client

	// BaseURL is the backend base URL for the push channel (required).
	BaseURL string

	// AppID is the application identifier (required).
	AppID string

	// StreamClient opens push channels. It must not carry an overall
	// timeout. If nil, a client without a timeout is used.
	StreamClient *http.Client

	// Store holds the transcript. Nil means a fresh empty store.
	Store *Store

	// Localize translates message codes. Nil means DefaultLocalizer.
	Localize Localizer

	// ConnectTimeout and HeartbeatInterval are passed to each session.
	// Zero values use the stream package defaults.
	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration

	// Logger receives orchestrator diagnostics. Nil means no logging.
	Logger observe.Logger
}

// SendRequest describes one user turn.
type SendRequest struct {
	// ChatID identifies the conversation (required).
	ChatID string

	// DisplayContent is what the transcript shows (required).
	DisplayContent string

	// APIContent is what the model receives. Empty means
	// DisplayContent.
	APIContent string

	// Params are generation parameters merged into the submission body.
	Params map[string]any

	// IncludeHistory includes prior completed turns in the submission.
	IncludeHistory bool

	// Meta carries attachments onto the user message.
	Meta Meta
}

// Resend is the content recovered by ResendMessage for re-submission.
// The zero value means no suitable message was found and the caller
// must treat the resend as a no-op.
type Resend struct {
	Content string
	Meta    Meta
}

// Orchestrator drives conversations: one live streaming session at a
// time, message-state mutations on every session event.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: SendMessage fails only on invalid input or session misuse;
//   runtime failures surface as message status changes, never as a
//   transcript left permanently pending.
type Orchestrator struct {
	cfg      Config
	store    *Store
	localize Localizer
	logger   observe.Logger

	mu          sync.Mutex
	session     *stream.Session
	submitChat  string
	submitBody  map[string]any
	assistantID string
	processing  bool
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.AppID == "" {
		return nil, ErrMissingApp
	}
	if cfg.Store == nil {
		cfg.Store = NewStore()
	}
	if cfg.Localize == nil {
		cfg.Localize = DefaultLocalizer
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    cfg.Store,
		localize: cfg.Localize,
		logger:   cfg.Logger,
	}, nil
}

// Store returns the transcript store.
func (o *Orchestrator) Store() *Store { return o.store }

// Messages returns a copy of the transcript.
func (o *Orchestrator) Messages() []Message { return o.store.List() }

// Processing reports whether a turn is in flight.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}

// SendMessage starts a new turn: it tears down any prior session,
// appends the user message and an assistant placeholder sharing a fresh
// exchange id, opens the push channel, and stashes the payload for
// submission once the channel is connected. Returns the exchange id.
func (o *Orchestrator) SendMessage(ctx context.Context, req SendRequest) (string, error) {
	if req.ChatID == "" {
		return "", ErrMissingChat
	}
	if req.DisplayContent == "" {
		return "", ErrEmptyMessage
	}

	o.mu.Lock()
	o.teardownLocked()

	// History is built from the transcript as it stood before this turn.
	outgoing := o.buildOutgoing(req)

	exchangeID := uuid.NewString()
	userMsg := Message{
		ID:         uuid.NewString(),
		ExchangeID: exchangeID,
		Role:       RoleUser,
		Content:    req.DisplayContent,
		Status:     StatusComplete,
		Meta:       req.Meta,
	}
	assistant := Message{
		ID:         uuid.NewString(),
		ExchangeID: exchangeID,
		Role:       RoleAssistant,
		Status:     StatusPending,
	}
	o.store.Append(userMsg)
	o.store.Append(assistant)

	body := map[string]any{"messages": outgoing}
	for k, v := range req.Params {
		if k != "messages" {
			body[k] = v
		}
	}

	var sess *stream.Session
	sess, err := stream.New(stream.Config{
		BaseURL:           o.cfg.BaseURL,
		AppID:             o.cfg.AppID,
		ChatID:            req.ChatID,
		Handler:           func(ev stream.Event) { o.onStreamEvent(sess, ev) },
		HTTPClient:        o.cfg.StreamClient,
		Gateway:           o.cfg.Gateway,
		ConnectTimeout:    o.cfg.ConnectTimeout,
		HeartbeatInterval: o.cfg.HeartbeatInterval,
		Logger:            o.logger,
	})
	if err != nil {
		o.store.Update(assistant.ID, func(m *Message) {
			m.Status = StatusError
			m.Content = o.message(CodeSendFailed)
		})
		o.mu.Unlock()
		return "", err
	}

	o.session = sess
	o.submitChat = req.ChatID
	o.submitBody = body
	o.assistantID = assistant.ID
	o.processing = true
	o.mu.Unlock()

	if err := sess.Start(ctx); err != nil {
		o.store.Update(assistant.ID, func(m *Message) {
			m.Status = StatusError
			m.Content = o.message(CodeSendFailed)
		})
		o.mu.Lock()
		if o.session == sess {
			o.teardownLocked()
		}
		o.mu.Unlock()
		return "", err
	}

	return exchangeID, nil
}

// ResendMessage recovers the content of a turn for re-submission. An
// assistant target resolves to its preceding user message, which is
// deleted and returned; a user target is deleted and returned itself.
// The optional edited content replaces the recovered text.
func (o *Orchestrator) ResendMessage(id string, edited ...string) Resend {
	msg, ok := o.store.Get(id)
	if !ok {
		return Resend{}
	}

	var source Message
	switch msg.Role {
	case RoleAssistant:
		prev, ok := o.store.Preceding(id, RoleUser)
		if !ok {
			return Resend{}
		}
		source = prev
	case RoleUser:
		source = msg
	default:
		return Resend{}
	}
	o.store.Delete(source.ID)

	content := source.Content
	if len(edited) > 0 && edited[0] != "" {
		content = edited[0]
	}
	return Resend{Content: content, Meta: source.Meta}
}

// CancelGeneration stops the active session. The in-progress assistant
// message keeps its accumulated text and gains a localized cancellation
// marker; calling with no active session is a no-op, and the marker is
// appended at most once.
func (o *Orchestrator) CancelGeneration(ctx context.Context) {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()

	if sess != nil {
		sess.Cancel(ctx)
	}
}

// DeleteMessage removes a message. No session side effects.
func (o *Orchestrator) DeleteMessage(id string) bool { return o.store.Delete(id) }

// EditMessage replaces a message's content. No session side effects.
func (o *Orchestrator) EditMessage(id, content string) bool {
	return o.store.Update(id, func(m *Message) { m.Content = content })
}

// ClearMessages empties the transcript. No session side effects.
func (o *Orchestrator) ClearMessages() { o.store.Clear() }

func (o *Orchestrator) buildOutgoing(req SendRequest) []map[string]any {
	var out []map[string]any
	if req.IncludeHistory {
		for _, m := range o.store.List() {
			if m.Status != StatusComplete || m.Content == "" {
				continue
			}
			out = append(out, map[string]any{"role": string(m.Role), "content": m.Content})
		}
	}
	api := req.APIContent
	if api == "" {
		api = req.DisplayContent
	}
	return append(out, map[string]any{"role": string(RoleUser), "content": api})
}

func (o *Orchestrator) onStreamEvent(sess *stream.Session, ev stream.Event) {
	o.mu.Lock()
	if o.session != sess {
		// A replacement turn superseded this session; drop the event.
		o.mu.Unlock()
		return
	}
	assistantID := o.assistantID
	o.mu.Unlock()

	switch ev.Kind {
	case stream.EventConnected:
		o.submit(sess)

	case stream.EventChunk:
		o.store.Update(assistantID, func(m *Message) {
			m.Status = StatusStreaming
			m.Content = ev.Content
		})

	case stream.EventDone:
		o.store.Update(assistantID, func(m *Message) {
			m.Status = StatusComplete
			if ev.Content != "" {
				m.Content = ev.Content
			}
			m.FinishReason = ev.FinishReason
		})
		o.finishTurn(sess)

	case stream.EventError:
		text := o.errorText(ev)
		o.store.Update(assistantID, func(m *Message) {
			m.Status = StatusError
			m.Content = text
		})
		o.finishTurn(sess)

	case stream.EventCancelled:
		code := CodeCancelled
		if ev.Reason == stream.ReasonInactive {
			code = CodeInactive
		}
		marker := o.message(code)
		o.store.Update(assistantID, func(m *Message) {
			m.Status = StatusComplete
			m.FinishReason = "cancelled"
			if m.Content == "" {
				m.Content = marker
			} else {
				m.Content += "\n\n" + marker
			}
		})
		o.finishTurn(sess)
	}
}

// submit POSTs the stashed payload once the channel is connected. On
// failure the assistant message is marked error and the session torn
// down; the transcript never keeps a permanently pending placeholder.
func (o *Orchestrator) submit(sess *stream.Session) {
	o.mu.Lock()
	if o.session != sess || o.submitBody == nil {
		o.mu.Unlock()
		return
	}
	chatID := o.submitChat
	body := o.submitBody
	assistantID := o.assistantID
	o.submitBody = nil
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	desc := gateway.RequestDescriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/apps/%s/chat/%s", o.cfg.AppID, chatID),
		Body:   body,
	}
	if _, err := o.cfg.Gateway.Call(ctx, desc, gateway.CallOptions{}); err != nil {
		o.logger.Warn(ctx, "payload submission failed",
			observe.Field{Key: "chat_id", Value: chatID},
			observe.Field{Key: "error", Value: err.Error()})
		o.store.Update(assistantID, func(m *Message) {
			m.Status = StatusError
			m.Content = o.message(CodeSendFailed)
		})
		o.mu.Lock()
		if o.session == sess {
			o.teardownLocked()
		}
		o.mu.Unlock()
	}
}

// finishTurn releases the session after a terminal event.
func (o *Orchestrator) finishTurn(sess *stream.Session) {
	o.mu.Lock()
	if o.session == sess {
		o.session = nil
		o.submitBody = nil
		o.processing = false
	}
	o.mu.Unlock()
	sess.Cleanup()
}

// teardownLocked silently discards the active session, if any.
// Callers hold o.mu.
func (o *Orchestrator) teardownLocked() {
	if o.session != nil {
		o.session.Cleanup()
		o.session = nil
	}
	o.submitBody = nil
	o.processing = false
}

func (o *Orchestrator) errorText(ev stream.Event) string {
	if ev.Code != "" {
		if text := o.localize(ev.Code); text != "" {
			return text
		}
	}
	if errors.Is(ev.Err, stream.ErrConnectTimeout) {
		return o.message(CodeStreamTimeout)
	}
	if ev.Message != "" {
		return ev.Message
	}
	return o.message(CodeStreamError)
}

// message resolves a code through the configured localizer, falling
// back to the English table for codes it does not cover.
func (o *Orchestrator) message(code string) string {
	if text := o.localize(code); text != "" {
		return text
	}
	return DefaultLocalizer(code)
}
