package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medogram/medchat/internal/api"
	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/log"
	"github.com/medogram/medchat/internal/store"
	"github.com/medogram/medchat/internal/validate"
)

const (
	messagePath  = "/api/chat/message/"
	customPath   = "/api/customchatbot/message/"
	settingsPath = "/api/customchatbot/settings/"
	historyPath  = "/api/chat/history/"
)

// User-facing strings appended to the transcript.
const (
	// NoReplyText replaces an empty reply field in a successful response.
	NoReplyText = "No response was received."
	// SendFailedText is appended as an error message when a send fails.
	SendFailedText = "Something went wrong. Please try again."
)

// ErrBusy is returned while a send is in flight; at most one request may be
// outstanding per engine.
var ErrBusy = errors.New("chat: a send is already in flight")

// Authenticator is the slice of the session manager the engine depends on.
type Authenticator interface {
	Authenticated() bool
	Token() string
}

// Engine owns one conversation transcript and serializes its exchanges: a
// user message is appended optimistically, exactly one request is dispatched,
// and the resolution (reply or error) is appended behind it. Because only
// one send may be in flight, transcript order always equals send order.
type Engine struct {
	client  *api.Client
	auth    Authenticator
	history *store.History // optional transcript cache
	logger  *log.Logger    // optional, best-effort

	mu             sync.Mutex
	messages       []Message
	mode           Mode
	pending        bool
	settings       Settings
	conversationID string
}

// NewEngine creates an Engine over the request client and session manager.
// history and logger may be nil.
func NewEngine(client *api.Client, auth Authenticator, history *store.History, logger *log.Logger) *Engine {
	return &Engine{
		client:  client,
		auth:    auth,
		history: history,
		logger:  logger,
	}
}

// Send appends text as a user message and dispatches it to the endpoint
// selected by the current mode. The returned message is the resolution: the
// agent's reply, or an error entry when the network call failed (dispatch
// failures are converted into transcript state, not returned). An error is
// returned only when the send was rejected before dispatch, in which case
// the transcript is untouched.
func (e *Engine) Send(ctx context.Context, text string) (Message, error) {
	if err := validate.Message(text); err != nil {
		return Message{}, err
	}
	trimmed := strings.TrimSpace(text)

	e.mu.Lock()
	if e.pending {
		e.mu.Unlock()
		return Message{}, ErrBusy
	}
	if !e.auth.Authenticated() {
		e.mu.Unlock()
		return Message{}, auth.ErrNotAuthenticated
	}

	// Capture the credential now: the request must use the token held at
	// dispatch time even if the session changes mid-flight.
	token := e.auth.Token()
	mode := e.mode
	settings := e.settings.clone()

	userMsg := Message{
		ID:        uuid.NewString(),
		Text:      trimmed,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
	e.messages = append(e.messages, userMsg)
	e.pending = true
	e.mu.Unlock()

	started := time.Now()
	reply, err := e.dispatch(ctx, mode, trimmed, settings, token)

	resolution := Message{
		ID:        uuid.NewString(),
		Sender:    SenderAgent,
		Timestamp: time.Now(),
	}
	if err != nil {
		resolution.Text = SendFailedText
		resolution.IsError = true
	} else if reply == "" {
		resolution.Text = NoReplyText
	} else {
		resolution.Text = reply
	}

	e.mu.Lock()
	e.messages = append(e.messages, resolution)
	e.pending = false
	e.mu.Unlock()

	e.record(userMsg, resolution, mode)
	e.logSend(mode, err, time.Since(started))
	return resolution, nil
}

// dispatch issues the single network call for a send.
func (e *Engine) dispatch(ctx context.Context, mode Mode, text string, settings Settings, token string) (string, error) {
	var resp struct {
		BotResponse string `json:"bot_response"`
		Response    string `json:"response"`
	}

	var err error
	switch mode {
	case ModeExtended:
		body := map[string]any{"message": text}
		for k, v := range settings {
			if k != "message" {
				body[k] = v
			}
		}
		err = e.client.Do(ctx, api.OriginLocal, http.MethodPost, customPath, body, &resp, api.WithToken(token))
	default:
		body := map[string]string{"message": text}
		err = e.client.Do(ctx, api.OriginLocal, http.MethodPost, messagePath, body, &resp, api.WithToken(token))
	}
	if err != nil {
		return "", err
	}
	if resp.BotResponse != "" {
		return resp.BotResponse, nil
	}
	return resp.Response, nil
}

// Messages returns a copy of the transcript in causal order.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Pending reports whether a send is in flight.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Mode returns the currently selected mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetMode selects the endpoint for subsequent sends. Rejected while a send
// is in flight.
func (e *Engine) SetMode(m Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending {
		return ErrBusy
	}
	e.mode = m
	return nil
}

// Clear discards the transcript. Rejected while a send is in flight so the
// in-flight resolution cannot land in a half-cleared transcript.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending {
		return ErrBusy
	}
	e.messages = nil
	e.conversationID = ""
	return nil
}

// Settings returns a copy of the stored chatbot settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.clone()
}

// SetSettings replaces the local chatbot settings without contacting the
// backend. Used to restore settings persisted in the config file.
func (e *Engine) SetSettings(settings Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending {
		return ErrBusy
	}
	e.settings = settings.clone()
	return nil
}

// SaveSettings stores the chatbot settings for subsequent extended-mode
// sends and pushes them to the backend. An in-flight send keeps the settings
// it captured at dispatch time.
func (e *Engine) SaveSettings(ctx context.Context, settings Settings) error {
	if !e.auth.Authenticated() {
		return auth.ErrNotAuthenticated
	}
	token := e.auth.Token()

	if err := e.client.Do(ctx, api.OriginLocal, http.MethodPost, settingsPath, settings, nil, api.WithToken(token)); err != nil {
		return err
	}

	e.mu.Lock()
	e.settings = settings.clone()
	e.mu.Unlock()

	if e.logger != nil {
		_ = e.logger.Append(log.LogEvent{Event: log.EventSettingsSaved})
	}
	return nil
}

// History fetches past exchanges from the backend.
func (e *Engine) History(ctx context.Context) ([]HistoryEntry, error) {
	if !e.auth.Authenticated() {
		return nil, auth.ErrNotAuthenticated
	}
	token := e.auth.Token()

	var entries []HistoryEntry
	if err := e.client.Do(ctx, api.OriginLocal, http.MethodGet, historyPath, nil, &entries, api.WithToken(token)); err != nil {
		return nil, err
	}
	return entries, nil
}

// record caches a resolved exchange in the local history store. Best-effort:
// cache failures never affect the transcript.
func (e *Engine) record(user, resolution Message, mode Mode) {
	if e.history == nil {
		return
	}

	e.mu.Lock()
	id := e.conversationID
	e.mu.Unlock()

	if id == "" {
		conv, err := e.history.CreateConversation(mode.String())
		if err != nil {
			return
		}
		id = conv.ID
		e.mu.Lock()
		e.conversationID = id
		e.mu.Unlock()
	}

	_ = e.history.AddMessage(id, user.Sender.String(), user.Text, false)
	_ = e.history.AddMessage(id, resolution.Sender.String(), resolution.Text, resolution.IsError)
}

func (e *Engine) logSend(mode Mode, err error, elapsed time.Duration) {
	if e.logger == nil {
		return
	}
	ev := log.LogEvent{
		Event:      log.EventMessageSent,
		Mode:       mode.String(),
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		ev.Event = log.EventMessageFailed
		ev.Error = err.Error()
	}
	_ = e.logger.Append(ev)
}
