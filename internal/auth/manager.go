package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/medogram/medchat/internal/api"
	"github.com/medogram/medchat/internal/log"
	"github.com/medogram/medchat/internal/store"
)

const (
	registerPath = "/api/register/"
	verifyPath   = "/api/verify/"
	profilePath  = "/api/profile/"
)

// Fallback messages when the server sends no error payload.
const (
	fallbackRegisterError = "failed to send verification code"
	fallbackVerifyError   = "invalid verification code"
	fallbackProfileError  = "failed to update profile"
)

// Event is pushed to subscribers after every state change. Unauthorized is
// set when the change was forced by a global 401; the presentation layer
// should return to the login view.
type Event struct {
	Session      Session
	Unauthorized bool
}

// Manager owns the Session and is the only writer of the persisted
// credential. It implements api.TokenSource for the request client.
type Manager struct {
	client *api.Client
	creds  *store.TokenFile
	logger *log.Logger // optional, best-effort

	mu      sync.Mutex
	session Session
	pending string // phone number awaiting code confirmation, "" when none
	busy    bool
	subs    []func(Event)
}

// NewManager creates a Manager over the given request client and credential
// store. logger may be nil.
func NewManager(client *api.Client, creds *store.TokenFile, logger *log.Logger) *Manager {
	return &Manager{
		client:  client,
		creds:   creds,
		logger:  logger,
		session: Session{Status: StatusUnauthenticated},
	}
}

// Subscribe registers fn to be called after every state change. Callbacks
// run on the mutating goroutine without the manager lock held.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Session returns a snapshot of the current state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

// Authenticated reports whether a usable credential is held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated()
}

// PendingPhone returns the phone number awaiting code confirmation, or "".
func (m *Manager) PendingPhone() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Initialize restores the session from the persisted credential. With no
// credential it is a no-op. With one, the profile is fetched to validate it;
// any failure clears the credential and leaves the session unauthenticated.
// The failure itself is reflected in the session, not returned.
func (m *Manager) Initialize(ctx context.Context) error {
	token, err := m.creds.Read()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if err := checkTransition(m.session.Status, StatusAuthenticating); err != nil {
		m.mu.Unlock()
		return err
	}
	m.busy = true
	m.session.Status = StatusAuthenticating
	m.session.Token = token
	m.mu.Unlock()
	m.notify(false)

	var user User
	err = m.client.Do(ctx, api.OriginPrimary, http.MethodGet, profilePath, nil, &user)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		_ = m.creds.Clear()
		m.session = Session{Status: StatusUnauthenticated}
		m.mu.Unlock()
		m.notify(false)
		m.logEvent(log.LogEvent{Event: log.EventSessionExpired, Error: err.Error()})
		return nil
	}
	m.session.User = &user
	m.session.Status = StatusAuthenticated
	m.session.LastError = ""
	m.mu.Unlock()
	m.notify(false)
	m.logEvent(log.LogEvent{Event: log.EventSessionRestored})
	return nil
}

// Register requests a one-time code for the given phone number. The number
// must already satisfy the validation collaborator; it is not re-checked
// here. On success the session stays unauthenticated with the number
// retained for Verify.
func (m *Manager) Register(ctx context.Context, phoneNumber string) error {
	if err := m.begin(); err != nil {
		return err
	}

	body := struct {
		PhoneNumber string `json:"phone_number"`
	}{PhoneNumber: phoneNumber}
	err := m.client.Do(ctx, api.OriginPrimary, http.MethodPost, registerPath, body, nil)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		m.session.Status = StatusFailed
		m.session.LastError = serverMessage(err, fallbackRegisterError)
		m.mu.Unlock()
		m.notify(false)
		m.logEvent(log.LogEvent{Event: log.EventAuthFailed, Error: err.Error()})
		return err
	}
	m.pending = phoneNumber
	m.session.Status = StatusUnauthenticated
	m.session.LastError = ""
	m.mu.Unlock()
	m.notify(false)
	m.logEvent(log.LogEvent{Event: log.EventCodeSent})
	return nil
}

// Verify exchanges the phone number and one-time code for a credential. On
// success the credential is persisted and the session becomes authenticated.
// On failure the pending phone number is retained so the caller may retry
// without re-registering.
func (m *Manager) Verify(ctx context.Context, phoneNumber, code string) error {
	if err := m.begin(); err != nil {
		return err
	}

	body := struct {
		PhoneNumber string `json:"phone_number"`
		Code        string `json:"code"`
	}{PhoneNumber: phoneNumber, Code: code}
	var resp struct {
		Access string `json:"access"`
		User   User   `json:"user"`
	}
	err := m.client.Do(ctx, api.OriginPrimary, http.MethodPost, verifyPath, body, &resp)
	if err == nil {
		err = m.creds.Write(resp.Access)
	}

	m.mu.Lock()
	m.busy = false
	if err != nil {
		m.session.Status = StatusFailed
		m.session.LastError = serverMessage(err, fallbackVerifyError)
		m.mu.Unlock()
		m.notify(false)
		m.logEvent(log.LogEvent{Event: log.EventAuthFailed, Error: err.Error()})
		return err
	}
	user := resp.User
	m.session = Session{
		Status: StatusAuthenticated,
		Token:  resp.Access,
		User:   &user,
	}
	m.pending = ""
	m.mu.Unlock()
	m.notify(false)
	m.logEvent(log.LogEvent{Event: log.EventVerified})
	return nil
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateProfile pushes profile changes to the backend and merges the
// returned record into the session user. A failure records the error but
// never deauthenticates or partially merges.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if !m.session.Authenticated() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.busy = true
	m.mu.Unlock()

	var updated User
	err := m.client.Do(ctx, api.OriginPrimary, http.MethodPut, profilePath, update, &updated)

	m.mu.Lock()
	m.busy = false
	if err != nil {
		// A 401 may already have torn the session down via the
		// unauthorized hook; only mark Failed while still holding a
		// credential.
		if m.session.Authenticated() {
			m.session.Status = StatusFailed
			m.session.LastError = serverMessage(err, fallbackProfileError)
		}
		m.mu.Unlock()
		m.notify(false)
		return err
	}
	if m.session.User == nil {
		// Session was torn down while the request was in flight.
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	merged := *m.session.User
	mergeUser(&merged, updated)
	m.session.User = &merged
	m.session.Status = StatusAuthenticated
	m.session.LastError = ""
	m.mu.Unlock()
	m.notify(false)
	m.logEvent(log.LogEvent{Event: log.EventProfileUpdated})
	return nil
}

// CancelVerification discards the pending phone number without touching the
// persisted credential. A subsequent Verify requires a fresh Register.
func (m *Manager) CancelVerification() {
	m.mu.Lock()
	m.pending = ""
	m.session.LastError = ""
	if m.session.Status == StatusFailed && !m.session.Authenticated() {
		m.session.Status = StatusUnauthenticated
	}
	m.mu.Unlock()
	m.notify(false)
}

// Logout clears the persisted credential and resets the session. It is
// idempotent.
func (m *Manager) Logout() error {
	if err := m.creds.Clear(); err != nil {
		return err
	}

	m.mu.Lock()
	m.session = Session{Status: StatusUnauthenticated}
	m.pending = ""
	m.mu.Unlock()
	m.notify(false)
	m.logEvent(log.LogEvent{Event: log.EventLoggedOut})
	return nil
}

// ClearError clears the last error without touching the rest of the state.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.session.LastError = ""
	m.mu.Unlock()
	m.notify(false)
}

// HandleUnauthorized is registered as the request client's 401 hook. It
// behaves like Logout and additionally flags the event so the presentation
// layer navigates back to the login view.
func (m *Manager) HandleUnauthorized() {
	_ = m.creds.Clear()

	m.mu.Lock()
	m.session = Session{Status: StatusUnauthenticated}
	m.pending = ""
	m.mu.Unlock()
	m.notify(true)
	m.logEvent(log.LogEvent{Event: log.EventSessionExpired})
}

// begin guards against concurrent auth operations and moves the machine
// into StatusAuthenticating.
func (m *Manager) begin() error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if err := checkTransition(m.session.Status, StatusAuthenticating); err != nil {
		m.mu.Unlock()
		return err
	}
	m.busy = true
	m.session.Status = StatusAuthenticating
	m.session.LastError = ""
	m.mu.Unlock()
	m.notify(false)
	return nil
}

func (m *Manager) snapshotLocked() Session {
	snap := m.session
	if m.session.User != nil {
		user := *m.session.User
		snap.User = &user
	}
	return snap
}

func (m *Manager) notify(unauthorized bool) {
	m.mu.Lock()
	ev := Event{Session: m.snapshotLocked(), Unauthorized: unauthorized}
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (m *Manager) logEvent(ev log.LogEvent) {
	if m.logger == nil {
		return
	}
	_ = m.logger.Append(ev)
}

// mergeUser overlays non-empty fields of src onto dst.
func mergeUser(dst *User, src User) {
	if src.PhoneNumber != "" {
		dst.PhoneNumber = src.PhoneNumber
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
}

// serverMessage extracts the server-provided error message, falling back to
// a generic string for transport failures and empty payloads.
func serverMessage(err error, fallback string) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
