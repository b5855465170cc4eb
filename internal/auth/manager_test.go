package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medogram/medchat/internal/api"
	"github.com/medogram/medchat/internal/store"
)

// newManager wires a Manager against srv for both origins, with a fresh
// credential store. The unauthorized hook is registered the way the
// composition root does it.
func newManager(t *testing.T, srv *httptest.Server) (*Manager, *store.TokenFile) {
	t.Helper()
	client := api.NewClient(srv.URL, srv.URL, 0)
	creds := store.NewTokenFile(t.TempDir())
	m := NewManager(client, creds, nil)
	client.SetTokenSource(m)
	client.OnUnauthorized(m.HandleUnauthorized)
	return m, creds
}

func authBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"code sent"}`))
	})
	mux.HandleFunc("POST /api/verify/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PhoneNumber string `json:"phone_number"`
			Code        string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access": "tok1",
			"user":   map[string]string{"phone_number": body.PhoneNumber},
		})
	})
	mux.HandleFunc("GET /api/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"phone_number": "09123456789"})
	})
	return httptest.NewServer(mux)
}

func TestRegisterVerifyFlow(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	m, _ := newManager(t, srv)
	ctx := context.Background()

	if err := m.Register(ctx, "09123456789"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := m.PendingPhone(); got != "09123456789" {
		t.Errorf("pending phone: got %q", got)
	}
	if s := m.Session(); s.Status != StatusUnauthenticated {
		t.Errorf("status after register: got %s, want unauthenticated", s.Status)
	}

	if err := m.Verify(ctx, "09123456789", "123456"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	s := m.Session()
	if s.Status != StatusAuthenticated {
		t.Errorf("status: got %s, want authenticated", s.Status)
	}
	if s.Token != "tok1" {
		t.Errorf("token: got %q, want tok1", s.Token)
	}
	if s.User == nil || s.User.PhoneNumber != "09123456789" {
		t.Errorf("user: got %+v", s.User)
	}
	if m.PendingPhone() != "" {
		t.Error("pending verification not discarded after verify")
	}
}

func TestVerifyFailureRetainsPending(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /api/verify/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"wrong code"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, _ := newManager(t, srv)
	ctx := context.Background()

	if err := m.Register(ctx, "09123456789"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := m.Verify(ctx, "09123456789", "0000"); err == nil {
		t.Fatal("expected Verify to fail")
	}

	s := m.Session()
	if s.Status != StatusFailed {
		t.Errorf("status: got %s, want failed", s.Status)
	}
	if s.LastError != "wrong code" {
		t.Errorf("lastError: got %q, want server message", s.LastError)
	}
	if m.PendingPhone() != "09123456789" {
		t.Error("pending verification should survive a failed verify")
	}
}

func TestRegisterFailureSetsFallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, _ := newManager(t, srv)
	if err := m.Register(context.Background(), "09123456789"); err == nil {
		t.Fatal("expected Register to fail")
	}

	s := m.Session()
	if s.Status != StatusFailed {
		t.Errorf("status: got %s, want failed", s.Status)
	}
	if s.LastError != fallbackRegisterError {
		t.Errorf("lastError: got %q, want fallback", s.LastError)
	}
	if m.PendingPhone() != "" {
		t.Error("no pending verification should exist after failed register")
	}
}

func TestInitializeRestoresSessionAcrossRestart(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	ctx := context.Background()

	dir := t.TempDir()
	creds := store.NewTokenFile(dir)

	client := api.NewClient(srv.URL, srv.URL, 0)
	first := NewManager(client, creds, nil)
	client.SetTokenSource(first)

	if err := first.Register(ctx, "09123456789"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := first.Verify(ctx, "09123456789", "1234"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	// Fresh manager over the same credential store simulates a restart.
	client2 := api.NewClient(srv.URL, srv.URL, 0)
	second := NewManager(client2, creds, nil)
	client2.SetTokenSource(second)

	if err := second.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	s := second.Session()
	if s.Status != StatusAuthenticated {
		t.Fatalf("status after restore: got %s, want authenticated", s.Status)
	}
	if s.Token != "tok1" || s.User == nil || s.User.PhoneNumber != "09123456789" {
		t.Errorf("restored session: %+v", s)
	}
}

func TestInitializeNoCredentialIsNoOp(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	m, _ := newManager(t, srv)

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if s := m.Session(); s.Status != StatusUnauthenticated || s.Token != "" {
		t.Errorf("session after no-op initialize: %+v", s)
	}
}

func TestInitializeInvalidCredentialClearsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m, creds := newManager(t, srv)
	if err := creds.Write("stale"); err != nil {
		t.Fatal(err)
	}

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	s := m.Session()
	if s.Status != StatusUnauthenticated || s.Token != "" || s.User != nil {
		t.Errorf("session after invalid credential: %+v", s)
	}
	tok, err := creds.Read()
	if err != nil {
		t.Fatal(err)
	}
	if tok != "" {
		t.Errorf("credential not cleared, got %q", tok)
	}
}

func TestUnauthorizedTearsDownSessionAndNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, creds := newManager(t, srv)
	// Hand-roll an authenticated session with a persisted credential.
	if err := creds.Write("tok1"); err != nil {
		t.Fatal(err)
	}
	m.session = Session{Status: StatusAuthenticated, Token: "tok1", User: &User{PhoneNumber: "09123456789"}}

	var unauthorized bool
	m.Subscribe(func(ev Event) {
		if ev.Unauthorized {
			unauthorized = true
		}
	})

	if err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: "A"}); err == nil {
		t.Fatal("expected UpdateProfile to fail")
	}

	s := m.Session()
	if s.Status != StatusUnauthenticated || s.Token != "" || s.User != nil {
		t.Errorf("session after 401: %+v", s)
	}
	if !unauthorized {
		t.Error("subscriber did not receive the unauthorized event")
	}
	tok, _ := creds.Read()
	if tok != "" {
		t.Errorf("credential not cleared after 401, got %q", tok)
	}
}

func TestUpdateProfileFailureDoesNotDeauthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"server exploded"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, _ := newManager(t, srv)
	m.session = Session{Status: StatusAuthenticated, Token: "tok1", User: &User{PhoneNumber: "09123456789", Name: "Old"}}

	if err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: "New"}); err == nil {
		t.Fatal("expected UpdateProfile to fail")
	}

	s := m.Session()
	if s.Status != StatusFailed {
		t.Errorf("status: got %s, want failed", s.Status)
	}
	if !s.Authenticated() {
		t.Error("failed profile update deauthenticated the session")
	}
	if s.User.Name != "Old" {
		t.Errorf("user partially merged on failure: %+v", s.User)
	}
	if s.LastError != "server exploded" {
		t.Errorf("lastError: got %q", s.LastError)
	}
}

func TestUpdateProfileMergesReturnedRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/profile/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"name": "New Name"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, _ := newManager(t, srv)
	m.session = Session{Status: StatusAuthenticated, Token: "tok1", User: &User{PhoneNumber: "09123456789"}}

	if err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: "New Name"}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	s := m.Session()
	if s.User.Name != "New Name" {
		t.Errorf("name not merged: %+v", s.User)
	}
	if s.User.PhoneNumber != "09123456789" {
		t.Errorf("phone number lost in merge: %+v", s.User)
	}
}

func TestUpdateProfileRequiresAuthentication(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	m, _ := newManager(t, srv)

	err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: "X"})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
}

func TestCancelVerificationDiscardsPending(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	m, _ := newManager(t, srv)

	if err := m.Register(context.Background(), "09123456789"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if m.PendingPhone() == "" {
		t.Fatal("expected a pending phone after Register")
	}

	m.CancelVerification()

	if got := m.PendingPhone(); got != "" {
		t.Errorf("pending phone after cancel: got %q, want empty", got)
	}
	session := m.Session()
	if session.Status != StatusUnauthenticated {
		t.Errorf("status after cancel: got %v", session.Status)
	}
	if session.LastError != "" {
		t.Errorf("lastError after cancel: got %q", session.LastError)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv := authBackend(t)
	defer srv.Close()
	m, creds := newManager(t, srv)
	ctx := context.Background()

	if err := m.Register(ctx, "09123456789"); err != nil {
		t.Fatal(err)
	}
	if err := m.Verify(ctx, "09123456789", "1234"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := m.Logout(); err != nil {
			t.Fatalf("Logout #%d failed: %v", i+1, err)
		}
		s := m.Session()
		if s.Status != StatusUnauthenticated || s.LastError != "" {
			t.Errorf("session after logout #%d: %+v", i+1, s)
		}
	}
	tok, _ := creds.Read()
	if tok != "" {
		t.Errorf("credential survived logout: %q", tok)
	}
}

func TestConcurrentAuthOperationsRejected(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m, _ := newManager(t, srv)
	done := make(chan error, 1)
	go func() { done <- m.Register(context.Background(), "09123456789") }()

	// Wait until the first operation is in flight.
	for m.Session().Status != StatusAuthenticating {
		time.Sleep(time.Millisecond)
	}

	if err := m.Register(context.Background(), "09123456789"); !errors.Is(err, ErrBusy) {
		t.Errorf("second register: want ErrBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first register failed: %v", err)
	}
}

func TestClearErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, _ := newManager(t, srv)
	_ = m.Register(context.Background(), "09123456789")

	m.ClearError()
	s := m.Session()
	if s.LastError != "" {
		t.Errorf("lastError not cleared: %q", s.LastError)
	}
	if s.Status != StatusFailed {
		t.Errorf("status changed by ClearError: %s", s.Status)
	}
}

func TestTransitionTableRejectsInvalidMoves(t *testing.T) {
	cases := []struct {
		from, to Status
		valid    bool
	}{
		{StatusUnauthenticated, StatusAuthenticating, true},
		{StatusUnauthenticated, StatusAuthenticated, false},
		{StatusUnauthenticated, StatusFailed, false},
		{StatusAuthenticating, StatusAuthenticated, true},
		{StatusAuthenticating, StatusFailed, true},
		{StatusFailed, StatusAuthenticating, true},
		{StatusFailed, StatusAuthenticated, false},
		{StatusAuthenticated, StatusUnauthenticated, true},
	}

	for _, tc := range cases {
		err := checkTransition(tc.from, tc.to)
		if tc.valid && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.valid {
			var terr *TransitionError
			if !errors.As(err, &terr) {
				t.Errorf("%s -> %s: want *TransitionError, got %v", tc.from, tc.to, err)
			}
		}
	}
}
