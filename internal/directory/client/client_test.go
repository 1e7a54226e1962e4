package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fitness-gateway/internal/identity"
)

func TestExists_True(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/abc123/validate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q", r.Method)
		}
		json.NewEncoder(w).Encode(true)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	exists, err := c.Exists(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("Exists = false, want true")
	}
}

func TestExists_FalseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(false)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	exists, err := c.Exists(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("Exists = true, want false")
	}
}

func TestExists_NotFoundIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	exists, err := c.Exists(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Exists on 404: %v", err)
	}
	if exists {
		t.Error("Exists = true on 404, want false")
	}
}

func TestExists_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Exists(context.Background(), "abc123")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("Exists on 500: want ErrDirectoryUnavailable, got %v", err)
	}
}

func TestExists_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, time.Second)
	_, err := c.Exists(context.Background(), "abc123")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("Exists on dead server: want ErrDirectoryUnavailable, got %v", err)
	}
}

func TestExists_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond)
	_, err := c.Exists(context.Background(), "abc123")
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("Exists on timeout: want ErrDirectoryUnavailable, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	var gotBody atomic.Pointer[identity.RegisterRequest]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/register" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req identity.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotBody.Store(&req)
		json.NewEncoder(w).Encode(User{
			ID:         "u-1",
			KeycloakID: req.KeycloakID,
			Email:      req.Email,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	user, err := c.Register(context.Background(), identity.RegisterRequest{
		Email:      "a@b.com",
		KeycloakID: "abc123",
		Password:   "placeholder",
		FirstName:  "A",
		LastName:   "B",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.KeycloakID != "abc123" {
		t.Errorf("KeycloakID = %q, want %q", user.KeycloakID, "abc123")
	}
	sent := gotBody.Load()
	if sent == nil || sent.KeycloakID != "abc123" {
		t.Errorf("directory received keyCloakId %+v, want abc123", sent)
	}
}

func TestRegister_RejectionCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate email", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Register(context.Background(), identity.RegisterRequest{KeycloakID: "abc123"})
	var invalid *InvalidRegistrationError
	if !errors.As(err, &invalid) {
		t.Fatalf("Register on 400: want InvalidRegistrationError, got %v", err)
	}
	if invalid.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", invalid.StatusCode)
	}
	if invalid.Body == "" {
		t.Error("rejection should carry the upstream body")
	}
}

func TestRegister_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Register(context.Background(), identity.RegisterRequest{KeycloakID: "abc123"})
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Errorf("Register on 503: want ErrDirectoryUnavailable, got %v", err)
	}
	var invalid *InvalidRegistrationError
	if errors.As(err, &invalid) {
		t.Error("5xx must not classify as InvalidRegistrationError")
	}
}
