package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fitness-gateway/internal/directory/domain"
	"fitness-gateway/internal/directory/repository"
	"fitness-gateway/internal/directory/service"
	"fitness-gateway/internal/security"
)

type memUserRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	byEmail    map[string]*domain.User
	byKeycloak map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:       map[string]*domain.User{},
		byEmail:    map[string]*domain.User{},
		byKeycloak: map[string]*domain.User{},
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) ExistsByKeycloakID(ctx context.Context, keycloakID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKeycloak[keycloakID]
	return ok, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	u2 := *u
	r.byID[u.ID] = &u2
	r.byEmail[u.Email] = &u2
	r.byKeycloak[u.KeycloakID] = &u2
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	h := New(service.New(repo, security.NewHasher(4)))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestRegisterEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"email":"a@b.com","keyCloakId":"abc123","password":"p","firstName":"A","lastName":"B"}`
	resp, err := http.Post(srv.URL+"/api/users/register", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var user UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.KeycloakID != "abc123" {
		t.Errorf("keyCloakId = %q, want %q", user.KeycloakID, "abc123")
	}
	if user.ID == "" {
		t.Error("id not assigned")
	}
}

func TestRegisterEndpoint_BlankKeycloakID(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"email":"a@b.com","keyCloakId":"","password":"p"}`
	resp, err := http.Post(srv.URL+"/api/users/register", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRegisterEndpoint_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/users/register", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"email":"a@b.com","keyCloakId":"abc123","password":"p"}`
	if _, err := http.Post(srv.URL+"/api/users/register", "application/json", strings.NewReader(body)); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"abc123", true},
		{"missing", false},
	} {
		resp, err := http.Get(srv.URL + "/api/users/" + tc.id + "/validate")
		if err != nil {
			t.Fatalf("GET validate: %v", err)
		}
		var exists bool
		if err := json.NewDecoder(resp.Body).Decode(&exists); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("validate %s status = %d, want 200", tc.id, resp.StatusCode)
		}
		if exists != tc.want {
			t.Errorf("validate %s = %v, want %v", tc.id, exists, tc.want)
		}
	}
}

func TestProfileEndpoint_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/users/does-not-exist")
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
