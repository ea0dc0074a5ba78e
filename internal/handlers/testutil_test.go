package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bikerly/api/internal/auth"
	"github.com/bikerly/api/internal/db"
	"github.com/bikerly/api/internal/logging"
	"github.com/bikerly/api/internal/middleware"
)

// memStore is an in-memory db.Store used to exercise the HTTP surface
// without a database.
type memStore struct {
	mu    sync.Mutex
	users map[string]*db.User // keyed by email
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*db.User)}
}

func (s *memStore) CreateUser(ctx context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.UUID == "" {
		user.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memStore) setActive(email string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[email]; ok {
		user.IsActive = active
	}
}

// testServer bundles the assembled router with its collaborators.
type testServer struct {
	*httptest.Server
	store  *memStore
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokens, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	store := newMemStore()
	logger := logging.NewLogger("error", "text", "stderr")

	router := NewRouter(RouterConfig{
		Store:        store,
		Tokens:       tokens,
		Logger:       logger,
		Limiter:      middleware.NewRateLimiter(),
		GlobalCalls:  1000,
		GlobalPeriod: 60,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store, tokens: tokens}
}

// createUser seeds a user directly in the store, hashing the password the
// same way registration does.
func (ts *testServer) createUser(t *testing.T, email, password string, role db.Role, active bool) *db.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := &db.User{
		Email:        email,
		UserName:     strings.Split(email, "@")[0],
		PhoneNumber:  "5551234",
		CountryCode:  "+1",
		DisplayName:  "Test User",
		Role:         role,
		IsActive:     active,
		PasswordHash: hash,
	}
	if err := ts.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func (ts *testServer) postJSON(t *testing.T, path string, body interface{}, clientIP string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", ts.URL+path, strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values, clientIP string) *http.Response {
	t.Helper()

	req, err := http.NewRequest("POST", ts.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func (ts *testServer) get(t *testing.T, path, bearerToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest("GET", ts.URL+path, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	resp := ts.postForm(t, "/api/auth/login", url.Values{
		"username": {email},
		"password": {password},
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login failed with status %d", resp.StatusCode)
	}

	var tokenResp TokenResponse
	decodeBody(t, resp, &tokenResp)
	return tokenResp.AccessToken
}

// newForeignTokenManager signs with a secret the test server never saw.
func newForeignTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager("foreign-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", string(data), err)
	}
}

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"email":        email,
		"user_name":    strings.Split(email, "@")[0],
		"phone_number": "5551234",
		"country_code": "+1",
		"password":     "correct-horse",
		"display_name": "Test User",
	}
}
