package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/db"
)

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name           string
		mutate         func(map[string]interface{})
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "successful registration",
			mutate:         func(m map[string]interface{}) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing email",
			mutate:         func(m map[string]interface{}) { delete(m, "email") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "missing password",
			mutate:         func(m map[string]interface{}) { delete(m, "password") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "missing phone number",
			mutate:         func(m map[string]interface{}) { delete(m, "phone_number") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "invalid email",
			mutate:         func(m map[string]interface{}) { m["email"] = "not-an-email" },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "display name too long",
			mutate: func(m map[string]interface{}) {
				long := make([]rune, 51)
				for i := range long {
					long[i] = 'x'
				}
				m["display_name"] = string(long)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := registerBody(fmt.Sprintf("user%d@example.com", i))
			tt.mutate(body)

			// Distinct forwarded addresses keep the per-route rate limit
			// out of these cases.
			resp := ts.postJSON(t, "/api/auth/register", body, fmt.Sprintf("203.0.113.%d", i+1))
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			if tt.expectedStatus == http.StatusCreated {
				var created RegisterResponse
				decodeBody(t, resp, &created)
				if created.Role != db.RoleRider {
					t.Errorf("Expected default role rider, got %q", created.Role)
				}
				if created.ID == "" || created.UUID == "" {
					t.Error("Expected created user to carry id and uuid")
				}
				return
			}

			var errResp apperrors.ErrorResponse
			decodeBody(t, resp, &errResp)
			if errResp.ErrorCode != tt.expectedCode {
				t.Errorf("Expected error code %s, got %s", tt.expectedCode, errResp.ErrorCode)
			}
			if errResp.Path != "/api/auth/register" {
				t.Errorf("Expected path in envelope, got %q", errResp.Path)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	first := ts.postJSON(t, "/api/auth/register", registerBody("alice@example.com"), "203.0.113.1")
	first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("First registration failed with status %d", first.StatusCode)
	}

	second := ts.postJSON(t, "/api/auth/register", registerBody("alice@example.com"), "203.0.113.2")
	defer second.Body.Close()

	if second.StatusCode != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", second.StatusCode)
	}

	var errResp apperrors.ErrorResponse
	decodeBody(t, second, &errResp)
	if errResp.ErrorCode != "CONFLICT_ERROR" {
		t.Errorf("Expected CONFLICT_ERROR, got %s", errResp.ErrorCode)
	}
}

func TestRegister_RateLimited(t *testing.T) {
	ts := newTestServer(t)

	// Registration allows 5 requests per minute per client identity.
	for i := 0; i < 5; i++ {
		resp := ts.postJSON(t, "/api/auth/register", registerBody(fmt.Sprintf("u%d@example.com", i)), "198.51.100.9")
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Request %d expected 201, got %d", i+1, resp.StatusCode)
		}
	}

	resp := ts.postJSON(t, "/api/auth/register", registerBody("u6@example.com"), "198.51.100.9")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on rejection")
	}

	var errResp apperrors.ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.ErrorCode != "RATE_LIMIT_ERROR" {
		t.Errorf("Expected RATE_LIMIT_ERROR, got %s", errResp.ErrorCode)
	}
	if errResp.RetryAfter < 1 {
		t.Errorf("Expected retry_after >= 1, got %d", errResp.RetryAfter)
	}

	// Another client identity still has its own budget.
	other := ts.postJSON(t, "/api/auth/register", registerBody("u7@example.com"), "198.51.100.10")
	other.Body.Close()
	if other.StatusCode != http.StatusCreated {
		t.Errorf("Expected other client to be admitted, got %d", other.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice@example.com", "correct-horse", db.RoleRider, true)

	t.Run("success", func(t *testing.T) {
		resp := ts.postForm(t, "/api/auth/login", url.Values{
			"username": {"alice@example.com"},
			"password": {"correct-horse"},
		}, "")
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var tokenResp TokenResponse
		decodeBody(t, resp, &tokenResp)
		if tokenResp.AccessToken == "" {
			t.Error("Expected access token in response")
		}
		if tokenResp.TokenType != "bearer" {
			t.Errorf("Expected token type bearer, got %q", tokenResp.TokenType)
		}

		claims, err := ts.tokens.Verify(tokenResp.AccessToken)
		if err != nil {
			t.Fatalf("Issued token failed verification: %v", err)
		}
		if claims.Subject != "alice@example.com" {
			t.Errorf("Expected subject alice@example.com, got %q", claims.Subject)
		}
		if claims.Role != string(db.RoleRider) {
			t.Errorf("Expected role rider in claims, got %q", claims.Role)
		}
	})

	t.Run("missing password", func(t *testing.T) {
		resp := ts.postForm(t, "/api/auth/login", url.Values{"username": {"alice@example.com"}}, "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("missing username", func(t *testing.T) {
		resp := ts.postForm(t, "/api/auth/login", url.Values{"password": {"correct-horse"}}, "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}

func TestLogin_NoCredentialOracle(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice@example.com", "correct-horse", db.RoleRider, true)

	// Wrong password and unknown account must be indistinguishable to the
	// caller: same status, code, message and detail.
	collect := func(form url.Values) (int, apperrors.ErrorResponse) {
		resp := ts.postForm(t, "/api/auth/login", form, "")
		defer resp.Body.Close()
		var errResp apperrors.ErrorResponse
		decodeBody(t, resp, &errResp)
		return resp.StatusCode, errResp
	}

	wrongStatus, wrongResp := collect(url.Values{
		"username": {"alice@example.com"},
		"password": {"wrong-password"},
	})
	missingStatus, missingResp := collect(url.Values{
		"username": {"nobody@example.com"},
		"password": {"correct-horse"},
	})

	if wrongStatus != http.StatusUnauthorized || missingStatus != http.StatusUnauthorized {
		t.Fatalf("Expected both to be 401, got %d and %d", wrongStatus, missingStatus)
	}
	if wrongResp.ErrorCode != missingResp.ErrorCode {
		t.Errorf("Error codes differ: %s vs %s", wrongResp.ErrorCode, missingResp.ErrorCode)
	}
	if wrongResp.Message != missingResp.Message {
		t.Errorf("Messages differ: %q vs %q", wrongResp.Message, missingResp.Message)
	}
	if wrongResp.Message != "Incorrect email or password" {
		t.Errorf("Expected uniform credential message, got %q", wrongResp.Message)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice@example.com", "correct-horse", db.RoleRider, false)

	resp := ts.postForm(t, "/api/auth/login", url.Values{
		"username": {"alice@example.com"},
		"password": {"correct-horse"},
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", resp.StatusCode)
	}

	var errResp apperrors.ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Message != "Account is inactive" {
		t.Errorf("Expected inactive account message, got %q", errResp.Message)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice@example.com", "correct-horse", db.RoleRider, true)

	// Login allows 10 requests per minute per client identity, counted
	// whether or not the credentials are valid.
	for i := 0; i < 10; i++ {
		resp := ts.postForm(t, "/api/auth/login", url.Values{
			"username": {"alice@example.com"},
			"password": {"wrong-password"},
		}, "198.51.100.20")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Request %d expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	resp := ts.postForm(t, "/api/auth/login", url.Values{
		"username": {"alice@example.com"},
		"password": {"correct-horse"},
	}, "198.51.100.20")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", resp.StatusCode)
	}
}
