package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kipesa/kipesa-api/internal/db"
)

func setupRouter(t *testing.T) (*chi.Mux, *Store, *TokenManager) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	tokens := NewTokenManager("test-secret", time.Hour)

	r := chi.NewRouter()
	r.Use(tokens.Middleware)
	RegisterRoutes(r, store, tokens, nil)
	return r, store, tokens
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r http.Handler, email string) TokenResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"password":  "password123",
		"full_name": "Test User",
		"age_group": "25-34",
		"location":  "Dar es Salaam",
		"language":  "en",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding token response: %v", err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	r, _, _ := setupRouter(t)

	created := registerUser(t, r, "asha@example.com")
	if created.AccessToken == "" {
		t.Fatal("access token is empty")
	}
	if created.TokenType != "bearer" {
		t.Errorf("token_type = %q", created.TokenType)
	}
	if created.User == nil || created.User.Email != "asha@example.com" {
		t.Fatalf("user = %+v", created.User)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "asha@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _, _ := setupRouter(t)

	registerUser(t, r, "asha@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "asha@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _, _ := setupRouter(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad email", map[string]any{"email": "not-an-email", "password": "password123"}},
		{"short password", map[string]any{"email": "a@example.com", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r, _, _ := setupRouter(t)

	registerUser(t, r, "asha@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "asha@example.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMe(t *testing.T) {
	r, _, _ := setupRouter(t)

	created := registerUser(t, r, "asha@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", created.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var user User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decoding user: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Errorf("email = %q", user.Email)
	}
}

func TestMeRequiresToken(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMeRejectsGarbageToken(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	signed, err := tokens.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	userID, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q", userID)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenManager("secret-a", time.Hour).Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewTokenManager("secret-b", time.Hour).Validate(signed); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	signed, err := NewTokenManager("secret", -time.Minute).Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewTokenManager("secret", time.Hour).Validate(signed); err == nil {
		t.Fatal("expected validation to fail for expired token")
	}
}

func TestProfileProjection(t *testing.T) {
	r, store, _ := setupRouter(t)
	ctx := context.Background()

	created := registerUser(t, r, "asha@example.com")

	profile, err := store.Profile(ctx, created.User.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile == nil {
		t.Fatal("profile is nil")
	}
	if profile.AgeGroup != "25-34" || profile.Location != "Dar es Salaam" || profile.Language != "en" {
		t.Errorf("profile = %+v", profile)
	}

	missing, err := store.Profile(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("Profile for missing user: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil profile, got %+v", missing)
	}
}

func TestStorageFailureBodyStaysGeneric(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, NewStore(database), NewTokenManager("test-secret", time.Hour), nil)

	database.Close()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "asha@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "internal server error") {
		t.Errorf("body = %q, want the fixed error message", body)
	}
	if strings.Contains(body, "sql") || strings.Contains(body, "closed") {
		t.Errorf("body = %q leaks storage detail", body)
	}
}

func TestAuthenticateErrors(t *testing.T) {
	_, store, _ := setupRouter(t)

	_, err := store.Authenticate(context.Background(), "nobody@example.com", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
