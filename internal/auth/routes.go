package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("auth: %s: %v", op, err)
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}

// RegisterRoutes mounts the account API routes. ratelimiter wraps the
// credential endpoints only; pass nil to disable limiting.
func RegisterRoutes(r chi.Router, store *Store, tokens *TokenManager, ratelimiter func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if ratelimiter != nil {
				r.Use(ratelimiter)
			}
			r.Post("/register", handleRegister(store, tokens))
			r.Post("/login", handleLogin(store, tokens))
		})
		r.With(RequireAuth).Get("/me", handleMe(store))
	})
}

func handleRegister(store *Store, tokens *TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if !strings.Contains(req.Email, "@") {
			http.Error(w, `{"error":"valid email is required"}`, http.StatusBadRequest)
			return
		}
		if len(req.Password) < 8 {
			http.Error(w, `{"error":"password must be at least 8 characters"}`, http.StatusBadRequest)
			return
		}

		user, err := store.Create(r.Context(), req)
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, `{"error":"email already registered"}`, http.StatusConflict)
			return
		}
		if err != nil {
			internalError(w, "creating user", err)
			return
		}

		token, err := tokens.Generate(user.ID)
		if err != nil {
			internalError(w, "issuing token", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

func handleLogin(store *Store, tokens *TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		user, err := store.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		if err != nil {
			internalError(w, "authenticating user", err)
			return
		}

		token, err := tokens.Generate(user.ID)
		if err != nil {
			internalError(w, "issuing token", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

func handleMe(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.GetByID(r.Context(), UserID(r.Context()))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "loading user", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}
