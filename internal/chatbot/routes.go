package chatbot

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kipesa/kipesa-api/internal/nlp"
)

// internalError logs the failure with its operation and answers with a
// fixed body. Wrapped error chains carry driver and SQL detail that must
// not reach the client.
func internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("chatbot: %s: %v", op, err)
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}

// Identity resolves the authenticated user id for a request, or "" for
// anonymous traffic.
type Identity func(r *http.Request) string

// RegisterRoutes mounts the chatbot API routes. identity may be nil, in
// which case only the request body's user_id is honored.
func RegisterRoutes(r chi.Router, svc *Service, identity Identity) {
	if identity == nil {
		identity = func(*http.Request) string { return "" }
	}
	r.Route("/api/chatbot", func(r chi.Router) {
		r.Post("/conversation", handleCreateConversation(svc, identity))
		r.Post("/chat", handleChat(svc, identity))
		r.Get("/conversation/{id}", handleHistory(svc))
		r.Post("/feedback", handleFeedback(svc))
		r.Get("/analytics", handleAnalytics(svc))
		r.Get("/languages", handleLanguages())
		r.Get("/intents", handleIntents())
		r.Get("/health", handleHealth())
		r.Get("/ws", handleWebsocket(svc, identity))
	})
}

func handleCreateConversation(svc *Service, identity Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.InitialMessage == "" {
			http.Error(w, `{"error":"initial_message is required"}`, http.StatusBadRequest)
			return
		}
		if req.Language != "" && !ValidLanguage(req.Language) {
			http.Error(w, `{"error":"unsupported language"}`, http.StatusBadRequest)
			return
		}

		userID := identity(r)
		if userID == "" {
			userID = req.UserID
		}

		resp, err := svc.CreateConversation(r.Context(), req, userID)
		if err != nil {
			internalError(w, "creating conversation", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}

func handleChat(svc *Service, identity Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}
		if req.Language != "" && !ValidLanguage(req.Language) {
			http.Error(w, `{"error":"unsupported language"}`, http.StatusBadRequest)
			return
		}

		userID := identity(r)
		if userID == "" {
			userID = req.UserID
		}

		resp, err := svc.ProcessMessage(r.Context(), req, userID)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "processing message", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleHistory(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		history, err := svc.History(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "loading history", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}

func handleFeedback(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb Feedback
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if fb.ConversationID == "" || fb.MessageID == "" {
			http.Error(w, `{"error":"conversation_id and message_id are required"}`, http.StatusBadRequest)
			return
		}
		if fb.Rating < 1 || fb.Rating > 5 {
			http.Error(w, `{"error":"rating must be between 1 and 5"}`, http.StatusBadRequest)
			return
		}

		ok := svc.SubmitFeedback(r.Context(), fb)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"success": ok})
	}
}

func handleAnalytics(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := AnalyticsFilter{UserID: r.URL.Query().Get("user_id")}
		if v := r.URL.Query().Get("start"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, `{"error":"invalid start timestamp"}`, http.StatusBadRequest)
				return
			}
			filter.Since = &t
		}
		if v := r.URL.Query().Get("end"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, `{"error":"invalid end timestamp"}`, http.StatusBadRequest)
				return
			}
			filter.Until = &t
		}

		summary, err := svc.Analytics(r.Context(), filter)
		if err != nil {
			internalError(w, "aggregating analytics", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

func handleLanguages() http.HandlerFunc {
	type language struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	languages := []language{
		{Code: LanguageEnglish, Name: "English"},
		{Code: LanguageSwahili, Name: "Swahili"},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"languages": languages})
	}
}

func handleIntents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"intents": nlp.Intents()})
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "chatbot",
		})
	}
}
