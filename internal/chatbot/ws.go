package chatbot

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// wsResponse is the outgoing WebSocket message format. For "response"
// frames Reply carries the full chat payload.
type wsResponse struct {
	Type           string        `json:"type"` // "response" or "error"
	ConversationID string        `json:"conversation_id,omitempty"`
	Error          string        `json:"error,omitempty"`
	Reply          *ChatResponse `json:"reply,omitempty"`
}

// handleWebsocket serves a streaming chat session over one socket. Each
// incoming frame goes through the same pipeline as POST /chat.
func handleWebsocket(svc *Service, identity Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("chatbot: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		authedUser := identity(r)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("chatbot: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWsError(conn, "", "invalid message format")
				continue
			}
			if req.Message == "" {
				sendWsError(conn, req.ConversationID, "message is required")
				continue
			}
			if req.Language != "" && !ValidLanguage(req.Language) {
				sendWsError(conn, req.ConversationID, "unsupported language")
				continue
			}

			userID := authedUser
			if userID == "" {
				userID = req.UserID
			}

			resp, err := svc.ProcessMessage(r.Context(), ChatRequest{
				Message:        req.Message,
				ConversationID: req.ConversationID,
				Language:       req.Language,
			}, userID)
			if errors.Is(err, ErrNotFound) {
				sendWsError(conn, req.ConversationID, "conversation not found")
				continue
			}
			if err != nil {
				log.Printf("chatbot: websocket processing message: %v", err)
				sendWsError(conn, req.ConversationID, "internal server error")
				continue
			}

			out := wsResponse{
				Type:           "response",
				ConversationID: resp.ConversationID,
				Reply:          resp,
			}
			if err := conn.WriteJSON(out); err != nil {
				log.Printf("chatbot: websocket write: %v", err)
				return
			}
		}
	}
}

func sendWsError(conn *websocket.Conn, conversationID, message string) {
	resp := wsResponse{
		Type:           "error",
		ConversationID: conversationID,
		Error:          message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("chatbot: websocket write error: %v", err)
	}
}
