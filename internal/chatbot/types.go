// Package chatbot owns conversation state: persistence of conversations
// and messages, prompt assembly, completion calls, feedback and the
// analytics derived from each reply.
package chatbot

import (
	"time"

	"github.com/kipesa/kipesa-api/internal/nlp"
)

// Role of a chat message author.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Supported language codes.
const (
	LanguageEnglish = "en"
	LanguageSwahili = "sw"
)

// ValidLanguage reports whether code is a supported language.
func ValidLanguage(code string) bool {
	return code == LanguageEnglish || code == LanguageSwahili
}

// Conversation is a stored conversation row.
type Conversation struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Language  string         `json:"language"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StoredMessage is a stored chat message. Seq is the append order within
// its conversation and is the literal prompt history order.
type StoredMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Seq            int       `json:"seq"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Feedback is a user rating of one assistant message. Never mutated once
// stored.
type Feedback struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Rating         int    `json:"rating"`
	Feedback       string `json:"feedback,omitempty"`
	Helpful        bool   `json:"helpful"`
}

// AnalyticsRecord captures the classifier output for one assistant reply.
type AnalyticsRecord struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	MessageID      string       `json:"message_id"`
	Intent         string       `json:"intent"`
	Confidence     float64      `json:"confidence"`
	Entities       []nlp.Entity `json:"entities"`
	Sentiment      string       `json:"sentiment"`
	ResponseTime   float64      `json:"response_time"`
}

// ConversationCreateRequest starts a new conversation.
type ConversationCreateRequest struct {
	InitialMessage string         `json:"initial_message"`
	Language       string         `json:"language"`
	UserID         string         `json:"user_id,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// MessageView is the wire shape of a single message.
type MessageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationResponse is returned when a conversation is created.
type ConversationResponse struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []MessageView  `json:"messages"`
	Language       string         `json:"language"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UserID         string         `json:"user_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ConversationHistory is the wire shape for a history lookup.
type ConversationHistory struct {
	ConversationID string        `json:"conversation_id"`
	Messages       []MessageView `json:"messages"`
	TotalMessages  int           `json:"total_messages"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ChatRequest sends one user message, optionally continuing an existing
// conversation.
type ChatRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Language       string         `json:"language"`
	UserID         string         `json:"user_id,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// ChatResponse is the reply to a ChatRequest. ResponseTime is wall-clock
// seconds measured from request receipt to response.
type ChatResponse struct {
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message"`
	Language       string         `json:"language"`
	Confidence     float64        `json:"confidence"`
	Intent         string         `json:"intent,omitempty"`
	Entities       []nlp.Entity   `json:"entities,omitempty"`
	Sentiment      string         `json:"sentiment,omitempty"`
	ResponseTime   float64        `json:"response_time"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// IntentCount is one entry of the top-intents ranking.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// AnalyticsSummary aggregates stored conversations for reporting.
type AnalyticsSummary struct {
	TotalConversations    int            `json:"total_conversations"`
	TotalMessages         int            `json:"total_messages"`
	AverageResponseTime   float64        `json:"average_response_time"`
	AverageConfidence     float64        `json:"average_confidence"`
	LanguageDistribution  map[string]int `json:"language_distribution"`
	TopIntents            []IntentCount  `json:"top_intents"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
}

// AnalyticsFilter scopes an analytics query.
type AnalyticsFilter struct {
	UserID string
	Since  *time.Time
	Until  *time.Time
}
