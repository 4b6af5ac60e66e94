// Package knowledge stores the short finance reference documents used to
// ground chatbot replies, and matches them against user utterances.
package knowledge

import "time"

// Item is a single knowledge base document. Items are read-only on the
// conversation path; content management happens through the seed tooling.
type Item struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	Language       string    `json:"language"`
	Source         string    `json:"source,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
