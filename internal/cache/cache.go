// Package cache provides a best-effort key/value store with TTL used for
// conversation history, knowledge snippets and user profile projections.
// A miss never means an authoritative negative: callers must fall back to
// the persistent store.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default TTLs per namespace. All are overridable per call.
const (
	ConversationTTL = 1800 * time.Second
	KnowledgeTTL    = 7200 * time.Second
	ProfileTTL      = 3600 * time.Second
)

// Cache is a best-effort TTL key/value store. Every operation degrades to
// a miss (or false) when the backing store is unavailable; none of them
// return errors.
type Cache interface {
	// Get returns the cached value, or ok=false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for the given TTL and reports success.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	// Delete removes key and reports whether a live entry was removed.
	Delete(ctx context.Context, key string) bool
	// Exists reports whether key holds a live entry.
	Exists(ctx context.Context, key string) bool
}

// KnowledgeKey returns the cache key for a language-scoped knowledge corpus.
func KnowledgeKey(language string) string {
	return fmt.Sprintf("knowledge_base:%s", language)
}

// ConversationKey returns the cache key for a conversation's history.
func ConversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

// ProfileKey returns the cache key for a user profile projection.
func ProfileKey(userID string) string {
	return fmt.Sprintf("user_profile:%s", userID)
}
