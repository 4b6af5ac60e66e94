package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kipesa/kipesa-api/internal/db"
)

// Store provides access to persisted knowledge items.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert adds a knowledge item. If item.ID is empty a UUID is generated.
func (s *Store) Insert(ctx context.Context, item Item) (string, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Language == "" {
		item.Language = "en"
	}
	if item.Category == "" {
		item.Category = "general"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_items (id, title, content, category, language, source, relevance_score, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Content, item.Category, item.Language,
		item.Source, item.RelevanceScore, boolToInt(item.IsActive),
	)
	if err != nil {
		return "", fmt.Errorf("inserting knowledge item: %w", err)
	}
	return item.ID, nil
}

// ListActive returns active items for a language in insertion order.
// Insertion order is the matcher's encounter order.
func (s *Store) ListActive(ctx context.Context, language string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, category, language, source, relevance_score, is_active, created_at, updated_at
		FROM knowledge_items
		WHERE language = ? AND is_active = 1
		ORDER BY rowid`, language)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it                   Item
			active               int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Content, &it.Category, &it.Language,
			&it.Source, &it.RelevanceScore, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge item: %w", err)
		}
		it.IsActive = active != 0
		it.CreatedAt = parseTime(createdAt)
		it.UpdatedAt = parseTime(updatedAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

// Count returns the total number of knowledge items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting knowledge items: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
