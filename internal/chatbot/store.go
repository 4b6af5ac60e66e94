package chatbot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kipesa/kipesa-api/internal/db"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Store provides transactional persistence for conversations, messages,
// feedback and analytics records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateConversation inserts a conversation together with its system and
// initial user message in one unit. Partial failure rolls back the whole
// unit.
func (s *Store) CreateConversation(ctx context.Context, userID, language string, metadata map[string]any, systemContent, userContent string) (*Conversation, []StoredMessage, error) {
	now := time.Now().UTC()

	conv := &Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Language:  language,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling conversation metadata: %w", err)
	}
	if metadata == nil {
		metaJSON = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var uid sql.NullString
	if userID != "" {
		uid = sql.NullString{String: userID, Valid: true}
	}

	ts := now.Format(time.DateTime)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, language, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, uid, language, string(metaJSON), ts, ts,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting conversation: %w", err)
	}

	messages := []StoredMessage{
		{ID: uuid.New().String(), ConversationID: conv.ID, Seq: 0, Role: RoleSystem, Content: systemContent, CreatedAt: now},
		{ID: uuid.New().String(), ConversationID: conv.ID, Seq: 1, Role: RoleUser, Content: userContent, CreatedAt: now},
	}
	for _, m := range messages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chat_messages (id, conversation_id, seq, role, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.ConversationID, m.Seq, m.Role, m.Content, ts,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("inserting %s message: %w", m.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing conversation: %w", err)
	}
	return conv, messages, nil
}

// AppendMessage adds one message at the end of a conversation and bumps
// the conversation's updated timestamp, in one unit.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*StoredMessage, error) {
	now := time.Now().UTC()
	ts := now.Format(time.DateTime)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?", ts, conversationID)
	if err != nil {
		return nil, fmt.Errorf("touching conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	msg := &StoredMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq)+1, 0) FROM chat_messages WHERE conversation_id = ?",
		conversationID).Scan(&msg.Seq)
	if err != nil {
		return nil, fmt.Errorf("next message seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, conversation_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Seq, msg.Role, msg.Content, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// DeleteConversation removes a conversation and everything hanging off
// it, in one unit.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"chat_analytics", "chat_feedback", "chat_messages"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE conversation_id = ?", id); err != nil {
			return fmt.Errorf("deleting from %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// GetConversation retrieves one conversation, or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, language, metadata, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	var (
		conv                 Conversation
		uid                  sql.NullString
		metaJSON             string
		createdAt, updatedAt string
	)
	err := row.Scan(&conv.ID, &uid, &conv.Language, &metaJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	if uid.Valid {
		conv.UserID = uid.String
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &conv.Metadata); err != nil {
			conv.Metadata = nil
		}
	}
	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)
	return &conv, nil
}

// ListMessages returns all messages of a conversation in append order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, seq, role, content, created_at
		FROM chat_messages
		WHERE conversation_id = ?
		ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []StoredMessage
	for rows.Next() {
		var (
			m  StoredMessage
			ts string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Seq, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt = parseTime(ts)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// InsertFeedback stores one feedback row. Rating bounds are enforced by
// the schema as well as at the boundary.
func (s *Store) InsertFeedback(ctx context.Context, fb Feedback) error {
	var text sql.NullString
	if fb.Feedback != "" {
		text = sql.NullString{String: fb.Feedback, Valid: true}
	}

	helpful := 0
	if fb.Helpful {
		helpful = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_feedback (id, conversation_id, message_id, rating, feedback, helpful)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), fb.ConversationID, fb.MessageID, fb.Rating, text, helpful,
	)
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

// InsertAnalytics stores one analytics record for an assistant reply.
func (s *Store) InsertAnalytics(ctx context.Context, rec AnalyticsRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	entities, err := json.Marshal(rec.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}
	if rec.Entities == nil {
		entities = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_analytics (id, conversation_id, message_id, intent, confidence, entities, sentiment, response_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.MessageID, rec.Intent, rec.Confidence,
		string(entities), rec.Sentiment, rec.ResponseTime,
	)
	if err != nil {
		return fmt.Errorf("inserting analytics record: %w", err)
	}
	return nil
}

// ListConversations returns conversations matching the filter, oldest
// first.
func (s *Store) ListConversations(ctx context.Context, filter AnalyticsFilter) ([]Conversation, error) {
	query := "SELECT id, user_id, language, metadata, created_at, updated_at FROM conversations"
	clauses, args := filterClauses(filter, "")
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var (
			conv                 Conversation
			uid                  sql.NullString
			metaJSON             string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&conv.ID, &uid, &conv.Language, &metaJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		if uid.Valid {
			conv.UserID = uid.String
		}
		conv.CreatedAt = parseTime(createdAt)
		conv.UpdatedAt = parseTime(updatedAt)
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// CountMessages returns the number of messages in conversations matching
// the filter.
func (s *Store) CountMessages(ctx context.Context, filter AnalyticsFilter) (int, error) {
	query := `
		SELECT COUNT(*) FROM chat_messages m
		JOIN conversations c ON c.id = m.conversation_id`
	clauses, args := filterClauses(filter, "c.")
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

// ListAnalyticsRecords returns analytics rows for conversations matching
// the filter, in insertion order.
func (s *Store) ListAnalyticsRecords(ctx context.Context, filter AnalyticsFilter) ([]AnalyticsRecord, error) {
	query := `
		SELECT a.id, a.conversation_id, a.message_id, a.intent, a.confidence, a.entities, a.sentiment, a.response_time
		FROM chat_analytics a
		JOIN conversations c ON c.id = a.conversation_id`
	clauses, args := filterClauses(filter, "c.")
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY a.rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying analytics records: %w", err)
	}
	defer rows.Close()

	var records []AnalyticsRecord
	for rows.Next() {
		var (
			rec      AnalyticsRecord
			entities string
		)
		if err := rows.Scan(&rec.ID, &rec.ConversationID, &rec.MessageID, &rec.Intent,
			&rec.Confidence, &entities, &rec.Sentiment, &rec.ResponseTime); err != nil {
			return nil, fmt.Errorf("scanning analytics record: %w", err)
		}
		if err := json.Unmarshal([]byte(entities), &rec.Entities); err != nil {
			rec.Entities = nil
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// filterClauses builds WHERE fragments for an AnalyticsFilter. prefix
// qualifies the conversations table when the query joins it.
func filterClauses(filter AnalyticsFilter, prefix string) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, prefix+"user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Since != nil {
		clauses = append(clauses, prefix+"created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, prefix+"created_at <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}
	return clauses, args
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
