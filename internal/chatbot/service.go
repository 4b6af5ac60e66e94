package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kipesa/kipesa-api/internal/cache"
	"github.com/kipesa/kipesa-api/internal/knowledge"
	"github.com/kipesa/kipesa-api/internal/llm"
	"github.com/kipesa/kipesa-api/internal/nlp"
)

// placeholderConfidence is the stub confidence reported until a real
// scorer exists. Always in [0,1].
const placeholderConfidence = 0.8

// Profile is the cached projection of a user used to personalize replies.
// The user store remains the system of record.
type Profile struct {
	AgeGroup string `json:"age_group"`
	Location string `json:"location"`
	Language string `json:"language"`
}

// ProfileSource resolves a user id to a profile projection. A nil profile
// with nil error means the user is unknown.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
}

// ReplyStatus distinguishes a normal reply from a degraded one, so
// callers cannot mistake a fallback body for a fatal error or vice versa.
type ReplyStatus int

const (
	ReplyOK ReplyStatus = iota
	ReplyTimedOut
	ReplyFailed
)

// replyOutcome carries the generated (or substituted) assistant reply and
// the classifier results derived from it.
type replyOutcome struct {
	Content       string
	Status        ReplyStatus
	MessageID     string
	CreatedAt     time.Time
	Intent        string
	Entities      []nlp.Entity
	Sentiment     string
	KnowledgeUsed bool
	ProfileUsed   bool
}

// Options tunes the conversation manager.
type Options struct {
	Model             string
	MaxTokens         int
	Temperature       float64
	PresencePenalty   float64
	FrequencyPenalty  float64
	CompletionTimeout time.Duration
	MaxHistory        int
	ConversationTTL   time.Duration
	KnowledgeTTL      time.Duration
	ProfileTTL        time.Duration
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		Model:             "gpt-3.5-turbo",
		MaxTokens:         500,
		Temperature:       0.7,
		PresencePenalty:   0.1,
		FrequencyPenalty:  0.1,
		CompletionTimeout: 30 * time.Second,
		MaxHistory:        10,
		ConversationTTL:   cache.ConversationTTL,
		KnowledgeTTL:      cache.KnowledgeTTL,
		ProfileTTL:        cache.ProfileTTL,
	}
}

// Service is the conversation manager. It owns conversation and message
// persistence, assembles prompt context, invokes the completion provider
// and records per-reply analytics.
type Service struct {
	store     *Store
	knowledge *knowledge.Store
	cache     cache.Cache
	provider  llm.Provider
	profiles  ProfileSource            // optional
	semantic  *knowledge.SemanticIndex // optional
	opts      Options
}

// NewService creates a conversation manager. profiles and semantic may be
// nil; personalization and semantic search are then skipped.
func NewService(store *Store, ks *knowledge.Store, c cache.Cache, provider llm.Provider, profiles ProfileSource, semantic *knowledge.SemanticIndex, opts Options) *Service {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 10
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = 30 * time.Second
	}
	return &Service{
		store:     store,
		knowledge: ks,
		cache:     c,
		provider:  provider,
		profiles:  profiles,
		semantic:  semantic,
		opts:      opts,
	}
}

// CreateConversation creates a conversation with its system prompt and
// initial user message, then synchronously generates the first assistant
// reply. If any step fails the persisted state is removed again.
func (s *Service) CreateConversation(ctx context.Context, req ConversationCreateRequest, userID string) (*ConversationResponse, error) {
	started := time.Now()

	language := req.Language
	if language == "" {
		language = LanguageEnglish
	}

	conv, msgs, err := s.store.CreateConversation(ctx, userID, language, req.Context, SystemPrompt(language), req.InitialMessage)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	out, err := s.generateReply(ctx, conv, userID, req.InitialMessage, started)
	if err != nil {
		if delErr := s.store.DeleteConversation(ctx, conv.ID); delErr != nil {
			log.Printf("chatbot: rolling back conversation %s: %v", conv.ID, delErr)
		}
		return nil, err
	}

	views := make([]MessageView, 0, len(msgs)+1)
	for _, m := range msgs {
		views = append(views, MessageView{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt})
	}
	views = append(views, MessageView{Role: RoleAssistant, Content: out.Content, Timestamp: out.CreatedAt})

	return &ConversationResponse{
		ConversationID: conv.ID,
		Messages:       views,
		Language:       language,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
		UserID:         userID,
		Metadata:       req.Context,
	}, nil
}

// ProcessMessage appends a user message (creating the conversation first
// when no id is supplied) and generates a reply. ResponseTime spans
// receipt to response.
func (s *Service) ProcessMessage(ctx context.Context, req ChatRequest, userID string) (*ChatResponse, error) {
	started := time.Now()

	language := req.Language
	if language == "" {
		language = LanguageEnglish
	}

	var (
		conv *Conversation
		err  error
	)
	if req.ConversationID == "" {
		conv, _, err = s.store.CreateConversation(ctx, userID, language, req.Context, SystemPrompt(language), req.Message)
		if err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
	} else {
		conv, err = s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		// The conversation's language sticks; the request only picks the
		// language when it starts the conversation.
		if req.Language == "" {
			language = conv.Language
		}
		if _, err := s.store.AppendMessage(ctx, conv.ID, RoleUser, req.Message); err != nil {
			return nil, fmt.Errorf("appending user message: %w", err)
		}
	}

	if userID == "" {
		userID = conv.UserID
	}

	out, err := s.generateReply(ctx, conv, userID, req.Message, started)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		ConversationID: conv.ID,
		Message:        out.Content,
		Language:       language,
		Confidence:     placeholderConfidence,
		Intent:         out.Intent,
		Entities:       out.Entities,
		Sentiment:      out.Sentiment,
		ResponseTime:   time.Since(started).Seconds(),
		Metadata: map[string]any{
			"knowledge_used":    out.KnowledgeUsed,
			"user_profile_used": out.ProfileUsed,
		},
	}, nil
}

// History returns a conversation with all of its messages, or ErrNotFound.
func (s *Service) History(ctx context.Context, conversationID string) (*ConversationHistory, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	views := make([]MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = MessageView{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt}
	}

	return &ConversationHistory{
		ConversationID: conv.ID,
		Messages:       views,
		TotalMessages:  len(views),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}, nil
}

// SubmitFeedback stores feedback for an assistant reply. Persistence
// failures are reported as false, never raised.
func (s *Service) SubmitFeedback(ctx context.Context, fb Feedback) bool {
	if err := s.store.InsertFeedback(ctx, fb); err != nil {
		log.Printf("chatbot: submitting feedback: %v", err)
		return false
	}
	return true
}

// generateReply runs the reply pipeline: history, knowledge, profile,
// prompt assembly, completion with a bounded timeout, persistence and
// analytics. Completion failures degrade to fixed fallback bodies; only
// persistence failures and caller cancellation surface as errors.
func (s *Service) generateReply(ctx context.Context, conv *Conversation, userID, userMessage string, started time.Time) (*replyOutcome, error) {
	history := s.loadHistory(ctx, conv.ID)

	// The current user message is already persisted; it is appended to
	// the prompt explicitly below.
	if n := len(history); n > 0 && history[n-1].Role == RoleUser && history[n-1].Content == userMessage {
		history = history[:n-1]
	}

	snippets := s.loadKnowledgeSnippets(ctx, userMessage, conv.Language)

	var profile *Profile
	if userID != "" {
		profile = s.loadProfile(ctx, userID)
	}

	systemContent := SystemPrompt(conv.Language)
	if snippets != "" {
		systemContent += "\n\nRelevant information:\n" + snippets
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemContent}}
	if n := len(history); n > s.opts.MaxHistory {
		history = history[n-s.opts.MaxHistory:]
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	if profile != nil {
		note := fmt.Sprintf("User profile: %s, %s, %s", profile.AgeGroup, profile.Location, profile.Language)
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: note})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	out := &replyOutcome{
		Status:        ReplyOK,
		KnowledgeUsed: snippets != "",
		ProfileUsed:   profile != nil,
	}

	// Single attempt, no retries. The completion timeout and the
	// caller's own cancellation are both honored; whichever fires first
	// wins.
	cctx, cancel := context.WithTimeout(ctx, s.opts.CompletionTimeout)
	resp, err := s.provider.Complete(cctx, llm.CompletionRequest{
		Model:            s.opts.Model,
		Messages:         messages,
		MaxTokens:        s.opts.MaxTokens,
		Temperature:      s.opts.Temperature,
		PresencePenalty:  s.opts.PresencePenalty,
		FrequencyPenalty: s.opts.FrequencyPenalty,
	})
	cancel()

	switch {
	case err == nil:
		out.Content = resp.Content
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("chatbot: completion timed out for conversation %s", conv.ID)
		out.Status = ReplyTimedOut
		out.Content = timeoutReply
	default:
		log.Printf("chatbot: completion failed for conversation %s: %v", conv.ID, err)
		out.Status = ReplyFailed
		out.Content = failureReply
	}

	msg, err := s.store.AppendMessage(ctx, conv.ID, RoleAssistant, out.Content)
	if err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}
	out.MessageID = msg.ID
	out.CreatedAt = msg.CreatedAt

	// The cached history predates this reply; drop it so the next read
	// repopulates from the store.
	s.cache.Delete(ctx, cache.ConversationKey(conv.ID))

	out.Intent = nlp.ClassifyIntent(userMessage)
	out.Entities = nlp.ExtractEntities(userMessage)
	out.Sentiment = nlp.AnalyzeSentiment(out.Content)

	rec := AnalyticsRecord{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Intent:         out.Intent,
		Confidence:     placeholderConfidence,
		Entities:       out.Entities,
		Sentiment:      out.Sentiment,
		ResponseTime:   time.Since(started).Seconds(),
	}
	if err := s.store.InsertAnalytics(ctx, rec); err != nil {
		log.Printf("chatbot: recording analytics for conversation %s: %v", conv.ID, err)
	}

	return out, nil
}

// loadHistory returns the conversation's messages, cache-first with a
// persistent-store fallback that repopulates the cache. Failures degrade
// to an empty history.
func (s *Service) loadHistory(ctx context.Context, conversationID string) []StoredMessage {
	key := cache.ConversationKey(conversationID)

	if data, ok := s.cache.Get(ctx, key); ok {
		var msgs []StoredMessage
		if err := json.Unmarshal(data, &msgs); err == nil {
			return msgs
		}
		s.cache.Delete(ctx, key)
	}

	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		log.Printf("chatbot: loading history for %s: %v", conversationID, err)
		return nil
	}

	if len(msgs) > 0 {
		if data, err := json.Marshal(msgs); err == nil {
			s.cache.Set(ctx, key, data, s.opts.ConversationTTL)
		}
	}
	return msgs
}

// loadKnowledgeSnippets returns up to three grounding snippets for the
// utterance. The semantic index is preferred when available and falls
// back to keyword matching; every failure degrades to no snippets.
func (s *Service) loadKnowledgeSnippets(ctx context.Context, userMessage, language string) string {
	if s.semantic != nil {
		if snippets := s.semantic.Search(ctx, userMessage, 3); len(snippets) > 0 {
			return joinSnippets(snippets)
		}
	}

	items := s.loadKnowledgeCorpus(ctx, language)
	return knowledge.Snippets(userMessage, items)
}

// loadKnowledgeCorpus returns the language's active knowledge items,
// cache-first.
func (s *Service) loadKnowledgeCorpus(ctx context.Context, language string) []knowledge.Item {
	key := cache.KnowledgeKey(language)

	if data, ok := s.cache.Get(ctx, key); ok {
		var items []knowledge.Item
		if err := json.Unmarshal(data, &items); err == nil {
			return items
		}
		s.cache.Delete(ctx, key)
	}

	items, err := s.knowledge.ListActive(ctx, language)
	if err != nil {
		log.Printf("chatbot: loading knowledge for %s: %v", language, err)
		return nil
	}

	if data, err := json.Marshal(items); err == nil {
		s.cache.Set(ctx, key, data, s.opts.KnowledgeTTL)
	}
	return items
}

// loadProfile returns the user's profile projection, cache-first. Any
// failure degrades to no personalization.
func (s *Service) loadProfile(ctx context.Context, userID string) *Profile {
	if s.profiles == nil {
		return nil
	}

	key := cache.ProfileKey(userID)

	if data, ok := s.cache.Get(ctx, key); ok {
		var p Profile
		if err := json.Unmarshal(data, &p); err == nil {
			return &p
		}
		s.cache.Delete(ctx, key)
	}

	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		log.Printf("chatbot: loading profile for %s: %v", userID, err)
		return nil
	}
	if p == nil {
		return nil
	}

	if data, err := json.Marshal(p); err == nil {
		s.cache.Set(ctx, key, data, s.opts.ProfileTTL)
	}
	return p
}

func joinSnippets(snippets []string) string {
	out := ""
	for i, sn := range snippets {
		if i > 0 {
			out += "\n\n"
		}
		out += sn
	}
	return out
}
