package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kipesa/kipesa-api/internal/cache"
	"github.com/kipesa/kipesa-api/internal/db"
	"github.com/kipesa/kipesa-api/internal/knowledge"
	"github.com/kipesa/kipesa-api/internal/llm"
)

// fakeProvider records every request and answers with a canned reply,
// optionally after a delay or with an error.
type fakeProvider struct {
	reply string
	err   error
	delay time.Duration
	calls []llm.CompletionRequest
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls = append(f.calls, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: req.Model}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeProfiles struct {
	profile *Profile
}

func (f fakeProfiles) Profile(ctx context.Context, userID string) (*Profile, error) {
	return f.profile, nil
}

type serviceDeps struct {
	database  *db.DB
	knowledge *knowledge.Store
	provider  *fakeProvider
}

func newTestService(t *testing.T, provider *fakeProvider, opts Options, profiles ProfileSource) (*Service, serviceDeps) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ks := knowledge.NewStore(database)
	svc := NewService(NewStore(database), ks, cache.NewMemory(), provider, profiles, nil, opts)
	return svc, serviceDeps{database: database, knowledge: ks, provider: provider}
}

func TestCreateConversationGeneratesReply(t *testing.T) {
	provider := &fakeProvider{reply: "Karibu! How can I help with your finances?"}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)

	resp, err := svc.CreateConversation(context.Background(), ConversationCreateRequest{
		InitialMessage: "Hello",
		Language:       "en",
	}, "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("conversation id is empty")
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(resp.Messages))
	}
	wantRoles := []string{RoleSystem, RoleUser, RoleAssistant}
	for i, role := range wantRoles {
		if resp.Messages[i].Role != role {
			t.Errorf("messages[%d].Role = %q, want %q", i, resp.Messages[i].Role, role)
		}
	}
	if resp.Messages[2].Content != provider.reply {
		t.Errorf("assistant content = %q", resp.Messages[2].Content)
	}

	history, err := svc.History(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if history.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d, want 3", history.TotalMessages)
	}

	// The assistant timestamp in the create response is the persisted one,
	// so it must survive a read back from the store.
	if got := resp.Messages[2].Timestamp; got.IsZero() {
		t.Error("assistant timestamp is zero")
	} else if want := history.Messages[2].Timestamp; !got.Truncate(time.Second).Equal(want) {
		t.Errorf("assistant timestamp = %v, stored %v", got, want)
	}
}

func TestProcessMessageCreatesConversationWithoutID(t *testing.T) {
	provider := &fakeProvider{reply: "Start by tracking your expenses."}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)

	resp, err := svc.ProcessMessage(context.Background(), ChatRequest{
		Message: "I need help with my budget",
	}, "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("conversation id is empty")
	}
	if resp.Message != provider.reply {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Intent != "budget_help" {
		t.Errorf("Intent = %q, want budget_help", resp.Intent)
	}
	if resp.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", resp.Confidence)
	}
	if resp.ResponseTime < 0 {
		t.Errorf("ResponseTime = %v", resp.ResponseTime)
	}
	if used, _ := resp.Metadata["knowledge_used"].(bool); used {
		t.Error("knowledge_used = true with empty knowledge base")
	}
}

func TestProcessMessageContinuesConversation(t *testing.T) {
	provider := &fakeProvider{reply: "reply"}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)
	ctx := context.Background()

	created, err := svc.CreateConversation(ctx, ConversationCreateRequest{InitialMessage: "Hello"}, "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	if _, err := svc.ProcessMessage(ctx, ChatRequest{
		Message:        "How do I save money?",
		ConversationID: created.ConversationID,
	}, ""); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	history, err := svc.History(ctx, created.ConversationID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	wantRoles := []string{RoleSystem, RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	if len(history.Messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(history.Messages))
	}
	for i, role := range wantRoles {
		if history.Messages[i].Role != role {
			t.Errorf("messages[%d].Role = %q, want %q", i, history.Messages[i].Role, role)
		}
	}
}

func TestProcessMessageUnknownConversation(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{reply: "x"}, DefaultOptions(), nil)

	_, err := svc.ProcessMessage(context.Background(), ChatRequest{
		Message:        "hi",
		ConversationID: "no-such-id",
	}, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompletionTimeoutFallsBackToApology(t *testing.T) {
	provider := &fakeProvider{reply: "too late", delay: 200 * time.Millisecond}
	opts := DefaultOptions()
	opts.CompletionTimeout = 10 * time.Millisecond
	svc, _ := newTestService(t, provider, opts, nil)
	ctx := context.Background()

	resp, err := svc.ProcessMessage(ctx, ChatRequest{Message: "hello"}, "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.Message != timeoutReply {
		t.Errorf("Message = %q, want timeout fallback", resp.Message)
	}

	// The fallback is persisted like any other assistant message.
	history, err := svc.History(ctx, resp.ConversationID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	last := history.Messages[len(history.Messages)-1]
	if last.Role != RoleAssistant || last.Content != timeoutReply {
		t.Errorf("last message = %q %q", last.Role, last.Content)
	}
}

func TestCompletionFailureFallsBackToApology(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream exploded")}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)

	resp, err := svc.ProcessMessage(context.Background(), ChatRequest{Message: "hello"}, "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.Message != failureReply {
		t.Errorf("Message = %q, want failure fallback", resp.Message)
	}
}

func TestKnowledgeSnippetsInjectedIntoSystemPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, deps := newTestService(t, provider, DefaultOptions(), nil)
	ctx := context.Background()

	if _, err := deps.knowledge.Insert(ctx, knowledge.Item{
		Title:    "Savings accounts",
		Content:  "CRDB and NMB offer savings accounts.",
		Language: "en",
		IsActive: true,
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	resp, err := svc.ProcessMessage(ctx, ChatRequest{Message: "tell me about savings"}, "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if used, _ := resp.Metadata["knowledge_used"].(bool); !used {
		t.Error("knowledge_used = false, want true")
	}

	call := provider.calls[len(provider.calls)-1]
	system := call.Messages[0]
	if system.Role != llm.RoleSystem {
		t.Fatalf("first prompt message role = %q", system.Role)
	}
	if !strings.Contains(system.Content, "Relevant information:") {
		t.Error("system prompt missing knowledge section")
	}
	if !strings.Contains(system.Content, "Savings accounts: CRDB and NMB offer savings accounts.") {
		t.Errorf("system prompt missing snippet: %q", system.Content)
	}
}

func TestProfileNoteAppendedForKnownUser(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	profiles := fakeProfiles{profile: &Profile{AgeGroup: "25-34", Location: "Dar es Salaam", Language: "en"}}
	svc, _ := newTestService(t, provider, DefaultOptions(), profiles)

	resp, err := svc.ProcessMessage(context.Background(), ChatRequest{Message: "hi"}, "user-1")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if used, _ := resp.Metadata["user_profile_used"].(bool); !used {
		t.Error("user_profile_used = false, want true")
	}

	call := provider.calls[len(provider.calls)-1]
	want := "User profile: 25-34, Dar es Salaam, en"
	found := false
	for _, m := range call.Messages {
		if m.Role == llm.RoleSystem && m.Content == want {
			found = true
		}
	}
	if !found {
		t.Errorf("prompt missing profile note %q", want)
	}
}

func TestHistoryWindowBoundsPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	opts := DefaultOptions()
	opts.MaxHistory = 2
	svc, _ := newTestService(t, provider, opts, nil)
	ctx := context.Background()

	created, err := svc.CreateConversation(ctx, ConversationCreateRequest{InitialMessage: "one"}, "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	for _, msg := range []string{"two", "three", "four"} {
		if _, err := svc.ProcessMessage(ctx, ChatRequest{
			Message:        msg,
			ConversationID: created.ConversationID,
		}, ""); err != nil {
			t.Fatalf("ProcessMessage(%q): %v", msg, err)
		}
	}

	// system prompt + 2 history messages + current user message.
	call := provider.calls[len(provider.calls)-1]
	if len(call.Messages) != 4 {
		t.Fatalf("prompt length = %d, want 4", len(call.Messages))
	}
	last := call.Messages[len(call.Messages)-1]
	if last.Role != llm.RoleUser || last.Content != "four" {
		t.Errorf("last prompt message = %q %q", last.Role, last.Content)
	}
}

func TestSubmitFeedback(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)
	ctx := context.Background()

	resp, err := svc.ProcessMessage(ctx, ChatRequest{Message: "hello"}, "")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	ok := svc.SubmitFeedback(ctx, Feedback{
		ConversationID: resp.ConversationID,
		MessageID:      "some-message",
		Rating:         5,
		Helpful:        true,
	})
	if !ok {
		t.Error("SubmitFeedback = false, want true")
	}
}

func TestAnalyticsSummary(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, _ := newTestService(t, provider, DefaultOptions(), nil)
	ctx := context.Background()

	if _, err := svc.ProcessMessage(ctx, ChatRequest{Message: "help with my budget"}, ""); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if _, err := svc.ProcessMessage(ctx, ChatRequest{Message: "naomba msaada wa bajeti", Language: "sw"}, ""); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	summary, err := svc.Analytics(ctx, AnalyticsFilter{})
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if summary.TotalConversations != 2 {
		t.Errorf("TotalConversations = %d, want 2", summary.TotalConversations)
	}
	// Each conversation holds system, user and assistant messages.
	if summary.TotalMessages != 6 {
		t.Errorf("TotalMessages = %d, want 6", summary.TotalMessages)
	}
	if summary.AverageConfidence != 0.8 {
		t.Errorf("AverageConfidence = %v, want 0.8", summary.AverageConfidence)
	}
	if summary.LanguageDistribution["en"] != 1 || summary.LanguageDistribution["sw"] != 1 {
		t.Errorf("LanguageDistribution = %v", summary.LanguageDistribution)
	}
	if len(summary.TopIntents) == 0 || summary.TopIntents[0].Intent != "budget_help" {
		t.Errorf("TopIntents = %v", summary.TopIntents)
	}
	if summary.SentimentDistribution["neutral"] != 0 {
		t.Errorf("SentimentDistribution = %v", summary.SentimentDistribution)
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{reply: "ok"}, DefaultOptions(), nil)

	summary, err := svc.Analytics(context.Background(), AnalyticsFilter{})
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if summary.TotalConversations != 0 || summary.TotalMessages != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.AverageResponseTime != 0 {
		t.Errorf("AverageResponseTime = %v, want 0", summary.AverageResponseTime)
	}
}
