package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/kipesa/kipesa-api/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func seedItems(t *testing.T, store *Store, items []Item) {
	t.Helper()
	for _, it := range items {
		if _, err := store.Insert(context.Background(), it); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
}

func TestInsertAndListActive(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seedItems(t, store, []Item{
		{Title: "Budgeting basics", Content: "Track income and expenses monthly.", Language: "en", IsActive: true},
		{Title: "Misingi ya bajeti", Content: "Fuatilia mapato na matumizi.", Language: "sw", IsActive: true},
		{Title: "Old advice", Content: "Outdated content.", Language: "en", IsActive: false},
	})

	items, err := store.ListActive(ctx, "en")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 active en item, got %d", len(items))
	}
	if items[0].Title != "Budgeting basics" {
		t.Errorf("Title = %q", items[0].Title)
	}
	if items[0].Category != "general" {
		t.Errorf("default category = %q, want general", items[0].Category)
	}
}

func TestListActivePreservesInsertionOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	titles := []string{"First", "Second", "Third", "Fourth"}
	for _, title := range titles {
		seedItems(t, store, []Item{{Title: title, Content: "savings", Language: "en", IsActive: true}})
	}

	items, err := store.ListActive(ctx, "en")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(items) != len(titles) {
		t.Fatalf("expected %d items, got %d", len(titles), len(items))
	}
	for i, title := range titles {
		if items[i].Title != title {
			t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, title)
		}
	}
}

func TestCount(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seedItems(t, store, []Item{
		{Title: "A", Content: "a", Language: "en", IsActive: true},
		{Title: "B", Content: "b", Language: "sw", IsActive: false},
	})

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestMatchReturnsAtMostThree(t *testing.T) {
	items := []Item{
		{Title: "Savings one", Content: "how to save"},
		{Title: "Savings two", Content: "save more"},
		{Title: "Savings three", Content: "saving tips"},
		{Title: "Savings four", Content: "savings accounts"},
	}

	snippets := Match("how do I save money", items)
	if len(snippets) != 3 {
		t.Fatalf("expected 3 snippets, got %d", len(snippets))
	}
	// Encounter order, no ranking.
	if !strings.HasPrefix(snippets[0], "Savings one:") {
		t.Errorf("first snippet = %q", snippets[0])
	}
}

func TestMatchTokenInTitleOrContent(t *testing.T) {
	items := []Item{
		{Title: "VAT explained", Content: "value added details"},
		{Title: "Mobile money", Content: "M-Pesa fees and vat charges"},
		{Title: "Loans", Content: "interest rates"},
	}

	snippets := Match("What about VAT", items)
	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d: %v", len(snippets), snippets)
	}

	// Every returned snippet contains at least one query token.
	for _, s := range snippets {
		if !strings.Contains(strings.ToLower(s), "vat") {
			t.Errorf("snippet %q does not contain a query token", s)
		}
	}
}

func TestMatchNoResults(t *testing.T) {
	items := []Item{{Title: "Budgeting", Content: "plan your spending"}}

	if got := Match("xyzzy", items); got != nil {
		t.Errorf("expected no matches, got %v", got)
	}
	if got := Snippets("xyzzy", items); got != "" {
		t.Errorf("Snippets = %q, want empty", got)
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	items := []Item{{Title: "Budgeting", Content: "plan your spending"}}

	if got := Match("   ", items); got != nil {
		t.Errorf("expected no matches for blank query, got %v", got)
	}
}

func TestSnippetsJoinedByBlankLine(t *testing.T) {
	items := []Item{
		{Title: "One", Content: "savings info"},
		{Title: "Two", Content: "more savings info"},
	}

	got := Snippets("savings", items)
	want := "One: savings info\n\nTwo: more savings info"
	if got != want {
		t.Errorf("Snippets = %q, want %q", got, want)
	}
}
