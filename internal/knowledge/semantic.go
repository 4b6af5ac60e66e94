package knowledge

import (
	"context"
	"fmt"
	"log"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kipesa/kipesa-api/internal/embeddings"
)

const (
	collectionName = "knowledge"

	// similarityThreshold filters out weak matches.
	similarityThreshold = 0.3
)

// SemanticIndex is an optional embedding-similarity variant of the keyword
// matcher. It is an enhancement only: every failure degrades to "no
// results" so the request can fall back to keyword matching.
type SemanticIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewSemanticIndex creates an empty in-memory index using the given embedder.
func NewSemanticIndex(embedder embeddings.Embedder) (*SemanticIndex, error) {
	cdb := chromem.NewDB()
	col, err := cdb.GetOrCreateCollection(collectionName, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &SemanticIndex{db: cdb, collection: col}, nil
}

// Index embeds and stores the given items, keyed by item ID. Title and
// content are embedded together, mirroring how snippets are rendered.
func (s *SemanticIndex) Index(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(items))
	for i, item := range items {
		docs[i] = chromem.Document{
			ID:      item.ID,
			Content: item.Title + " " + item.Content,
			Metadata: map[string]string{
				"title":    item.Title,
				"category": item.Category,
				"language": item.Language,
			},
		}
	}

	return s.collection.AddDocuments(ctx, docs, 1)
}

// Search returns up to limit "title: content" style snippets similar to the
// query, best first. Any error is logged and reported as no results.
func (s *SemanticIndex) Search(ctx context.Context, query string, limit int) []string {
	if limit <= 0 {
		limit = matchLimit
	}

	count := s.collection.Count()
	if count == 0 {
		return nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		log.Printf("knowledge: semantic search: %v", err)
		return nil
	}

	var snippets []string
	for _, r := range results {
		if r.Similarity < similarityThreshold {
			continue
		}
		snippets = append(snippets, r.Metadata["title"]+": "+r.Content)
	}
	return snippets
}

// Count returns the number of indexed documents.
func (s *SemanticIndex) Count() int {
	return s.collection.Count()
}
