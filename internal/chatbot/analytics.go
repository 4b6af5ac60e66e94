package chatbot

import (
	"context"
	"fmt"
	"sort"
)

const topIntentLimit = 5

// Analytics aggregates stored conversations, messages and per-reply
// classifier records into a summary. The sentiment histogram is a
// placeholder until per-message sentiment is aggregated.
func (s *Service) Analytics(ctx context.Context, filter AnalyticsFilter) (*AnalyticsSummary, error) {
	conversations, err := s.store.ListConversations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	totalMessages, err := s.store.CountMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	records, err := s.store.ListAnalyticsRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing analytics records: %w", err)
	}

	languages := make(map[string]int)
	for _, conv := range conversations {
		languages[conv.Language]++
	}

	var totalResponseTime float64
	intentCounts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, rec := range records {
		totalResponseTime += rec.ResponseTime
		if _, ok := intentCounts[rec.Intent]; !ok {
			firstSeen[rec.Intent] = i
		}
		intentCounts[rec.Intent]++
	}

	avgResponseTime := 0.0
	if len(records) > 0 {
		avgResponseTime = totalResponseTime / float64(len(records))
	}

	return &AnalyticsSummary{
		TotalConversations:   len(conversations),
		TotalMessages:        totalMessages,
		AverageResponseTime:  avgResponseTime,
		AverageConfidence:    placeholderConfidence,
		LanguageDistribution: languages,
		TopIntents:           topIntents(intentCounts, firstSeen),
		SentimentDistribution: map[string]int{
			"positive": 0,
			"negative": 0,
			"neutral":  0,
		},
	}, nil
}

// topIntents ranks intents by count, ties broken by first encounter, and
// keeps the top five.
func topIntents(counts, firstSeen map[string]int) []IntentCount {
	ranked := make([]IntentCount, 0, len(counts))
	for intent, n := range counts {
		ranked = append(ranked, IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Intent] < firstSeen[ranked[j].Intent]
	})
	if len(ranked) > topIntentLimit {
		ranked = ranked[:topIntentLimit]
	}
	return ranked
}
