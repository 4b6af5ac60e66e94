package nlp

import "strings"

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

var (
	positiveWords = []string{"good", "great", "excellent", "helpful", "positive", "nzuri", "mzuri"}
	negativeWords = []string{"bad", "poor", "negative", "problem", "mbaya", "tatizo"}
)

// AnalyzeSentiment scores text by counting occurrences of fixed positive
// and negative word lists; the majority wins and a tie is neutral. It is
// run on the assistant's reply, not the user's message.
func AnalyzeSentiment(text string) string {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
