package knowledge

import "strings"

// matchLimit caps how many snippets a single utterance can pull in.
const matchLimit = 3

// Match returns up to three "title: content" snippets whose title or
// content contains any whitespace-delimited token of the lower-cased
// query. Items are considered in encounter order; there is no ranking.
// This is deliberately crude substring matching, not semantic search.
func Match(query string, items []Item) []string {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var snippets []string
	for _, item := range items {
		title := strings.ToLower(item.Title)
		content := strings.ToLower(item.Content)

		for _, token := range tokens {
			if strings.Contains(title, token) || strings.Contains(content, token) {
				snippets = append(snippets, item.Title+": "+item.Content)
				break
			}
		}

		if len(snippets) >= matchLimit {
			break
		}
	}
	return snippets
}

// Snippets joins match results with a blank-line separator, returning ""
// when nothing matched.
func Snippets(query string, items []Item) string {
	return strings.Join(Match(query, items), "\n\n")
}
