package nlp

import (
	"regexp"
	"strings"
)

// Entity is a typed value extracted from a user message.
type Entity struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Currency string `json:"currency,omitempty"`
}

const (
	EntityAmount     = "amount"
	EntityTimePeriod = "time_period"
)

var amountPattern = regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:tsh|shilling|dollar|euro|pound)`)

// timePeriodWords is a fixed bilingual list; presence in the message yields
// one time_period entity per word.
var timePeriodWords = []string{"month", "year", "week", "mwezi", "mwaka", "wiki"}

// ExtractEntities pulls monetary amounts and time-period words out of a
// message. Amounts are reported in Tanzanian Shillings regardless of the
// matched unit word.
func ExtractEntities(message string) []Entity {
	var entities []Entity
	lower := strings.ToLower(message)

	for _, match := range amountPattern.FindAllStringSubmatch(lower, -1) {
		entities = append(entities, Entity{
			Type:     EntityAmount,
			Value:    match[1],
			Currency: "TSh",
		})
	}

	for _, word := range timePeriodWords {
		if strings.Contains(lower, word) {
			entities = append(entities, Entity{
				Type:  EntityTimePeriod,
				Value: word,
			})
		}
	}

	return entities
}
