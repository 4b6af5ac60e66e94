// Package nlp holds the rule-based text classifiers behind chatbot
// analytics: intent, entity extraction and sentiment. All of them are
// pure functions over fixed bilingual (English/Swahili) lexicons.
package nlp

import "strings"

// Intent labels. IntentGeneralHelp is the fallback when no rule matches.
const (
	IntentBudgetHelp     = "budget_help"
	IntentSavingsAdvice  = "savings_advice"
	IntentLoanAdvice     = "loan_advice"
	IntentTaxHelp        = "tax_help"
	IntentRegulationInfo = "regulation_info"
	IntentGreeting       = "greeting"
	IntentGeneralHelp    = "general_help"
)

type intentRule struct {
	keywords []string
	label    string
}

// intentRules is evaluated top to bottom; the first matching rule wins.
var intentRules = []intentRule{
	{[]string{"budget", "bajeti", "spending", "expense"}, IntentBudgetHelp},
	{[]string{"save", "saving", "investment", "wekeza"}, IntentSavingsAdvice},
	{[]string{"loan", "mikopo", "credit", "debt"}, IntentLoanAdvice},
	{[]string{"tax", "kodi", "tra", "vat"}, IntentTaxHelp},
	{[]string{"regulation", "kanuni", "policy"}, IntentRegulationInfo},
	{[]string{"hello", "hi", "jambo", "habari"}, IntentGreeting},
}

// Intents lists every label ClassifyIntent can return, in rule order.
func Intents() []string {
	labels := make([]string, 0, len(intentRules)+1)
	for _, r := range intentRules {
		labels = append(labels, r.label)
	}
	return append(labels, IntentGeneralHelp)
}

// ClassifyIntent maps a user message to one of the fixed intent labels.
func ClassifyIntent(message string) string {
	message = strings.ToLower(message)

	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(message, kw) {
				return rule.label
			}
		}
	}
	return IntentGeneralHelp
}
