package nlp

import (
	"strings"
	"testing"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Help me with my budget", IntentBudgetHelp},
		{"nataka bajeti ya mwezi", IntentBudgetHelp},
		{"How do I save for a house?", IntentSavingsAdvice},
		{"nataka kuwekeza pesa zangu", IntentSavingsAdvice},
		{"Can I get a loan from CRDB?", IntentLoanAdvice},
		{"mikopo ya wanafunzi", IntentLoanAdvice},
		{"How much VAT do I pay?", IntentTaxHelp},
		{"kodi ya mapato", IntentTaxHelp},
		{"What does the new policy say?", IntentRegulationInfo},
		{"kanuni za benki", IntentRegulationInfo},
		{"hello there", IntentGreeting},
		{"jambo!", IntentGreeting},
		{"What should I do with my money?", IntentGeneralHelp},
		{"", IntentGeneralHelp},
	}

	for _, tc := range cases {
		if got := ClassifyIntent(tc.message); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestClassifyIntentFirstRuleWins(t *testing.T) {
	// "budget" and "save" both appear; the budget rule is evaluated first.
	if got := ClassifyIntent("budget so I can save"); got != IntentBudgetHelp {
		t.Errorf("got %q, want %q", got, IntentBudgetHelp)
	}
}

func TestClassifyIntentCaseInsensitive(t *testing.T) {
	if got := ClassifyIntent("BUDGET HELP PLEASE"); got != IntentBudgetHelp {
		t.Errorf("got %q, want %q", got, IntentBudgetHelp)
	}
}

func TestIntentsTotal(t *testing.T) {
	labels := Intents()
	if len(labels) != 7 {
		t.Fatalf("expected 7 intent labels, got %d", len(labels))
	}
	if labels[len(labels)-1] != IntentGeneralHelp {
		t.Errorf("last label = %q, want %q", labels[len(labels)-1], IntentGeneralHelp)
	}

	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}
	for _, msg := range []string{"budget", "xyzzy", "", "jambo", "kodi kodi kodi"} {
		if got := ClassifyIntent(msg); !known[got] {
			t.Errorf("ClassifyIntent(%q) returned unknown label %q", msg, got)
		}
	}
}

func TestExtractAmounts(t *testing.T) {
	entities := ExtractEntities("I earn 800,000 TSh and pay 300,000 tsh rent")

	var amounts []Entity
	for _, e := range entities {
		if e.Type == EntityAmount {
			amounts = append(amounts, e)
		}
	}

	if len(amounts) != 2 {
		t.Fatalf("expected 2 amounts, got %d: %v", len(amounts), amounts)
	}
	if amounts[0].Value != "800,000" {
		t.Errorf("first amount = %q, want %q", amounts[0].Value, "800,000")
	}
	if amounts[1].Value != "300,000" {
		t.Errorf("second amount = %q, want %q", amounts[1].Value, "300,000")
	}
	for _, a := range amounts {
		if a.Currency != "TSh" {
			t.Errorf("currency = %q, want TSh", a.Currency)
		}
	}
}

func TestExtractDecimalAmount(t *testing.T) {
	entities := ExtractEntities("that costs 1,500.50 shilling")
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Value != "1,500.50" {
		t.Errorf("value = %q, want %q", entities[0].Value, "1,500.50")
	}
}

func TestExtractTimePeriods(t *testing.T) {
	entities := ExtractEntities("save every month for a year")

	var periods []string
	for _, e := range entities {
		if e.Type == EntityTimePeriod {
			periods = append(periods, e.Value)
		}
	}

	if len(periods) != 2 {
		t.Fatalf("expected 2 time periods, got %d: %v", len(periods), periods)
	}
	if periods[0] != "month" || periods[1] != "year" {
		t.Errorf("periods = %v, want [month year]", periods)
	}
}

func TestExtractEntitiesSwahili(t *testing.T) {
	entities := ExtractEntities("weka TSh 50,000 tsh kila mwezi")

	var hasPeriod bool
	for _, e := range entities {
		if e.Type == EntityTimePeriod && e.Value == "mwezi" {
			hasPeriod = true
		}
	}
	if !hasPeriod {
		t.Errorf("expected mwezi time period in %v", entities)
	}
}

func TestExtractEntitiesNone(t *testing.T) {
	if entities := ExtractEntities("tell me about banks"); len(entities) != 0 {
		t.Errorf("expected no entities, got %v", entities)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"This is a great and helpful plan", SentimentPositive},
		{"mpango mzuri sana", SentimentPositive},
		{"That is a bad problem", SentimentNegative},
		{"hali mbaya, tatizo kubwa", SentimentNegative},
		{"Here are the interest rates", SentimentNeutral},
		{"good plan but a bad start", SentimentNeutral},
		{"", SentimentNeutral},
	}

	for _, tc := range cases {
		if got := AnalyzeSentiment(tc.text); got != tc.want {
			t.Errorf("AnalyzeSentiment(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestSentimentSymmetry(t *testing.T) {
	positive := "good great excellent"
	negative := "bad poor negative"

	if got := AnalyzeSentiment(positive); got != SentimentPositive {
		t.Fatalf("positive text scored %q", got)
	}
	if got := AnalyzeSentiment(negative); got != SentimentNegative {
		t.Fatalf("negative text scored %q", got)
	}
	if strings.Count(positive, " ") != strings.Count(negative, " ") {
		t.Fatal("lexicon swap must hold word counts equal")
	}
}
