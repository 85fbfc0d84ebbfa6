package scoring

import "strings"

// Rule is one row of a category table. Rules are evaluated in order and the first match wins.
type Rule[T any] struct {
	Match   func(T) bool
	Points  int
	Label   string
	RedFlag bool
}

// containsAny matches when the lowercased input contains any keyword.
func containsAny(keywords ...string) func(string) bool {
	return func(s string) bool {
		s = strings.ToLower(s)
		for _, k := range keywords {
			if strings.Contains(s, k) {
				return true
			}
		}
		return false
	}
}

func atLeast(min float64) func(float64) bool {
	return func(v float64) bool { return v >= min }
}

func below(max float64) func(float64) bool {
	return func(v float64) bool { return v < max }
}

func firstMatch[T any](rules []Rule[T], v T) (Rule[T], bool) {
	for _, r := range rules {
		if r.Match(v) {
			return r, true
		}
	}
	return Rule[T]{}, false
}

// Confidence credited when a category has data.
const (
	BudgetConfidence        = 25
	TimelineConfidence      = 20
	DecisionConfidence      = 20
	MotivationConfidence    = 15
	PreApprovalConfidence   = 10
	LocationConfidence      = 5
	PropertyTypeConfidence  = 5
	minSpecificLocationSize = 10
)

// BudgetRules score the parsed budget amount. 100k up to 250k scores nothing.
var BudgetRules = []Rule[float64]{
	{Match: atLeast(1_000_000), Points: 30, Label: "High budget ($1M+)"},
	{Match: atLeast(500_000), Points: 25, Label: "Strong budget ($500K+)"},
	{Match: atLeast(250_000), Points: 20, Label: "Solid budget ($250K+)"},
	{Match: below(100_000), Points: 5, Label: "Limited budget (under $100K)", RedFlag: true},
}

var TimelineRules = []Rule[string]{
	{Match: containsAny("immediate", "asap", "1 month"), Points: 25, Label: "Immediate timeline"},
	{Match: containsAny("3 month", "soon"), Points: 20, Label: "Near-term timeline (about 3 months)"},
	{Match: containsAny("6 month"), Points: 15, Label: "Mid-term timeline (about 6 months)"},
	{Match: containsAny("year", "someday"), Points: 5, Label: "Long or undefined timeline", RedFlag: true},
}

// DecisionRules match by substring, so "unknown" falls into the "no" row.
var DecisionRules = []Rule[string]{
	{Match: containsAny("yes", "sole", "primary"), Points: 20, Label: "Primary decision maker"},
	{Match: containsAny("spouse", "partner"), Points: 15, Label: "Shared decision with spouse/partner"},
	{Match: containsAny("no", "committee", "boss"), Points: 5, Label: "Not the final decision maker", RedFlag: true},
}

// MotivationRules run over motivation and urgency joined by a space.
var MotivationRules = []Rule[string]{
	{Match: containsAny("must sell", "job relocation", "divorce"), Points: 15, Label: "Strong motivation to move"},
	{Match: containsAny("upgrade", "growing family"), Points: 12, Label: "Motivated by upgrade or growing family"},
	{Match: containsAny("just looking", "curious"), Points: 3, Label: "Low motivation (just looking)", RedFlag: true},
}

var PreApprovalRules = []Rule[string]{
	{Match: containsAny("yes", "approved", "cash"), Points: 10, Label: "Pre-approved or cash buyer"},
	{Match: containsAny("no", "need to"), Points: 2, Label: "Not pre-approved for financing", RedFlag: true},
}

var LocationRules = []Rule[string]{
	{Match: func(s string) bool { return len([]rune(s)) > minSpecificLocationSize }, Points: 5, Label: "Specific location preference"},
}

var PropertyTypeRules = []Rule[string]{
	{Match: func(s string) bool { return strings.ToLower(s) != "not sure" }, Points: 5, Label: "Clear property type preference"},
}
