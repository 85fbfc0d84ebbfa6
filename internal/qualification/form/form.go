// Package form describes the qualification survey shown to leads.
package form

// Input types understood by the form renderer.
const (
	InputNumber = "number"
	InputSelect = "select"
	InputText   = "text"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Question struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []Option `json:"options,omitempty"`
}

type Definition struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Option values are chosen to hit the scoring keywords.
var questions = []Question{
	{Key: "budget", Label: "What is your budget for this purchase?", Type: InputNumber},
	{Key: "timeline", Label: "When are you looking to buy?", Type: InputSelect, Options: []Option{
		{"immediate", "Immediately"},
		{"1 month", "Within 1 month"},
		{"3 months", "Within 3 months"},
		{"6 months", "Within 6 months"},
		{"1 year", "In a year or more"},
	}},
	{Key: "decisionMaker", Label: "Who makes the final decision?", Type: InputSelect, Options: []Option{
		{"yes", "I do"},
		{"spouse", "Me and my spouse/partner"},
		{"no", "Someone else"},
	}},
	{Key: "motivation", Label: "What is driving your move?", Type: InputSelect, Options: []Option{
		{"job relocation", "Job relocation"},
		{"must sell", "I need to sell my current home"},
		{"upgrade", "Upgrading"},
		{"growing family", "Growing family"},
		{"just looking", "Just looking"},
	}},
	{Key: "urgency", Label: "Anything else about your timing?", Type: InputText},
	{Key: "preApproved", Label: "Are you pre-approved for a mortgage?", Type: InputSelect, Options: []Option{
		{"yes", "Yes"},
		{"cash", "Paying cash"},
		{"no", "Not yet"},
	}},
	{Key: "location", Label: "Which neighborhoods or cities are you considering?", Type: InputText},
	{Key: "propertyType", Label: "What type of property?", Type: InputSelect, Options: []Option{
		{"single family", "Single family home"},
		{"condo", "Condo"},
		{"townhouse", "Townhouse"},
		{"multi family", "Multi-family"},
		{"not sure", "Not sure yet"},
	}},
}

// Get returns the survey. Every key is a QualificationResponse field and none is required.
func Get() Definition {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]Option(nil), q.Options...)
		qs[i] = q
	}
	return Definition{
		Title:       "Help us find the right home for you",
		Description: "A few quick questions so we can match you with the right properties and agent.",
		Questions:   qs,
	}
}
