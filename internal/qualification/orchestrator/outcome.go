package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qualification-workers/internal/common/config"
	"qualification-workers/internal/models"
)

// Outcome is the qualify_lead response body.
type Outcome struct {
	Success       bool                       `json:"success"`
	Qualification models.QualificationResult `json:"qualification"`
	Actions       Actions                    `json:"actions"`
	NextSteps     []string                   `json:"nextSteps"`
	ContactID     string                     `json:"contactId,omitempty"`
	LeadID        string                     `json:"leadId,omitempty"`
}

// Actions lists the side effects that succeeded. Nil pointers serialize as null.
type Actions struct {
	NurturingSequence *NurturingAction `json:"nurturingSequence"`
	FollowUpTasks     []TaskRef        `json:"followUpTasks"`
	LeadCreated       *LeadRef         `json:"leadCreated"`
	Recommendations   []string         `json:"recommendations"`
}

type NurturingAction struct {
	SequenceID   string    `json:"sequenceId"`
	SequenceName string    `json:"sequenceName"`
	SequenceType string    `json:"sequenceType"`
	ExecutionID  string    `json:"executionId"`
	NextActionAt time.Time `json:"nextActionAt"`
}

type TaskRef struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Priority string    `json:"priority"`
	DueAt    time.Time `json:"dueAt"`
}

type LeadRef struct {
	ID                 string `json:"id"`
	Stage              string `json:"stage"`
	ProbabilityPercent int    `json:"probabilityPercent"`
}

// StageForTier is total: anything outside A-C is unqualified.
func StageForTier(tier models.Tier) string {
	switch tier {
	case models.TierA:
		return models.StageQualified
	case models.TierB:
		return models.StageInterested
	case models.TierC:
		return models.StageAwareness
	default:
		return models.StageUnqualified
	}
}

// ContactStatusForTier returns nil when the status should stay as it is.
func ContactStatusForTier(tier models.Tier) *string {
	switch tier {
	case models.TierA:
		return models.Str(models.ContactStatusLead)
	case models.TierB:
		return models.Str(models.ContactStatusProspect)
	default:
		return nil
	}
}

// TimelineDays estimates days until close from a timeline answer.
func TimelineDays(timeline string) int {
	t := strings.ToLower(timeline)
	switch {
	case strings.Contains(t, "immediate"), strings.Contains(t, "asap"):
		return 30
	case strings.Contains(t, "1 month"):
		return 60
	case strings.Contains(t, "3 month"):
		return 120
	case strings.Contains(t, "6 month"):
		return 180
	default:
		return 365
	}
}

func leadTags(r models.QualificationResult) []string {
	return []string{
		"ai_qualified",
		"tier_" + r.Tier.Lower(),
		"confidence_" + strconv.Itoa(r.Confidence),
	}
}

func contactTags(r models.QualificationResult) []string {
	return []string{
		"qualified_" + r.Tier.Lower(),
		"score_" + strconv.Itoa(r.Score),
	}
}

// qualificationTag matches exactly the tags leadTags and contactTags write.
var qualificationTag = regexp.MustCompile(`^(ai_qualified|tier_[a-d]|qualified_[a-d]|score_\d+|confidence_\d+)$`)

// MergeTags appends add to existing. Under the replace policy, tags left by earlier
// qualifications are dropped first; other tags are kept in order.
func MergeTags(existing, add []string, policy string) []string {
	out := make([]string, 0, len(existing)+len(add))
	for _, tag := range existing {
		if policy == config.PolicyReplace && isQualificationTag(tag) {
			continue
		}
		out = append(out, tag)
	}
	return append(out, add...)
}

func isQualificationTag(tag string) bool {
	return qualificationTag.MatchString(tag)
}

func orNotSpecified(p *string) string {
	if v := strings.TrimSpace(models.Value(p)); v != "" {
		return v
	}
	return "Not specified"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// FormatNotes renders the summary stored on a newly created lead.
func FormatNotes(r models.QualificationResult, resp models.QualificationResponse) string {
	var b strings.Builder
	b.WriteString("AI Lead Qualification\n")
	fmt.Fprintf(&b, "Score: %d/100 (Tier %s)\n", r.Score, r.Tier)
	fmt.Fprintf(&b, "Confidence: %d%%\n", r.Confidence)
	fmt.Fprintf(&b, "Key factors: %s\n", joinOrNone(r.KeyFactors))
	fmt.Fprintf(&b, "Red flags: %s\n", joinOrNone(r.RedFlags))
	fmt.Fprintf(&b, "Budget: %s\n", orNotSpecified(resp.Budget))
	fmt.Fprintf(&b, "Timeline: %s\n", orNotSpecified(resp.Timeline))
	fmt.Fprintf(&b, "Location: %s\n", orNotSpecified(resp.Location))
	fmt.Fprintf(&b, "Property type: %s", orNotSpecified(resp.PropertyType))
	return b.String()
}

// needsPreApproval is true when financing is unanswered or flagged.
func needsPreApproval(r models.QualificationResult, resp models.QualificationResponse) bool {
	if strings.TrimSpace(models.Value(resp.PreApproved)) == "" {
		return true
	}
	for _, f := range r.RedFlags {
		if f == "Not pre-approved for financing" {
			return true
		}
	}
	return false
}

// Recommendations are advisory text only.
func Recommendations(r models.QualificationResult, resp models.QualificationResponse) []string {
	var recs []string
	switch r.Tier {
	case models.TierA:
		recs = []string{
			"Hot lead: contact immediately",
			"Schedule a property showing within 24 hours",
		}
	case models.TierB:
		recs = []string{
			"Warm lead: follow up within 24 hours",
			"Send listings that match their criteria",
		}
	case models.TierC:
		recs = []string{
			"Add to the nurture campaign",
			"Share market updates to build engagement",
		}
	default:
		recs = []string{
			"Keep in long-term nurturing",
			"Re-qualify in 3 to 6 months",
		}
	}

	if len(r.RedFlags) > 0 {
		recs = append(recs, "Address concerns: "+strings.Join(r.RedFlags, ", "))
	}
	if needsPreApproval(r, resp) {
		recs = append(recs, "Recommend getting pre-approved for a mortgage")
	}
	return recs
}

// NextSteps returns a numbered action list for the agent.
func NextSteps(r models.QualificationResult, resp models.QualificationResponse) []string {
	var steps []string
	switch r.Tier {
	case models.TierA:
		steps = []string{"Call within 2 hours", "Prepare property recommendations", "Schedule showing appointments"}
	case models.TierB:
		steps = []string{"Send a personalized follow-up email", "Schedule a check-in call this week", "Share relevant listings"}
	default:
		steps = []string{"Enroll in the nurture email sequence", "Send monthly market reports", "Re-qualify when engagement increases"}
	}
	if needsPreApproval(r, resp) {
		steps = append(steps, "Connect them with a mortgage lender for pre-approval")
	}

	numbered := make([]string, len(steps))
	for i, s := range steps {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return numbered
}
