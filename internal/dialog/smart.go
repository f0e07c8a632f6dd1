package dialog

import (
	"regexp"
	"strings"
	"time"
)

// GoalDraft accumulates a goal.create intent's fields across
// GOAL_CLARIFICATION turns until it passes ValidateSmart. Stored
// verbatim as SessionState.StateContext's JSON bag between turns.
type GoalDraft struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	Category       string     `json:"category,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	UserLevel      string     `json:"user_level,omitempty"`
	TimeCommitment string     `json:"time_commitment,omitempty"`
}

const minSmartTitleLength = 8

// stopwords excludes short function words from the "verb-like token"
// heuristic; anything left of length >= 4 counts as content.
var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "want": true,
	"хочу": true, "надо": true, "нужно": true, "что": true, "чтобы": true,
	"это": true, "для": true,
}

var wordPattern = regexp.MustCompile(`[\p{L}]+`)

// durationPattern matches a handful of duration-mentioning substrings in
// Russian and English, e.g. "за 3 месяца".
var durationPattern = regexp.MustCompile(`(?i)(месяц|недел|день|дня|дней|год|лет\b|week|month|day|year)`)

// ValidateSmart implements a SMART heuristic: a draft passes
// when its title is long enough and contains a content token, it carries
// either a target date or a duration mention, and it is not phrased as a
// pure question. On failure it returns a targeted follow-up question for
// GOAL_CLARIFICATION to ask.
func ValidateSmart(d GoalDraft) (ok bool, followUp string) {
	if len(d.Title) < minSmartTitleLength || !hasContentToken(d.Title) {
		return false, "Расскажите подробнее — как бы вы назвали эту цель одним предложением?"
	}
	if d.TargetDate == nil && !durationPattern.MatchString(d.Description) && !durationPattern.MatchString(d.Title) {
		return false, "К какому сроку вы хотите этого достичь?"
	}
	if isPureQuestion(d.Title) && (strings.TrimSpace(d.Description) == "" || isPureQuestion(d.Description)) {
		return false, "Это похоже на вопрос — сформулируйте, пожалуйста, цель как намерение, а не вопрос."
	}
	return true, ""
}

func hasContentToken(s string) bool {
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if len([]rune(w)) >= 4 && !stopwords[w] {
			return true
		}
	}
	return false
}

func isPureQuestion(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return strings.HasSuffix(s, "?")
}
