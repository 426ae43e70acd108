package task

import (
	"math"
	"sort"
	"time"
)

// ScoringSettings holds the coefficients for the urgency, escalation and
// attention scores. The query engine never sees these; it consumes the
// scoring functions built by BuildScorers as opaque inputs.
type ScoringSettings struct {
	// Urgency coefficients.
	DueWeight      float64 `json:"due_weight"`
	PriorityWeight float64 `json:"priority_weight"`
	StartedBonus   float64 `json:"started_bonus"`

	// Escalation coefficients.
	OverdueWeight float64 `json:"overdue_weight"`
	AgeWeight     float64 `json:"age_weight"`

	// Attention coefficients.
	AttentionFloor float64 `json:"attention_floor"`

	// Lanes maps an attention-lane name to the tag that assigns tasks to
	// it. Tasks matching no lane fall into "default".
	Lanes map[string]string `json:"lanes,omitempty"`
}

// DefaultScoringSettings returns the stock coefficients.
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		DueWeight:      12.0,
		PriorityWeight: 6.0,
		StartedBonus:   3.0,
		OverdueWeight:  1.0,
		AgeWeight:      0.1,
		AttentionFloor: 1.0,
	}
}

const daysPerWeek = 7

// Urgency scores a task relative to now. Closer due dates and higher
// priorities score higher; in-progress tasks get a flat bonus.
func (s ScoringSettings) Urgency(t *Task, now time.Time) float64 {
	score := s.PriorityWeight * float64(t.Priority) / float64(PriorityHighest)

	if t.Due != nil {
		daysUntil := t.Due.Sub(now).Hours() / 24
		// Clamp to a two-week horizon so far-future tasks score near zero.
		closeness := 1 - daysUntil/(2*daysPerWeek)
		score += s.DueWeight * math.Max(0, math.Min(1, closeness))
	}

	if t.Status == StatusInProgress {
		score += s.StartedBonus
	}

	return score
}

// Escalation scores how long a task has been overdue or stale.
func (s ScoringSettings) Escalation(t *Task, now time.Time) float64 {
	var score float64

	if t.Due != nil && t.Due.Before(now) {
		score += s.OverdueWeight * now.Sub(*t.Due).Hours() / 24
	}

	if t.Created != nil && t.Created.Before(now) {
		score += s.AgeWeight * now.Sub(*t.Created).Hours() / 24
	}

	return score
}

// Attention combines urgency and escalation into the single signal the
// attention lanes rank by.
func (s ScoringSettings) Attention(t *Task, now time.Time) float64 {
	return s.AttentionFloor + s.Urgency(t, now) + s.Escalation(t, now)
}

// Lane returns the attention-lane name for a task: the first configured
// lane whose tag the task carries (iterated in sorted-name order for
// determinism), else "default".
func (s ScoringSettings) Lane(t *Task) string {
	for _, name := range sortedKeys(s.Lanes) {
		if t.HasTag(s.Lanes[name]) {
			return name
		}
	}

	return "default"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
