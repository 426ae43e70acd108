package query

import (
	"fmt"
	"strings"
)

// Impact is the qualitative size of a membership change between two
// explanation snapshots.
type Impact int

// Impact levels, computed from the fraction of tasks whose membership
// changed.
const (
	ImpactNone Impact = iota
	ImpactMinor
	ImpactModerate
	ImpactMajor
)

// Impact thresholds on the changed fraction.
const (
	minorThreshold    = 0.10
	moderateThreshold = 0.35
)

// String returns the lowercase impact name.
func (im Impact) String() string {
	switch im {
	case ImpactNone:
		return "none"
	case ImpactMinor:
		return "minor"
	case ImpactModerate:
		return "moderate"
	default:
		return "major"
	}
}

// Diff classifies every task across two explanation snapshots into
// exactly one membership bucket. A task present in only one snapshot is
// treated as unmatched in the other.
type Diff struct {
	NowMatched     []string // unmatched before, matched after
	NowUnmatched   []string // matched before, unmatched after
	StillMatched   []string
	StillUnmatched []string
	Impact         Impact
}

// DiffExplanations compares two explanation snapshots by task ID. Tasks
// are classified in after-snapshot order, then before-only tasks in
// before-snapshot order; each task lands in exactly one bucket.
func DiffExplanations(before, after *Explanation) *Diff {
	beforeMatched := membership(before)
	afterMatched := membership(after)

	d := &Diff{}
	seen := make(map[string]bool, len(afterMatched))

	for _, te := range after.Tasks {
		seen[te.TaskID] = true
		d.classify(beforeMatched[te.TaskID], te.Matched, te.TaskID)
	}

	for _, te := range before.Tasks {
		if seen[te.TaskID] {
			continue
		}

		d.classify(te.Matched, false, te.TaskID)
	}

	total := len(d.NowMatched) + len(d.NowUnmatched) + len(d.StillMatched) + len(d.StillUnmatched)
	changed := len(d.NowMatched) + len(d.NowUnmatched)
	d.Impact = impactOf(changed, total)

	return d
}

func (d *Diff) classify(wasMatched, isMatched bool, id string) {
	switch {
	case isMatched && !wasMatched:
		d.NowMatched = append(d.NowMatched, id)
	case !isMatched && wasMatched:
		d.NowUnmatched = append(d.NowUnmatched, id)
	case isMatched:
		d.StillMatched = append(d.StillMatched, id)
	default:
		d.StillUnmatched = append(d.StillUnmatched, id)
	}
}

func membership(e *Explanation) map[string]bool {
	m := make(map[string]bool, len(e.Tasks))
	for _, te := range e.Tasks {
		m[te.TaskID] = te.Matched
	}

	return m
}

func impactOf(changed, total int) Impact {
	if changed == 0 || total == 0 {
		return ImpactNone
	}

	fraction := float64(changed) / float64(total)

	switch {
	case fraction < minorThreshold:
		return ImpactMinor
	case fraction < moderateThreshold:
		return ImpactModerate
	default:
		return ImpactMajor
	}
}

// Summary returns a one-line description of the diff.
func (d *Diff) Summary() string {
	return fmt.Sprintf("+%d -%d (=%d matched, =%d unmatched), impact: %s",
		len(d.NowMatched), len(d.NowUnmatched), len(d.StillMatched), len(d.StillUnmatched), d.Impact)
}

// Markdown renders the diff for humans. Presentation convenience only.
func (d *Diff) Markdown() string {
	var b strings.Builder

	b.WriteString("# Query diff\n\n")
	b.WriteString(d.Summary())
	b.WriteString("\n")

	writeBucket(&b, "Now matched", d.NowMatched)
	writeBucket(&b, "Now unmatched", d.NowUnmatched)
	writeBucket(&b, "Still matched", d.StillMatched)
	writeBucket(&b, "Still unmatched", d.StillUnmatched)

	return b.String()
}

func writeBucket(b *strings.Builder, title string, ids []string) {
	if len(ids) == 0 {
		return
	}

	fmt.Fprintf(b, "\n## %s\n", title)

	for _, id := range ids {
		fmt.Fprintf(b, "- %s\n", id)
	}
}
