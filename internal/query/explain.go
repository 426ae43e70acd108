package query

import (
	"fmt"
	"strings"
	"time"

	"tq/internal/task"
)

// FilterExplanation records one predicate's verdict on one task.
type FilterExplanation struct {
	Filter  string // canonical filter text
	Matched bool
	Reason  string
}

// TaskExplanation records every top-level predicate's verdict on one
// task. Matched is derived: true iff every predicate matched.
type TaskExplanation struct {
	TaskID  string
	Name    string
	Matched bool
	Filters []FilterExplanation
}

// Explanation is derived and read-only. It is recomputed per explain
// request and never stored in the result cache; the separate
// explanation cache (see [ExplanationCache]) holds it instead.
type Explanation struct {
	QueryText  string // canonical query text the explanation describes
	Tasks      []TaskExplanation
	MatchCount int
	TotalCount int
	TakenAt    time.Time
}

// ExplainQuery evaluates every predicate against every task in the full
// collection, not just the filtered result. Unlike execution, nothing
// short-circuits here: each predicate contributes a reason whether or
// not an earlier one already failed.
func ExplainQuery(q *Query, filters []*FilterNode, predicates []Predicate, all []task.Task, now time.Time) *Explanation {
	exp := &Explanation{
		QueryText:  q.Canonical(),
		TotalCount: len(all),
		TakenAt:    now,
	}

	for i := range all {
		t := &all[i]

		te := TaskExplanation{TaskID: t.ID, Name: t.Name, Matched: true}

		for j, pred := range predicates {
			matched := pred.Matches(t)

			reason := ""
			if matched {
				reason = pred.ExplainMatch(t)
			} else {
				reason = pred.ExplainMismatch(t)
				te.Matched = false
			}

			te.Filters = append(te.Filters, FilterExplanation{
				Filter:  filters[j].Canonical(),
				Matched: matched,
				Reason:  reason,
			})
		}

		if te.Matched {
			exp.MatchCount++
		}

		exp.Tasks = append(exp.Tasks, te)
	}

	return exp
}

// MatchedIDs returns the IDs of matched tasks in collection order.
func (e *Explanation) MatchedIDs() []string {
	var ids []string

	for _, te := range e.Tasks {
		if te.Matched {
			ids = append(ids, te.TaskID)
		}
	}

	return ids
}

// Markdown renders the explanation for humans. This is a presentation
// convenience, not part of the engine contract.
func (e *Explanation) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Explanation\n\n%d of %d tasks match.\n", e.MatchCount, e.TotalCount)

	for _, te := range e.Tasks {
		mark := "✗"
		if te.Matched {
			mark = "✓"
		}

		fmt.Fprintf(&b, "\n## %s %s (%s)\n", mark, te.Name, te.TaskID)

		for _, fe := range te.Filters {
			mark = "✗"
			if fe.Matched {
				mark = "✓"
			}

			fmt.Fprintf(&b, "- %s `%s`: %s\n", mark, fe.Filter, fe.Reason)
		}
	}

	return b.String()
}
