package query

import (
	"fmt"
	"sort"
	"strings"

	"tq/internal/task"
)

// sortTasks orders tasks in place by the multi-field sort spec. The sort
// is stable: tasks tied on every key keep their filter order. Each key is
// compared in declared order, advancing to the next key only on exact
// equality. "reverse" negates a single key's comparison, never the
// tie-break precedence, and missing dates sort last regardless of
// direction.
func sortTasks(tasks []task.Task, spec *SortSpec, ctx *BuildContext) error {
	comparators := make([]fieldComparator, len(spec.Keys))

	for i, key := range spec.Keys {
		cmp, err := comparatorFor(key.Field, ctx)
		if err != nil {
			return err
		}

		comparators[i] = fieldComparator{cmp: cmp, reverse: key.Reverse}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		for _, fc := range comparators {
			c := fc.compare(&tasks[i], &tasks[j])
			if c != 0 {
				return c < 0
			}
		}

		return false
	})

	return nil
}

type fieldComparator struct {
	cmp     func(a, b *task.Task) comparison
	reverse bool
}

// comparison carries the raw ordering plus whether reverse applies.
// Missing-date orderings are absolute: they ignore the reverse flag so
// tasks without the date always land last.
type comparison struct {
	c        int
	absolute bool
}

func (fc fieldComparator) compare(a, b *task.Task) int {
	result := fc.cmp(a, b)

	if fc.reverse && !result.absolute {
		return -result.c
	}

	return result.c
}

func relative(c int) comparison { return comparison{c: c} }

func comparatorFor(field string, ctx *BuildContext) (func(a, b *task.Task) comparison, error) {
	switch field {
	case "id":
		return textComparator(func(t *task.Task) string { return t.ID }), nil
	case "status":
		return textComparator(func(t *task.Task) string { return string(t.Status) }), nil
	case "description":
		return textComparator(func(t *task.Task) string { return t.Name }), nil
	case "path":
		return textComparator(func(t *task.Task) string { return t.Path }), nil
	case "heading":
		return textComparator(func(t *task.Task) string { return t.Heading }), nil
	case "priority":
		return func(a, b *task.Task) comparison {
			return relative(int(a.Priority) - int(b.Priority))
		}, nil
	case "urgency":
		return scoreComparator(ctx.Scoring.Urgency), nil
	case "escalation":
		return scoreComparator(ctx.Scoring.Escalation), nil
	case "attention":
		return scoreComparator(ctx.Scoring.Attention), nil
	case "due", "scheduled", "start", "created", "updated", "done":
		return dateComparator(task.DateField(field)), nil
	default:
		return nil, execErrorf("sort", fmt.Errorf("%w: %q", errUnknownSortField, field))
	}
}

// Text fields compare case-sensitive lexicographically.
func textComparator(get func(*task.Task) string) func(a, b *task.Task) comparison {
	return func(a, b *task.Task) comparison {
		return relative(strings.Compare(get(a), get(b)))
	}
}

// scoreComparator evaluates the external scorer per comparison. The
// build context carries one reference time for the whole pass, so every
// comparison sees consistent scores. A nil scorer compares equal.
func scoreComparator(score func(*task.Task) float64) func(a, b *task.Task) comparison {
	return func(a, b *task.Task) comparison {
		if score == nil {
			return relative(0)
		}

		sa, sb := score(a), score(b)

		switch {
		case sa < sb:
			return relative(-1)
		case sa > sb:
			return relative(1)
		default:
			return relative(0)
		}
	}
}

func dateComparator(field task.DateField) func(a, b *task.Task) comparison {
	return func(a, b *task.Task) comparison {
		da, db := a.Date(field), b.Date(field)

		switch {
		case da == nil && db == nil:
			return relative(0)
		case da == nil:
			return comparison{c: 1, absolute: true} // missing sorts last, even reversed
		case db == nil:
			return comparison{c: -1, absolute: true}
		case da.Before(*db):
			return relative(-1)
		case da.After(*db):
			return relative(1)
		default:
			return relative(0)
		}
	}
}
