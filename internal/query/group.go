package query

import (
	"fmt"

	"tq/internal/task"
)

// Grouping partitions an already filtered/sorted/limited sequence into an
// order-preserving mapping of group key to task list. Keys appear in the
// order their first task appears.
type Grouping struct {
	Keys   []string
	Groups map[string][]task.Task
}

// groupTasks derives one key per task from the grouping field and
// partitions the sequence, preserving both key order and task order.
func groupTasks(tasks []task.Task, spec *GroupSpec, ctx *BuildContext) (*Grouping, error) {
	keyFor, err := groupKeyFunc(spec.Field, ctx)
	if err != nil {
		return nil, err
	}

	g := &Grouping{Groups: make(map[string][]task.Task)}

	for i := range tasks {
		key := keyFor(&tasks[i])

		if _, seen := g.Groups[key]; !seen {
			g.Keys = append(g.Keys, key)
		}

		g.Groups[key] = append(g.Groups[key], tasks[i])
	}

	return g, nil
}

func groupKeyFunc(field string, ctx *BuildContext) (func(*task.Task) string, error) {
	switch field {
	case "status":
		return func(t *task.Task) string { return string(t.Status) }, nil
	case "priority":
		return func(t *task.Task) string { return t.Priority.String() }, nil
	case "path":
		return func(t *task.Task) string { return t.Path }, nil
	case "heading":
		return func(t *task.Task) string {
			if t.Heading == "" {
				return "(no heading)"
			}

			return t.Heading
		}, nil
	case "lane":
		return func(t *task.Task) string {
			if ctx.Scoring.Lane == nil {
				return "(no lane)"
			}

			return ctx.Scoring.Lane(t)
		}, nil
	case "due", "scheduled":
		dateField := task.DateField(field)

		return func(t *task.Task) string {
			when := t.Date(dateField)
			if when == nil {
				return "(no " + field + " date)"
			}

			return when.Format(canonicalDate)
		}, nil
	case "recurring":
		return func(t *task.Task) string {
			if t.IsRecurring() {
				return "recurring"
			}

			return "not recurring"
		}, nil
	default:
		return nil, execErrorf("group", fmt.Errorf("%w: %q", errUnknownGroupField, field))
	}
}
