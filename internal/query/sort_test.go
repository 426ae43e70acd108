package query

import (
	"errors"
	"testing"

	"tq/internal/task"
)

func sortedIDs(t *testing.T, tasks []task.Task, spec string, ctx *BuildContext) []string {
	t.Helper()

	q := mustParse(t, spec)
	if q.Sort == nil {
		t.Fatalf("no sort spec in %q", spec)
	}

	ordered := append([]task.Task(nil), tasks...)

	if err := sortTasks(ordered, q.Sort, ctx); err != nil {
		t.Fatalf("sortTasks error: %v", err)
	}

	ids := make([]string, len(ordered))
	for i := range ordered {
		ids[i] = ordered[i].ID
	}

	return ids
}

func TestSortSingleField(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()
	ctx := buildCtx(tasks)

	tests := []struct {
		spec string
		want []string
	}{
		{"sort by id", []string{"t1", "t2", "t3", "t4"}},
		{"sort by priority", []string{"t4", "t3", "t1", "t2"}},
		{"sort by priority reverse", []string{"t2", "t1", "t3", "t4"}},
		{"sort by urgency reverse", []string{"t2", "t1", "t3", "t4"}},
		{"sort by description", []string{"t1", "t2", "t4", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			got := sortedIDs(t, tasks, tt.spec, ctx)

			if !equalStrings(got, tt.want) {
				t.Errorf("%q = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

// Missing dates sort last in both directions; reverse flips only the
// ordering of tasks that have the date.
func TestSortMissingDatesAlwaysLast(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks() // t1 due 03-14, t2 due 03-12, t3/t4 no due
	ctx := buildCtx(tasks)

	forward := sortedIDs(t, tasks, "sort by due", ctx)
	if !equalStrings(forward, []string{"t2", "t1", "t3", "t4"}) {
		t.Errorf("sort by due = %v", forward)
	}

	reversed := sortedIDs(t, tasks, "sort by due reverse", ctx)
	if !equalStrings(reversed, []string{"t1", "t2", "t3", "t4"}) {
		t.Errorf("sort by due reverse = %v", reversed)
	}
}

// Later keys only break exact ties of earlier keys, and reverse applies
// per key.
func TestSortMultiField(t *testing.T) {
	t.Parallel()

	tasks := []task.Task{
		{ID: "a", Priority: task.PriorityHigh, Due: datePtr(2024, 3, 20)},
		{ID: "b", Priority: task.PriorityHigh, Due: datePtr(2024, 3, 10)},
		{ID: "c", Priority: task.PriorityLow, Due: datePtr(2024, 3, 1)},
		{ID: "d", Priority: task.PriorityHigh},
	}
	ctx := buildCtx(tasks)

	got := sortedIDs(t, tasks, "sort by priority reverse, due", ctx)

	// High before low (reversed priority); highs ordered by due ascending
	// with the missing due last; the low-priority task trails.
	want := []string{"b", "a", "d", "c"}
	if !equalStrings(got, want) {
		t.Errorf("sort by priority reverse, due = %v, want %v", got, want)
	}
}

// Tasks tied on every key keep their input order.
func TestSortIsStable(t *testing.T) {
	t.Parallel()

	tasks := []task.Task{
		{ID: "z", Priority: task.PriorityNormal},
		{ID: "m", Priority: task.PriorityNormal},
		{ID: "a", Priority: task.PriorityNormal},
	}
	ctx := buildCtx(tasks)

	got := sortedIDs(t, tasks, "sort by priority", ctx)

	want := []string{"z", "m", "a"}
	if !equalStrings(got, want) {
		t.Errorf("stable sort reordered ties: %v", got)
	}
}

// A nil scorer makes score sorts compare equal rather than failing.
func TestSortWithoutScorersIsNoop(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()
	bare := &BuildContext{Now: testRef}

	got := sortedIDs(t, tasks, "sort by urgency", bare)

	want := []string{"t1", "t2", "t3", "t4"}
	if !equalStrings(got, want) {
		t.Errorf("sort by urgency without scorers = %v, want input order", got)
	}
}

func TestSortUnknownFieldIsExecutionError(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()
	spec := &SortSpec{Keys: []SortKey{{Field: "charisma"}}}

	err := sortTasks(tasks, spec, buildCtx(tasks))
	if err == nil {
		t.Fatal("expected error for unknown sort field")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error is %T, want *ExecutionError", err)
	}
}
