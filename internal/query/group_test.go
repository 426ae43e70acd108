package query

import (
	"errors"
	"testing"

	"tq/internal/task"
)

func TestGroupTasks(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()
	ctx := buildCtx(tasks)

	tests := []struct {
		field    string
		wantKeys []string
	}{
		{"status", []string{"todo", "in_progress", "done"}},
		{"priority", []string{"high", "highest", "normal", "low"}},
		{"path", []string{"notes/home.md", "notes/work.md"}},
		{"heading", []string{"Errands", "Work", "(no heading)"}},
		{"lane", []string{"default", "deep-work"}},
		{"due", []string{"2024-03-14", "2024-03-12", "(no due date)"}},
		{"recurring", []string{"not recurring", "recurring"}},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			t.Parallel()

			g, err := groupTasks(tasks, &GroupSpec{Field: tt.field}, ctx)
			if err != nil {
				t.Fatalf("groupTasks(%q) error: %v", tt.field, err)
			}

			if !equalStrings(g.Keys, tt.wantKeys) {
				t.Errorf("keys = %v, want %v", g.Keys, tt.wantKeys)
			}

			total := 0
			for _, key := range g.Keys {
				total += len(g.Groups[key])
			}

			if total != len(tasks) {
				t.Errorf("grouped %d tasks, want %d", total, len(tasks))
			}
		})
	}
}

// Group keys appear in first-occurrence order and tasks keep their
// incoming order within each group.
func TestGroupPreservesOrder(t *testing.T) {
	t.Parallel()

	tasks := []task.Task{
		{ID: "a", Status: task.StatusDone},
		{ID: "b", Status: task.StatusTodo},
		{ID: "c", Status: task.StatusDone},
	}

	g, err := groupTasks(tasks, &GroupSpec{Field: "status"}, buildCtx(tasks))
	if err != nil {
		t.Fatal(err)
	}

	if !equalStrings(g.Keys, []string{"done", "todo"}) {
		t.Errorf("keys = %v", g.Keys)
	}

	done := g.Groups["done"]
	if len(done) != 2 || done[0].ID != "a" || done[1].ID != "c" {
		t.Errorf("done group out of order: %+v", done)
	}
}

func TestGroupWithoutLaneProvider(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()

	g, err := groupTasks(tasks, &GroupSpec{Field: "lane"}, &BuildContext{Now: testRef})
	if err != nil {
		t.Fatal(err)
	}

	if !equalStrings(g.Keys, []string{"(no lane)"}) {
		t.Errorf("keys = %v, want single (no lane) bucket", g.Keys)
	}
}

func TestGroupUnknownFieldIsExecutionError(t *testing.T) {
	t.Parallel()

	tasks := fixtureTasks()

	_, err := groupTasks(tasks, &GroupSpec{Field: "flavor"}, buildCtx(tasks))
	if err == nil {
		t.Fatal("expected error for unknown group field")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error is %T, want *ExecutionError", err)
	}
}
