package task

import "testing"

func graphFixture() []Task {
	return []Task{
		{ID: "a", Status: StatusTodo, DependsOn: []string{"b", "c"}},
		{ID: "b", Status: StatusDone},
		{ID: "c", Status: StatusTodo},
		{ID: "d", Status: StatusCancelled, DependsOn: []string{"c"}},
		{ID: "e", Status: StatusTodo, DependsOn: []string{"ghost"}},
	}
}

func TestGraphIsBlocked(t *testing.T) {
	t.Parallel()

	tasks := graphFixture()
	g := NewDependencyGraph(tasks)

	tests := []struct {
		id   string
		want bool
	}{
		{"a", true},  // waits on c (todo); b being done does not unblock it
		{"b", false}, // no dependencies
		{"c", false},
		{"d", true},  // cancelled tasks can still list blockers
		{"e", false}, // unknown dependency IDs never block
	}

	for _, tt := range tests {
		task := findTask(t, tasks, tt.id)

		if got := g.IsBlocked(task); got != tt.want {
			t.Errorf("IsBlocked(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGraphIsBlocking(t *testing.T) {
	t.Parallel()

	tasks := graphFixture()
	g := NewDependencyGraph(tasks)

	tests := []struct {
		id   string
		want bool
	}{
		{"a", false},
		{"b", false}, // done tasks block nothing
		{"c", true},  // a (todo) waits on it; d is cancelled and does not count
		{"e", false},
	}

	for _, tt := range tests {
		task := findTask(t, tasks, tt.id)

		if got := g.IsBlocking(task); got != tt.want {
			t.Errorf("IsBlocking(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGraphBlockedBy(t *testing.T) {
	t.Parallel()

	tasks := graphFixture()
	g := NewDependencyGraph(tasks)

	blockers := g.BlockedBy(findTask(t, tasks, "a"))

	if len(blockers) != 1 || blockers[0] != "c" {
		t.Errorf("BlockedBy(a) = %v, want [c]", blockers)
	}

	if got := g.BlockedBy(findTask(t, tasks, "b")); got != nil {
		t.Errorf("BlockedBy(b) = %v, want nil", got)
	}
}

func TestGraphNilReceiver(t *testing.T) {
	t.Parallel()

	var g *DependencyGraph

	task := Task{ID: "x", DependsOn: []string{"y"}}

	if g.IsBlocked(&task) || g.IsBlocking(&task) || g.BlockedBy(&task) != nil {
		t.Error("nil graph reported dependency state")
	}
}

func findTask(t *testing.T, tasks []Task, id string) *Task {
	t.Helper()

	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}

	t.Fatalf("no task %q in fixture", id)

	return nil
}
