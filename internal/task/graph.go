package task

// DependencyGraph answers "is blocked" / "is blocking" questions over a
// task collection. It is built once from a snapshot and handed to the
// query engine; the engine treats a missing graph as "nothing is blocked".
type DependencyGraph struct {
	byID       map[string]*Task
	dependents map[string][]string // task ID -> IDs of tasks that depend on it
}

// NewDependencyGraph builds a graph from a task snapshot. Edges referring
// to unknown IDs are kept but resolve to "not blocking" at query time.
func NewDependencyGraph(tasks []Task) *DependencyGraph {
	g := &DependencyGraph{
		byID:       make(map[string]*Task, len(tasks)),
		dependents: make(map[string][]string),
	}

	for i := range tasks {
		g.byID[tasks[i].ID] = &tasks[i]
	}

	for i := range tasks {
		for _, dep := range tasks[i].DependsOn {
			g.dependents[dep] = append(g.dependents[dep], tasks[i].ID)
		}
	}

	return g
}

// IsBlocked reports whether the task depends on at least one task that is
// not yet done. Unknown dependency IDs do not block.
func (g *DependencyGraph) IsBlocked(t *Task) bool {
	if g == nil || t == nil {
		return false
	}

	for _, dep := range t.DependsOn {
		blocker, ok := g.byID[dep]
		if ok && !blocker.Status.IsDone() {
			return true
		}
	}

	return false
}

// IsBlocking reports whether some not-done task depends on this task.
// Done tasks block nothing.
func (g *DependencyGraph) IsBlocking(t *Task) bool {
	if g == nil || t == nil || t.Status.IsDone() {
		return false
	}

	for _, id := range g.dependents[t.ID] {
		dependent, ok := g.byID[id]
		if ok && !dependent.Status.IsDone() {
			return true
		}
	}

	return false
}

// BlockedBy returns the IDs of not-done tasks the given task waits on,
// in dependency-declaration order.
func (g *DependencyGraph) BlockedBy(t *Task) []string {
	if g == nil || t == nil {
		return nil
	}

	var blockers []string

	for _, dep := range t.DependsOn {
		blocker, ok := g.byID[dep]
		if ok && !blocker.Status.IsDone() {
			blockers = append(blockers, dep)
		}
	}

	return blockers
}
