package task

// Repository is the pull accessor for the full task collection. The query
// engine snapshots it once per execution via All.
//
// Repository counts All calls so tests can verify that a cached execution
// does not rescan the collection.
type Repository struct {
	tasks []Task
	calls int
}

// NewRepository wraps a task slice. The repository takes ownership of the
// slice; callers must not mutate it afterwards.
func NewRepository(tasks []Task) *Repository {
	return &Repository{tasks: tasks}
}

// All returns the full task collection.
func (r *Repository) All() []Task {
	r.calls++

	return r.tasks
}

// Replace swaps the underlying collection, e.g. after the task file
// changed on disk. Callers are responsible for invalidating engine caches.
func (r *Repository) Replace(tasks []Task) {
	r.tasks = tasks
}

// CallCount returns how many times All has been called.
func (r *Repository) CallCount() int {
	return r.calls
}

// Len returns the collection size without counting as a scan.
func (r *Repository) Len() int {
	return len(r.tasks)
}
