// Package task holds the in-memory task model the query engine evaluates
// against, plus the host-side collaborators the engine consumes as opaque
// inputs: the dependency graph, the task repository, and scoring functions.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle symbol of a task.
type Status string

// Status values.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
	StatusNonTask    Status = "non_task"
)

var errUnknownStatus = errors.New("unknown status")

// ParseStatus converts a status string into a Status.
// Accepts both "in_progress" and "in progress" spellings.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "open":
		return StatusTodo, nil
	case "in_progress", "in progress", "in-progress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	case "non_task", "non-task":
		return StatusNonTask, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownStatus, s)
	}
}

// IsDone reports whether the status counts as completed.
// Cancelled tasks are treated as done for dependency purposes.
func (s Status) IsDone() bool {
	return s == StatusDone || s == StatusCancelled
}

// Priority is a fixed six-level ordinal scale. The zero value is Lowest;
// tasks default to Normal when no priority is set.
type Priority int

// Priority levels, lowest to highest.
const (
	PriorityLowest Priority = iota
	PriorityLow
	PriorityNormal
	PriorityMedium
	PriorityHigh
	PriorityHighest
)

var errUnknownPriority = errors.New("unknown priority")

var priorityNames = [...]string{"lowest", "low", "normal", "medium", "high", "highest"}

// ParsePriority converts a priority name into its ordinal level.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range priorityNames {
		if n == name {
			return Priority(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownPriority, s)
}

// String returns the lowercase priority name.
func (p Priority) String() string {
	if p < PriorityLowest || p > PriorityHighest {
		return fmt.Sprintf("priority(%d)", int(p))
	}

	return priorityNames[p]
}

// Task is one task record. The query engine treats it as read-only;
// mutation belongs to the external repository that owns the collection.
type Task struct {
	ID       string
	Name     string // description text
	Heading  string // section heading the task lives under, empty when none
	Path     string // source file path
	Tags     []string
	Status   Status
	Priority Priority

	// Optional timestamps. Nil means the field is unset.
	Due       *time.Time
	Scheduled *time.Time
	Start     *time.Time
	Created   *time.Time
	Updated   *time.Time
	Done      *time.Time
	Cancelled *time.Time

	// Dependency edges, by task ID.
	DependsOn []string

	// Recurrence is an opaque recurrence descriptor, empty when the task
	// does not recur. The engine only tests presence and substring.
	Recurrence string
}

// IsRecurring reports whether the task carries a recurrence descriptor.
func (t *Task) IsRecurring() bool {
	return t.Recurrence != ""
}

// HasTag reports whether the task carries the given tag. The comparison
// ignores a leading '#' on either side and is case-insensitive, matching
// how tags are written in filters.
func (t *Task) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimPrefix(tag, "#"))
	for _, have := range t.Tags {
		if strings.ToLower(strings.TrimPrefix(have, "#")) == want {
			return true
		}
	}

	return false
}

// DateField names an optional timestamp on a task.
type DateField string

// Date fields usable in filters and sorts.
const (
	FieldDue       DateField = "due"
	FieldScheduled DateField = "scheduled"
	FieldStart     DateField = "start"
	FieldCreated   DateField = "created"
	FieldUpdated   DateField = "updated"
	FieldDone      DateField = "done"
	FieldCancelled DateField = "cancelled"
)

// Date returns the named timestamp, or nil when unset or unknown.
func (t *Task) Date(field DateField) *time.Time {
	switch field {
	case FieldDue:
		return t.Due
	case FieldScheduled:
		return t.Scheduled
	case FieldStart:
		return t.Start
	case FieldCreated:
		return t.Created
	case FieldUpdated:
		return t.Updated
	case FieldDone:
		return t.Done
	case FieldCancelled:
		return t.Cancelled
	default:
		return nil
	}
}

// LastModified returns the best-effort modification instant used for
// explanation-cache keying: Updated when set, else Created, else zero.
func (t *Task) LastModified() time.Time {
	if t.Updated != nil {
		return *t.Updated
	}

	if t.Created != nil {
		return *t.Created
	}

	return time.Time{}
}
