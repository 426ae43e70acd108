package task

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Status
	}{
		{"todo", StatusTodo},
		{"open", StatusTodo},
		{"in_progress", StatusInProgress},
		{"in progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"Done", StatusDone},
		{"cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"non_task", StatusNonTask},
		{" non-task ", StatusNonTask},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if err != nil {
			t.Errorf("ParseStatus(%q) error: %v", tt.in, err)

			continue
		}

		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseStatus("pending"); err == nil {
		t.Error("ParseStatus accepted an unknown status")
	}
}

func TestStatusIsDone(t *testing.T) {
	t.Parallel()

	for status, want := range map[Status]bool{
		StatusTodo:       false,
		StatusInProgress: false,
		StatusDone:       true,
		StatusCancelled:  true,
		StatusNonTask:    false,
	} {
		if got := status.IsDone(); got != want {
			t.Errorf("%s.IsDone() = %v, want %v", status, got, want)
		}
	}
}

func TestPriorityOrdering(t *testing.T) {
	t.Parallel()

	if !(PriorityLowest < PriorityLow && PriorityLow < PriorityNormal &&
		PriorityNormal < PriorityMedium && PriorityMedium < PriorityHigh &&
		PriorityHigh < PriorityHighest) {
		t.Error("priority ordinals out of order")
	}
}

func TestParsePriorityRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"lowest", "low", "normal", "medium", "high", "highest"} {
		p, err := ParsePriority(name)
		if err != nil {
			t.Fatalf("ParsePriority(%q) error: %v", name, err)
		}

		if p.String() != name {
			t.Errorf("ParsePriority(%q).String() = %q", name, p.String())
		}
	}

	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("ParsePriority accepted an unknown name")
	}

	if got := Priority(42).String(); got != "priority(42)" {
		t.Errorf("out-of-range String() = %q", got)
	}
}

func TestHasTag(t *testing.T) {
	t.Parallel()

	task := Task{Tags: []string{"#Home", "work"}}

	tests := []struct {
		tag  string
		want bool
	}{
		{"home", true},
		{"#home", true},
		{"HOME", true},
		{"work", true},
		{"#work", true},
		{"homework", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := task.HasTag(tt.tag); got != tt.want {
			t.Errorf("HasTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestDateFieldAccess(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	task := Task{Due: &due}

	if got := task.Date(FieldDue); got == nil || !got.Equal(due) {
		t.Errorf("Date(due) = %v, want %v", got, due)
	}

	if got := task.Date(FieldScheduled); got != nil {
		t.Errorf("Date(scheduled) = %v, want nil", got)
	}

	if got := task.Date("bogus"); got != nil {
		t.Errorf("Date(bogus) = %v, want nil", got)
	}
}

func TestLastModified(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	both := Task{Created: &created, Updated: &updated}
	if got := both.LastModified(); !got.Equal(updated) {
		t.Errorf("LastModified with both = %v, want updated", got)
	}

	onlyCreated := Task{Created: &created}
	if got := onlyCreated.LastModified(); !got.Equal(created) {
		t.Errorf("LastModified with created only = %v, want created", got)
	}

	neither := Task{}
	if !neither.LastModified().IsZero() {
		t.Error("LastModified with neither is not zero")
	}
}
