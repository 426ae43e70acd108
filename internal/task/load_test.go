package task

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleTaskFile = `{
	// weekly review fixtures
	"tasks": [
		{
			"id": "t1",
			"name": "Call the landlord",
			"heading": "Errands",
			"path": "notes/home.md",
			"tags": ["home", "phone"],
			"status": "in progress",
			"priority": "high",
			"due": "2024-03-14",
			"created": "2024-03-01T09:30:00Z",
		},
		{
			"id": "t2",
			"name": "Water the plants",
			"depends_on": ["t1"],
			"recurrence": "every week",
		},
	],
}`

func TestParseTaskFile(t *testing.T) {
	t.Parallel()

	tasks, err := Parse([]byte(sampleTaskFile))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("parsed %d tasks, want 2", len(tasks))
	}

	first := tasks[0]

	if first.ID != "t1" || first.Name != "Call the landlord" {
		t.Errorf("first task = %+v", first)
	}

	if first.Status != StatusInProgress {
		t.Errorf("status = %q, want in_progress", first.Status)
	}

	if first.Priority != PriorityHigh {
		t.Errorf("priority = %v, want high", first.Priority)
	}

	if first.Due == nil || !first.Due.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("due = %v", first.Due)
	}

	if first.Created == nil || first.Created.Hour() != 9 {
		t.Errorf("created = %v, want RFC3339 timestamp preserved", first.Created)
	}

	second := tasks[1]

	// Defaults apply when fields are omitted.
	if second.Status != StatusTodo || second.Priority != PriorityNormal {
		t.Errorf("defaults not applied: %+v", second)
	}

	if !second.IsRecurring() {
		t.Error("recurrence not carried over")
	}

	if len(second.DependsOn) != 1 || second.DependsOn[0] != "t1" {
		t.Errorf("depends_on = %v", second.DependsOn)
	}
}

func TestParseTaskFileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"malformed json", `{"tasks": [}`, "invalid task file"},
		{"missing id", `{"tasks": [{"name": "x"}]}`, "missing id"},
		{"duplicate id", `{"tasks": [{"id": "a"}, {"id": "a"}]}`, "duplicate task id"},
		{"bad status", `{"tasks": [{"id": "a", "status": "pending"}]}`, "unknown status"},
		{"bad priority", `{"tasks": [{"id": "a", "priority": "urgent"}]}`, "unknown priority"},
		{"bad date", `{"tasks": [{"id": "a", "due": "next tuesday"}]}`, "invalid timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.text))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte(sampleTaskFile), 0o600); err != nil {
		t.Fatal(err)
	}

	tasks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	if len(tasks) != 2 {
		t.Errorf("loaded %d tasks, want 2", len(tasks))
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("LoadFile succeeded on a missing file")
	}

	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want a not-found message", err)
	}
}
