package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Task-file errors.
var (
	errTaskFileNotFound = errors.New("task file not found")
	errTaskFileInvalid  = errors.New("invalid task file")
	errDuplicateTaskID  = errors.New("duplicate task id")
)

// taskFile is the on-disk JWCC shape of a task collection.
type taskFile struct {
	Tasks []taskRecord `json:"tasks"`
}

// taskRecord is one task as serialized in the task file. Dates accept
// either YYYY-MM-DD or RFC3339.
type taskRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Heading    string   `json:"heading,omitempty"`
	Path       string   `json:"path,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Status     string   `json:"status,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Due        string   `json:"due,omitempty"`
	Scheduled  string   `json:"scheduled,omitempty"`
	Start      string   `json:"start,omitempty"`
	Created    string   `json:"created,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	Done       string   `json:"done,omitempty"`
	Cancelled  string   `json:"cancelled,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty"`
	Recurrence string   `json:"recurrence,omitempty"`
}

// LoadFile reads a JWCC task file (JSON with comments and trailing commas,
// like the config file) and returns the task collection in file order.
func LoadFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config/flags
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errTaskFileNotFound, path)
		}

		return nil, fmt.Errorf("reading task file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a JWCC task document.
func Parse(data []byte) ([]Task, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTaskFileInvalid, err)
	}

	var file taskFile

	unmarshalErr := json.Unmarshal(standardized, &file)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", errTaskFileInvalid, unmarshalErr)
	}

	tasks := make([]Task, 0, len(file.Tasks))
	seen := make(map[string]bool, len(file.Tasks))

	for i, rec := range file.Tasks {
		parsed, recErr := rec.toTask()
		if recErr != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, rec.ID, recErr)
		}

		if seen[parsed.ID] {
			return nil, fmt.Errorf("%w: %s", errDuplicateTaskID, parsed.ID)
		}

		seen[parsed.ID] = true
		tasks = append(tasks, parsed)
	}

	return tasks, nil
}

func (r taskRecord) toTask() (Task, error) {
	if r.ID == "" {
		return Task{}, errors.New("missing id")
	}

	t := Task{
		ID:         r.ID,
		Name:       r.Name,
		Heading:    r.Heading,
		Path:       r.Path,
		Tags:       r.Tags,
		Status:     StatusTodo,
		Priority:   PriorityNormal,
		DependsOn:  r.DependsOn,
		Recurrence: r.Recurrence,
	}

	if r.Status != "" {
		status, err := ParseStatus(r.Status)
		if err != nil {
			return Task{}, err
		}

		t.Status = status
	}

	if r.Priority != "" {
		priority, err := ParsePriority(r.Priority)
		if err != nil {
			return Task{}, err
		}

		t.Priority = priority
	}

	for _, field := range []struct {
		raw  string
		dst  **time.Time
		name string
	}{
		{r.Due, &t.Due, "due"},
		{r.Scheduled, &t.Scheduled, "scheduled"},
		{r.Start, &t.Start, "start"},
		{r.Created, &t.Created, "created"},
		{r.Updated, &t.Updated, "updated"},
		{r.Done, &t.Done, "done"},
		{r.Cancelled, &t.Cancelled, "cancelled"},
	} {
		if field.raw == "" {
			continue
		}

		when, err := parseTimestamp(field.raw)
		if err != nil {
			return Task{}, fmt.Errorf("%s: %w", field.name, err)
		}

		*field.dst = &when
	}

	return t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if when, err := time.Parse("2006-01-02", s); err == nil {
		return when, nil
	}

	when, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (want YYYY-MM-DD or RFC3339)", s)
	}

	return when, nil
}
