package query

import (
	"testing"
	"time"
)

// ref is a Wednesday.
var testRef = time.Date(2024, 3, 13, 15, 42, 7, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"absolute", "2024-01-31", day(2024, 1, 31)},
		{"today", "today", day(2024, 3, 13)},
		{"today truncates time", "Today", day(2024, 3, 13)},
		{"tomorrow", "tomorrow", day(2024, 3, 14)},
		{"yesterday", "yesterday", day(2024, 3, 12)},
		{"in days", "in 3 days", day(2024, 3, 16)},
		{"in one day", "in 1 day", day(2024, 3, 14)},
		{"in weeks", "in 2 weeks", day(2024, 3, 27)},
		{"days ago", "10 days ago", day(2024, 3, 3)},
		{"weeks ago", "1 week ago", day(2024, 3, 6)},
		{"next weekday", "next friday", day(2024, 3, 15)},
		{"next same weekday is a full week out", "next wednesday", day(2024, 3, 20)},
		{"next monday wraps the week", "next monday", day(2024, 3, 18)},
		{"case and spacing", "  NEXT Friday ", day(2024, 3, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDate(tt.text, testRef)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.text, err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"someday",
		"in three days",
		"in 3 fortnights",
		"-2 days ago",
		"next smonday",
		"31-01-2024",
	} {
		if _, err := ParseDate(text, testRef); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", text)
		}
	}
}

func TestParseDateDayResolution(t *testing.T) {
	t.Parallel()

	// Reference times within the same UTC day resolve identically.
	morning := time.Date(2024, 3, 13, 0, 0, 1, 0, time.UTC)
	evening := time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC)

	a, err := ParseDate("tomorrow", morning)
	if err != nil {
		t.Fatal(err)
	}

	b, err := ParseDate("tomorrow", evening)
	if err != nil {
		t.Fatal(err)
	}

	if !a.Equal(b) {
		t.Errorf("tomorrow differs across the day: %v vs %v", a, b)
	}
}
