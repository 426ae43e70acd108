package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateHint is the usage hint attached to date SyntaxErrors.
const dateHint = "expected YYYY-MM-DD, today, tomorrow, yesterday, 'in N days/weeks', 'N days/weeks ago' or 'next <weekday>'"

var errBadDate = errors.New("invalid date expression")

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDate resolves a date expression against a reference time. Results
// are day-resolution: midnight UTC of the target day. Supported forms:
//
//	2024-01-31           absolute
//	today / tomorrow / yesterday
//	in N days | in N weeks
//	N days ago | N weeks ago
//	next monday          the first monday strictly after the reference day
func ParseDate(text string, ref time.Time) (time.Time, error) {
	expr := strings.ToLower(strings.TrimSpace(text))
	if expr == "" {
		return time.Time{}, fmt.Errorf("%w: empty", errBadDate)
	}

	day := midnight(ref)

	switch expr {
	case "today":
		return day, nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	}

	if when, err := time.Parse(canonicalDate, expr); err == nil {
		return when, nil
	}

	fields := strings.Fields(expr)

	switch {
	case len(fields) == 3 && fields[0] == "in":
		return offsetDate(day, fields[1], fields[2], 1)
	case len(fields) == 3 && fields[2] == "ago":
		return offsetDate(day, fields[0], fields[1], -1)
	case len(fields) == 2 && fields[0] == "next":
		target, ok := weekdays[fields[1]]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown weekday %q", errBadDate, fields[1])
		}

		days := (int(target) - int(day.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}

		return day.AddDate(0, 0, days), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, text)
}

func offsetDate(day time.Time, countWord, unit string, sign int) (time.Time, error) {
	count, err := strconv.Atoi(countWord)
	if err != nil || count < 0 {
		return time.Time{}, fmt.Errorf("%w: bad count %q", errBadDate, countWord)
	}

	switch unit {
	case "day", "days":
		return day.AddDate(0, 0, sign*count), nil
	case "week", "weeks":
		return day.AddDate(0, 0, sign*count*daysInWeek), nil
	default:
		return time.Time{}, fmt.Errorf("%w: bad unit %q", errBadDate, unit)
	}
}

const daysInWeek = 7

// midnight truncates an instant to the start of its UTC day.
func midnight(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
