package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"tq/internal/task"
)

// filterHint lists the filter families for unknown-instruction errors.
const filterHint = "expected one of: done, status, due/scheduled/start/created/updated/done/cancelled dates, " +
	"priority, urgency, escalation, attention, lane, tags, path, description, heading, " +
	"is blocked/blocking, is recurring, recurrence"

// parseFilterLine parses one filter instruction, recursing into boolean
// structure when present.
func parseFilterLine(line string, lineNo int, ref time.Time) (*FilterNode, error) {
	normalized := normalizeBooleans(line)
	if normalized == "" {
		return nil, syntaxErrorf(lineNo, 1, filterHint, "empty filter")
	}

	// "not done" is its own atomic filter, not a NOT combinator.
	if strings.EqualFold(normalized, "not done") {
		return parseAtomic(normalized, lineNo, ref)
	}

	if hasBooleanStructure(normalized) {
		return parseBooleanExpr(normalized, lineNo, ref)
	}

	return parseAtomic(normalized, lineNo, ref)
}

// parseBooleanExpr parses with precedence NOT > AND > OR, left-associative.
// Splitting is depth-aware and never cuts inside parentheses or inside a
// "between X and Y" range.
func parseBooleanExpr(s string, lineNo int, ref time.Time) (*FilterNode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, syntaxErrorf(lineNo, 1, "", "missing operand in boolean expression")
	}

	if parts := splitTopLevel(s, "OR"); len(parts) > 1 {
		return foldBoolean(parts, FilterOr, lineNo, ref)
	}

	if parts := splitTopLevel(s, "AND"); len(parts) > 1 {
		return foldBoolean(parts, FilterAnd, lineNo, ref)
	}

	if first, rest, found := strings.Cut(s, " "); found && strings.EqualFold(first, "NOT") {
		inner, err := parseBooleanExpr(rest, lineNo, ref)
		if err != nil {
			return nil, err
		}

		return &FilterNode{Kind: FilterNot, Inner: inner}, nil
	}

	if inner, ok := stripOuterParens(s); ok {
		return parseBooleanExpr(inner, lineNo, ref)
	}

	return parseAtomic(s, lineNo, ref)
}

// foldBoolean combines parts left-associatively: ((a op b) op c).
func foldBoolean(parts []string, kind FilterKind, lineNo int, ref time.Time) (*FilterNode, error) {
	node, err := parseBooleanExpr(parts[0], lineNo, ref)
	if err != nil {
		return nil, err
	}

	for _, part := range parts[1:] {
		right, partErr := parseBooleanExpr(part, lineNo, ref)
		if partErr != nil {
			return nil, partErr
		}

		node = &FilterNode{Kind: kind, Left: node, Right: right}
	}

	return node, nil
}

// stripOuterParens removes one pair of parentheses when they wrap the
// whole expression.
func stripOuterParens(s string) (string, bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}

	depth := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--

			if depth == 0 && i != len(s)-1 {
				return "", false // closes before the end: not outer parens
			}
		}
	}

	if depth != 0 {
		return "", false
	}

	return strings.TrimSpace(s[1 : len(s)-1]), true
}

// atomicRule maps an instruction prefix to its node builder. rest is the
// text after the prefix, already trimmed; col is the 1-based column where
// rest begins.
type atomicRule struct {
	prefix string
	build  func(rest string, lineNo, col int, ref time.Time) (*FilterNode, error)
}

// parseAtomic parses one atomic predicate by longest-prefix match against
// the grammar table.
func parseAtomic(s string, lineNo int, ref time.Time) (*FilterNode, error) {
	for _, rule := range atomicTable {
		rest, ok := matchPrefix(s, rule.prefix)
		if !ok {
			continue
		}

		col := len(rule.prefix) + 2 // after prefix + space, 1-based
		if rest == "" {
			col = 1
		}

		return rule.build(rest, lineNo, col, ref)
	}

	return nil, syntaxErrorf(lineNo, 1, filterHint, "unknown filter instruction: %q", s)
}

// matchPrefix tests a case-insensitive word-bounded prefix match and
// returns the trimmed remainder.
func matchPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}

	rest := s[len(prefix):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

// atomicTable is the grammar table, longest prefix first. Built once at
// package init; concurrent parses read it without synchronization.
var atomicTable = buildAtomicRules()

func buildAtomicRules() []atomicRule {
	rules := []atomicRule{
		{"done", buildDone(false)},
		{"not done", buildDone(true)},
		{"status is not", buildStatus(true)},
		{"status is", buildStatus(false)},
		{"priority is not", buildPriorityIs(true)},
		{"priority is above", buildPriorityCmp(OpAbove)},
		{"priority is below", buildPriorityCmp(OpBelow)},
		{"priority is at least", buildPriorityCmp(OpAtLeast)},
		{"priority is at most", buildPriorityCmp(OpAtMost)},
		{"priority is", buildPriorityIs(false)},
		{"priority above", buildPriorityCmp(OpAbove)},
		{"priority below", buildPriorityCmp(OpBelow)},
		{"priority at least", buildPriorityCmp(OpAtLeast)},
		{"priority at most", buildPriorityCmp(OpAtMost)},
		{"lane is not", buildLane(true)},
		{"lane is", buildLane(false)},
		{"has tags", buildHasTags(false)},
		{"no tags", buildHasTags(true)},
		{"tags do not include", buildText(FilterTag, true)},
		{"tags include", buildText(FilterTag, false)},
		{"tag does not include", buildText(FilterTag, true)},
		{"tag includes", buildText(FilterTag, false)},
		{"tags regex does not match", buildRegex(FilterTagRegex, true)},
		{"tags regex matches", buildRegex(FilterTagRegex, false)},
		{"path does not include", buildText(FilterPath, true)},
		{"path includes", buildText(FilterPath, false)},
		{"path regex does not match", buildRegex(FilterPathRegex, true)},
		{"path regex matches", buildRegex(FilterPathRegex, false)},
		{"description does not include", buildText(FilterDescription, true)},
		{"description includes", buildText(FilterDescription, false)},
		{"description regex does not match", buildRegex(FilterDescriptionRegex, true)},
		{"description regex matches", buildRegex(FilterDescriptionRegex, false)},
		{"heading does not include", buildText(FilterHeading, true)},
		{"heading includes", buildText(FilterHeading, false)},
		{"is not blocked", buildDependency(OpBlocked, true)},
		{"is blocked", buildDependency(OpBlocked, false)},
		{"is not blocking", buildDependency(OpBlocking, true)},
		{"is blocking", buildDependency(OpBlocking, false)},
		{"is not recurring", buildRecurring(true)},
		{"is recurring", buildRecurring(false)},
		{"recurrence does not include", buildText(FilterRecurrence, true)},
		{"recurrence includes", buildText(FilterRecurrence, false)},
	}

	for _, field := range []task.DateField{
		task.FieldDue, task.FieldScheduled, task.FieldStart, task.FieldCreated,
		task.FieldUpdated, task.FieldDone, task.FieldCancelled,
	} {
		name := string(field)
		rules = append(rules,
			atomicRule{"has " + name + " date", buildHasDate(field, false)},
			atomicRule{"no " + name + " date", buildHasDate(field, true)},
			atomicRule{name + " on or before", buildDateCmp(field, OpOnOrBefore)},
			atomicRule{name + " on or after", buildDateCmp(field, OpOnOrAfter)},
			atomicRule{name + " before", buildDateCmp(field, OpBefore)},
			atomicRule{name + " after", buildDateCmp(field, OpAfter)},
			atomicRule{name + " on", buildDateCmp(field, OpOn)},
			atomicRule{name + " between", buildDateBetween(field)},
		)
	}

	for kind, name := range map[FilterKind]string{
		FilterUrgency:    "urgency",
		FilterEscalation: "escalation",
		FilterAttention:  "attention",
	} {
		rules = append(rules,
			atomicRule{name + " above", buildScore(kind, OpAbove)},
			atomicRule{name + " below", buildScore(kind, OpBelow)},
			atomicRule{name + " at least", buildScore(kind, OpAtLeast)},
			atomicRule{name + " at most", buildScore(kind, OpAtMost)},
			atomicRule{name + " is", buildScore(kind, OpIs)},
		)
	}

	// Longest prefix wins, so "done before" beats bare "done".
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].prefix) > len(rules[j].prefix)
	})

	return rules
}

func buildDone(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest != "" {
			return nil, syntaxErrorf(lineNo, col, filterHint, "unexpected text after done filter: %q", rest)
		}

		return &FilterNode{Kind: FilterDone, Op: OpDone, Negate: negate}, nil
	}
}

func buildStatus(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		status, err := task.ParseStatus(rest)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, "expected todo, in progress, done, cancelled or non-task", "invalid status %q", rest)
		}

		return &FilterNode{Kind: FilterStatus, Op: OpIs, Value: string(status), Negate: negate}, nil
	}
}

const priorityHint = "expected lowest, low, normal, medium, high or highest"

func buildPriorityIs(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		level, err := task.ParsePriority(rest)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, priorityHint, "invalid priority %q", rest)
		}

		return &FilterNode{Kind: FilterPriority, Op: OpIs, Level: level, Negate: negate}, nil
	}
}

func buildPriorityCmp(op string) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		level, err := task.ParsePriority(rest)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, priorityHint, "invalid priority %q", rest)
		}

		return &FilterNode{Kind: FilterPriority, Op: op, Level: level}, nil
	}
}

func buildLane(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest == "" {
			return nil, syntaxErrorf(lineNo, col, "", "lane filter needs a lane name")
		}

		return &FilterNode{Kind: FilterLane, Op: OpIs, Value: rest, Negate: negate}, nil
	}
}

func buildHasTags(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest != "" {
			return nil, syntaxErrorf(lineNo, col, "", "unexpected text after tags filter: %q", rest)
		}

		return &FilterNode{Kind: FilterTag, Op: OpHas, Negate: negate}, nil
	}
}

func buildText(kind FilterKind, negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest == "" {
			return nil, syntaxErrorf(lineNo, col, "", "filter needs a value")
		}

		return &FilterNode{Kind: kind, Op: OpIncludes, Value: rest, Negate: negate}, nil
	}
}

func buildRegex(kind FilterKind, negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		pattern, err := ParseRegexValue(rest)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, regexHint, "%v", err)
		}

		return &FilterNode{Kind: kind, Op: OpMatches, Value: rest, Pattern: pattern, Negate: negate}, nil
	}
}

func buildDependency(op string, negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest != "" {
			return nil, syntaxErrorf(lineNo, col, "", "unexpected text after dependency filter: %q", rest)
		}

		return &FilterNode{Kind: FilterDependency, Op: op, Negate: negate}, nil
	}
}

func buildRecurring(negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest != "" {
			return nil, syntaxErrorf(lineNo, col, "", "unexpected text after recurring filter: %q", rest)
		}

		return &FilterNode{Kind: FilterRecurrence, Op: OpRecurring, Negate: negate}, nil
	}
}

func buildHasDate(field task.DateField, negate bool) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		if rest != "" {
			return nil, syntaxErrorf(lineNo, col, "", "unexpected text after date presence filter: %q", rest)
		}

		return &FilterNode{Kind: FilterDate, Field: field, Op: OpHas, Negate: negate}, nil
	}
}

func buildDateCmp(field task.DateField, op string) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, ref time.Time) (*FilterNode, error) {
		when, err := ParseDate(rest, ref)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, dateHint, "%v", err)
		}

		return &FilterNode{Kind: FilterDate, Field: field, Op: op, Date: when}, nil
	}
}

func buildDateBetween(field task.DateField) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, ref time.Time) (*FilterNode, error) {
		parts := splitTopLevel(rest, "and")
		if len(parts) != 2 {
			return nil, syntaxErrorf(lineNo, col, "expected '<field> between <date> and <date>'", "invalid date range %q", rest)
		}

		lower, err := ParseDate(parts[0], ref)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, dateHint, "%v", err)
		}

		upper, err := ParseDate(parts[1], ref)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, dateHint, "%v", err)
		}

		// Accept reversed bounds rather than matching nothing.
		if upper.Before(lower) {
			lower, upper = upper, lower
		}

		return &FilterNode{Kind: FilterDate, Field: field, Op: OpBetween, Date: lower, Date2: upper}, nil
	}
}

func buildScore(kind FilterKind, op string) func(string, int, int, time.Time) (*FilterNode, error) {
	return func(rest string, lineNo, col int, _ time.Time) (*FilterNode, error) {
		number, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, syntaxErrorf(lineNo, col, "expected a number", "invalid score threshold %q", rest)
		}

		return &FilterNode{Kind: kind, Op: op, Number: number}, nil
	}
}
