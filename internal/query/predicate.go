package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tq/internal/task"
)

// Scorers bundles the externally supplied scoring functions and the
// attention-profile provider. The engine treats them as opaque; a nil
// function makes the corresponding filters match nothing and the
// corresponding sorts compare equal.
type Scorers struct {
	Urgency    func(*task.Task) float64
	Escalation func(*task.Task) float64
	Attention  func(*task.Task) float64
	Lane       func(*task.Task) string
}

// BuildContext is the external context predicates capture at build time:
// the reference instant, the dependency graph and the scoring functions.
type BuildContext struct {
	Now     time.Time
	Graph   *task.DependencyGraph // nil means no dependency information
	Scoring Scorers
}

// Predicate decides whether one task satisfies one filter, and explains
// itself for the explain pipeline. Matches may short-circuit; the explain
// methods always evaluate fully.
type Predicate interface {
	Matches(t *task.Task) bool

	// Explain describes the filter itself, independent of any task.
	Explain() string

	// ExplainMatch states why the task matched. Only valid when
	// Matches(t) is true.
	ExplainMatch(t *task.Task) string

	// ExplainMismatch states why the task did not match. Only valid when
	// Matches(t) is false.
	ExplainMismatch(t *task.Task) string
}

// Build converts a FilterNode into an executable predicate. Boolean nodes
// recurse into their children. An unknown kind or operator is a
// programmer-contract violation and returns an [*ExecutionError].
func Build(n *FilterNode, ctx *BuildContext) (Predicate, error) {
	if n == nil {
		return nil, execErrorf("build predicate", errNilNode)
	}

	switch n.Kind {
	case FilterAnd, FilterOr:
		left, err := Build(n.Left, ctx)
		if err != nil {
			return nil, err
		}

		right, err := Build(n.Right, ctx)
		if err != nil {
			return nil, err
		}

		if n.Kind == FilterAnd {
			return &andPredicate{left: left, right: right}, nil
		}

		return &orPredicate{left: left, right: right}, nil
	case FilterNot:
		inner, err := Build(n.Inner, ctx)
		if err != nil {
			return nil, err
		}

		return &notPredicate{inner: inner}, nil
	case FilterDone:
		return &donePredicate{leaf: leaf{node: n}}, nil
	case FilterStatus:
		return &statusPredicate{leaf: leaf{node: n}, want: task.Status(n.Value)}, nil
	case FilterDate:
		return buildDatePredicate(n)
	case FilterPriority:
		return buildPriorityPredicate(n)
	case FilterUrgency:
		return buildScorePredicate(n, ctx.Scoring.Urgency)
	case FilterEscalation:
		return buildScorePredicate(n, ctx.Scoring.Escalation)
	case FilterAttention:
		return buildScorePredicate(n, ctx.Scoring.Attention)
	case FilterLane:
		return &lanePredicate{leaf: leaf{node: n}, lane: ctx.Scoring.Lane}, nil
	case FilterTag:
		return &tagPredicate{leaf: leaf{node: n}}, nil
	case FilterTagRegex, FilterPathRegex, FilterDescriptionRegex:
		return buildRegexPredicate(n)
	case FilterPath, FilterDescription, FilterHeading:
		return &textPredicate{leaf: leaf{node: n}, get: textGetter(n.Kind)}, nil
	case FilterDependency:
		return &dependencyPredicate{leaf: leaf{node: n}, graph: ctx.Graph}, nil
	case FilterRecurrence:
		return &recurrencePredicate{leaf: leaf{node: n}}, nil
	default:
		return nil, execErrorf("build predicate", fmt.Errorf("%w: %d", errUnknownFilterKind, n.Kind))
	}
}

// leaf is the shared base of leaf predicates: it keeps the node for
// canonical self-description and negation.
type leaf struct {
	node *FilterNode
}

func (l leaf) Explain() string {
	return l.node.Canonical()
}

// flip applies leaf-level negation to a raw match result.
func (l leaf) flip(matched bool) bool {
	if l.node.Negate {
		return !matched
	}

	return matched
}

// Boolean combinators. Matches short-circuits AND/OR; the explain methods
// always evaluate both children so reasons are complete.

type andPredicate struct {
	left, right Predicate
}

func (p *andPredicate) Matches(t *task.Task) bool {
	return p.left.Matches(t) && p.right.Matches(t)
}

func (p *andPredicate) Explain() string {
	return "(" + p.left.Explain() + ") AND (" + p.right.Explain() + ")"
}

func (p *andPredicate) ExplainMatch(t *task.Task) string {
	return p.left.ExplainMatch(t) + " and " + p.right.ExplainMatch(t)
}

func (p *andPredicate) ExplainMismatch(t *task.Task) string {
	var reasons []string

	if !p.left.Matches(t) {
		reasons = append(reasons, p.left.ExplainMismatch(t))
	}

	if !p.right.Matches(t) {
		reasons = append(reasons, p.right.ExplainMismatch(t))
	}

	return strings.Join(reasons, " and ")
}

type orPredicate struct {
	left, right Predicate
}

func (p *orPredicate) Matches(t *task.Task) bool {
	return p.left.Matches(t) || p.right.Matches(t)
}

func (p *orPredicate) Explain() string {
	return "(" + p.left.Explain() + ") OR (" + p.right.Explain() + ")"
}

func (p *orPredicate) ExplainMatch(t *task.Task) string {
	var reasons []string

	if p.left.Matches(t) {
		reasons = append(reasons, p.left.ExplainMatch(t))
	}

	if p.right.Matches(t) {
		reasons = append(reasons, p.right.ExplainMatch(t))
	}

	return strings.Join(reasons, " or ")
}

func (p *orPredicate) ExplainMismatch(t *task.Task) string {
	return p.left.ExplainMismatch(t) + " and " + p.right.ExplainMismatch(t)
}

type notPredicate struct {
	inner Predicate
}

func (p *notPredicate) Matches(t *task.Task) bool {
	return !p.inner.Matches(t)
}

func (p *notPredicate) Explain() string {
	return "NOT (" + p.inner.Explain() + ")"
}

func (p *notPredicate) ExplainMatch(t *task.Task) string {
	return "not: " + p.inner.ExplainMismatch(t)
}

func (p *notPredicate) ExplainMismatch(t *task.Task) string {
	return "not: " + p.inner.ExplainMatch(t)
}

// donePredicate matches done or cancelled tasks ("done"), negated for
// "not done".
type donePredicate struct {
	leaf
}

func (p *donePredicate) Matches(t *task.Task) bool {
	return p.flip(t.Status.IsDone())
}

func (p *donePredicate) ExplainMatch(t *task.Task) string {
	return "status is " + string(t.Status)
}

func (p *donePredicate) ExplainMismatch(t *task.Task) string {
	return "status is " + string(t.Status)
}

type statusPredicate struct {
	leaf
	want task.Status
}

func (p *statusPredicate) Matches(t *task.Task) bool {
	return p.flip(t.Status == p.want)
}

func (p *statusPredicate) ExplainMatch(t *task.Task) string {
	return "status is " + string(t.Status)
}

func (p *statusPredicate) ExplainMismatch(t *task.Task) string {
	return "status is " + string(t.Status) + ", not " + string(p.want)
}

// datePredicate compares one optional timestamp against the resolved
// bound(s). A missing date fails presence tests and is excluded from
// directional comparisons - it never throws.
type datePredicate struct {
	leaf
	field task.DateField
	test  func(when time.Time) bool
}

func buildDatePredicate(n *FilterNode) (Predicate, error) {
	p := &datePredicate{leaf: leaf{node: n}, field: n.Field}

	switch n.Op {
	case OpHas:
		p.test = nil // presence only
	case OpBefore:
		bound := n.Date
		p.test = func(when time.Time) bool { return when.Before(bound) }
	case OpAfter:
		bound := n.Date
		p.test = func(when time.Time) bool { return when.After(bound) }
	case OpOn:
		bound := n.Date
		p.test = func(when time.Time) bool { return sameDay(when, bound) }
	case OpOnOrBefore:
		bound := n.Date
		p.test = func(when time.Time) bool { return sameDay(when, bound) || when.Before(bound) }
	case OpOnOrAfter:
		bound := n.Date
		p.test = func(when time.Time) bool { return sameDay(when, bound) || when.After(bound) }
	case OpBetween:
		lower, upper := n.Date, n.Date2
		p.test = func(when time.Time) bool {
			return !midnight(when).Before(lower) && !midnight(when).After(upper)
		}
	default:
		return nil, execErrorf("build date predicate", fmt.Errorf("%w: %q", errUnknownOperator, n.Op))
	}

	return p, nil
}

func (p *datePredicate) Matches(t *task.Task) bool {
	when := t.Date(p.field)

	if p.test == nil { // presence test
		return p.flip(when != nil)
	}

	if when == nil {
		return false // missing dates never satisfy directional comparisons
	}

	return p.flip(p.test(*when))
}

func (p *datePredicate) ExplainMatch(t *task.Task) string {
	when := t.Date(p.field)
	if when == nil {
		return "no " + string(p.field) + " date"
	}

	return string(p.field) + " date is " + when.Format(canonicalDate)
}

func (p *datePredicate) ExplainMismatch(t *task.Task) string {
	when := t.Date(p.field)
	if when == nil {
		return "no " + string(p.field) + " date"
	}

	return string(p.field) + " date is " + when.Format(canonicalDate)
}

func sameDay(a, b time.Time) bool {
	return midnight(a).Equal(midnight(b))
}

type priorityPredicate struct {
	leaf
	test func(task.Priority) bool
}

func buildPriorityPredicate(n *FilterNode) (Predicate, error) {
	level := n.Level

	p := &priorityPredicate{leaf: leaf{node: n}}

	switch n.Op {
	case OpIs:
		p.test = func(have task.Priority) bool { return have == level }
	case OpAbove:
		p.test = func(have task.Priority) bool { return have > level }
	case OpBelow:
		p.test = func(have task.Priority) bool { return have < level }
	case OpAtLeast:
		p.test = func(have task.Priority) bool { return have >= level }
	case OpAtMost:
		p.test = func(have task.Priority) bool { return have <= level }
	default:
		return nil, execErrorf("build priority predicate", fmt.Errorf("%w: %q", errUnknownOperator, n.Op))
	}

	return p, nil
}

func (p *priorityPredicate) Matches(t *task.Task) bool {
	return p.flip(p.test(t.Priority))
}

func (p *priorityPredicate) ExplainMatch(t *task.Task) string {
	return "priority is " + t.Priority.String()
}

func (p *priorityPredicate) ExplainMismatch(t *task.Task) string {
	return "priority is " + t.Priority.String()
}

// scorePredicate compares an externally computed score against a
// threshold. A nil scorer is a soft-fail: the filter matches nothing.
type scorePredicate struct {
	leaf
	score func(*task.Task) float64
	test  func(float64) bool
}

func buildScorePredicate(n *FilterNode, score func(*task.Task) float64) (Predicate, error) {
	threshold := n.Number

	p := &scorePredicate{leaf: leaf{node: n}, score: score}

	switch n.Op {
	case OpIs:
		p.test = func(have float64) bool { return have == threshold }
	case OpAbove:
		p.test = func(have float64) bool { return have > threshold }
	case OpBelow:
		p.test = func(have float64) bool { return have < threshold }
	case OpAtLeast:
		p.test = func(have float64) bool { return have >= threshold }
	case OpAtMost:
		p.test = func(have float64) bool { return have <= threshold }
	default:
		return nil, execErrorf("build score predicate", fmt.Errorf("%w: %q", errUnknownOperator, n.Op))
	}

	return p, nil
}

func (p *scorePredicate) Matches(t *task.Task) bool {
	if p.score == nil {
		return false
	}

	return p.test(p.score(t))
}

func (p *scorePredicate) ExplainMatch(t *task.Task) string {
	return p.node.scoreName() + " is " + p.formatScore(t)
}

func (p *scorePredicate) ExplainMismatch(t *task.Task) string {
	if p.score == nil {
		return "no " + p.node.scoreName() + " scorer configured"
	}

	return p.node.scoreName() + " is " + p.formatScore(t)
}

func (p *scorePredicate) formatScore(t *task.Task) string {
	return strconv.FormatFloat(p.score(t), 'f', 2, 64)
}

// lanePredicate tests the attention lane assigned by the external
// profile provider. No provider means no task is in any lane.
type lanePredicate struct {
	leaf
	lane func(*task.Task) string
}

func (p *lanePredicate) Matches(t *task.Task) bool {
	if p.lane == nil {
		return false
	}

	return p.flip(p.lane(t) == p.node.Value)
}

func (p *lanePredicate) ExplainMatch(t *task.Task) string {
	return "lane is " + p.lane(t)
}

func (p *lanePredicate) ExplainMismatch(t *task.Task) string {
	if p.lane == nil {
		return "no attention profile configured"
	}

	return "lane is " + p.lane(t)
}

type tagPredicate struct {
	leaf
}

func (p *tagPredicate) Matches(t *task.Task) bool {
	if p.node.Op == OpHas {
		return p.flip(len(t.Tags) > 0)
	}

	return p.flip(t.HasTag(p.node.Value))
}

func (p *tagPredicate) ExplainMatch(t *task.Task) string {
	return p.describeTags(t)
}

func (p *tagPredicate) ExplainMismatch(t *task.Task) string {
	return p.describeTags(t)
}

func (p *tagPredicate) describeTags(t *task.Task) string {
	if len(t.Tags) == 0 {
		return "task has no tags"
	}

	return "tags are " + strings.Join(t.Tags, ", ")
}

// regexPredicate matches a validated pattern against tags, path or
// description. If the pattern somehow fails to compile at run time the
// match fails instead of throwing.
type regexPredicate struct {
	leaf
	re  *regexp.Regexp
	get func(*task.Task) []string
}

func buildRegexPredicate(n *FilterNode) (Predicate, error) {
	p := &regexPredicate{leaf: leaf{node: n}}

	// Validated at parse time; a nil re soft-fails every match.
	if re, err := regexp.Compile(n.Pattern); err == nil {
		p.re = re
	}

	switch n.Kind {
	case FilterTagRegex:
		p.get = func(t *task.Task) []string { return t.Tags }
	case FilterPathRegex:
		p.get = func(t *task.Task) []string { return []string{t.Path} }
	default:
		p.get = func(t *task.Task) []string { return []string{t.Name} }
	}

	return p, nil
}

func (p *regexPredicate) Matches(t *task.Task) bool {
	if p.re == nil {
		return false
	}

	matched := false

	for _, s := range p.get(t) {
		if p.re.MatchString(s) {
			matched = true

			break
		}
	}

	return p.flip(matched)
}

func (p *regexPredicate) ExplainMatch(t *task.Task) string {
	return "matches " + p.node.Value
}

func (p *regexPredicate) ExplainMismatch(t *task.Task) string {
	if p.re == nil {
		return "pattern " + p.node.Value + " is not usable"
	}

	return "does not match " + p.node.Value
}

// textPredicate is the case-insensitive substring filter over path,
// description or heading.
type textPredicate struct {
	leaf
	get func(*task.Task) string
}

func textGetter(kind FilterKind) func(*task.Task) string {
	switch kind {
	case FilterPath:
		return func(t *task.Task) string { return t.Path }
	case FilterHeading:
		return func(t *task.Task) string { return t.Heading }
	default:
		return func(t *task.Task) string { return t.Name }
	}
}

func (p *textPredicate) Matches(t *task.Task) bool {
	have := strings.ToLower(p.get(t))
	want := strings.ToLower(p.node.Value)

	return p.flip(strings.Contains(have, want))
}

func (p *textPredicate) ExplainMatch(t *task.Task) string {
	return fmt.Sprintf("%q contains %q", p.get(t), p.node.Value)
}

func (p *textPredicate) ExplainMismatch(t *task.Task) string {
	return fmt.Sprintf("%q does not contain %q", p.get(t), p.node.Value)
}

// dependencyPredicate asks the dependency graph. Absent graph means the
// filter matches nothing (soft-fail, never fatal).
type dependencyPredicate struct {
	leaf
	graph *task.DependencyGraph
}

func (p *dependencyPredicate) Matches(t *task.Task) bool {
	if p.graph == nil {
		return false
	}

	if p.node.Op == OpBlocked {
		return p.flip(p.graph.IsBlocked(t))
	}

	return p.flip(p.graph.IsBlocking(t))
}

func (p *dependencyPredicate) ExplainMatch(t *task.Task) string {
	if p.node.Op == OpBlocked {
		if blockers := p.graph.BlockedBy(t); len(blockers) > 0 {
			return "blocked by " + strings.Join(blockers, ", ")
		}

		return "not blocked"
	}

	if p.graph.IsBlocking(t) {
		return "blocking other tasks"
	}

	return "not blocking"
}

func (p *dependencyPredicate) ExplainMismatch(t *task.Task) string {
	if p.graph == nil {
		return "no dependency graph available"
	}

	return p.ExplainMatch(t)
}

type recurrencePredicate struct {
	leaf
}

func (p *recurrencePredicate) Matches(t *task.Task) bool {
	if p.node.Op == OpRecurring {
		return p.flip(t.IsRecurring())
	}

	return p.flip(strings.Contains(strings.ToLower(t.Recurrence), strings.ToLower(p.node.Value)))
}

func (p *recurrencePredicate) ExplainMatch(t *task.Task) string {
	return p.describe(t)
}

func (p *recurrencePredicate) ExplainMismatch(t *task.Task) string {
	return p.describe(t)
}

func (p *recurrencePredicate) describe(t *task.Task) string {
	if !t.IsRecurring() {
		return "task does not recur"
	}

	return "recurs " + t.Recurrence
}
