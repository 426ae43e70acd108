package query

import (
	"strconv"
	"strings"
	"time"

	"tq/internal/task"
)

// FilterKind tags a FilterNode variant. Leaf kinds describe one predicate
// over one field category; the three boolean kinds own child nodes.
type FilterKind uint8

// Filter kinds.
const (
	FilterStatus FilterKind = iota
	FilterDone
	FilterDate
	FilterPriority
	FilterUrgency
	FilterEscalation
	FilterAttention
	FilterLane
	FilterTag
	FilterTagRegex
	FilterPath
	FilterPathRegex
	FilterDescription
	FilterDescriptionRegex
	FilterHeading
	FilterDependency
	FilterRecurrence

	FilterAnd
	FilterOr
	FilterNot
)

// Operator words shared across leaf kinds. Negation is carried by
// [FilterNode.Negate], so only base forms appear here.
const (
	OpIs         = "is"
	OpBefore     = "before"
	OpAfter      = "after"
	OpOn         = "on"
	OpOnOrBefore = "on or before"
	OpOnOrAfter  = "on or after"
	OpBetween    = "between"
	OpHas        = "has"
	OpAbove      = "above"
	OpBelow      = "below"
	OpAtLeast    = "at least"
	OpAtMost     = "at most"
	OpIncludes   = "includes"
	OpMatches    = "matches"
	OpBlocked    = "blocked"
	OpBlocking   = "blocking"
	OpRecurring  = "recurring"
	OpDone       = "done"
)

// FilterNode is one node of the query AST: a tagged union of leaf
// predicates and boolean combinators. Children are owned outright; the
// tree never contains shared nodes or back references, so structural
// equality reduces to comparing [FilterNode.Canonical] strings.
type FilterNode struct {
	Kind FilterKind

	// Leaf payload. Which fields are meaningful depends on Kind.
	Field   task.DateField // date field for FilterDate
	Op      string         // base operator word
	Value   string         // raw value text as written (canonical form)
	Negate  bool           // leaf-level negation ("is not", "does not include")
	Date    time.Time      // resolved date (FilterDate)
	Date2   time.Time      // upper bound for "between"
	Number  float64        // threshold for score filters
	Level   task.Priority  // ordinal for FilterPriority
	Pattern string         // validated Go regexp source for *Regex kinds

	// Boolean children. And/Or use Left+Right, Not uses Inner.
	Left  *FilterNode
	Right *FilterNode
	Inner *FilterNode
}

// IsBoolean reports whether the node is an AND/OR/NOT combinator.
func (n *FilterNode) IsBoolean() bool {
	return n.Kind == FilterAnd || n.Kind == FilterOr || n.Kind == FilterNot
}

// canonicalDate is the day-resolution date format used in canonical text.
const canonicalDate = "2006-01-02"

// Canonical returns a deterministic textual form of the node that the
// parser accepts back. Dates render absolute, so the canonical form is
// independent of the reference time the query was parsed with. Used for
// cache keys and for explanation headings.
func (n *FilterNode) Canonical() string {
	switch n.Kind {
	case FilterAnd:
		return "(" + n.Left.Canonical() + ") AND (" + n.Right.Canonical() + ")"
	case FilterOr:
		return "(" + n.Left.Canonical() + ") OR (" + n.Right.Canonical() + ")"
	case FilterNot:
		return "NOT (" + n.Inner.Canonical() + ")"
	case FilterDone:
		if n.Negate {
			return "not done"
		}

		return "done"
	case FilterStatus:
		return "status " + isForm(n.Negate) + " " + n.Value
	case FilterDate:
		return n.canonicalDateFilter()
	case FilterPriority:
		return n.canonicalPriority()
	case FilterUrgency, FilterEscalation, FilterAttention:
		return n.scoreName() + " " + n.Op + " " + strconv.FormatFloat(n.Number, 'g', -1, 64)
	case FilterLane:
		return "lane " + isForm(n.Negate) + " " + n.Value
	case FilterTag:
		if n.Op == OpHas {
			if n.Negate {
				return "no tags"
			}

			return "has tags"
		}

		// Plural subject: the grammar reads "tags include", not "includes".
		if n.Negate {
			return "tags do not include " + n.Value
		}

		return "tags include " + n.Value
	case FilterTagRegex:
		return "tags regex " + matchForm(n.Negate) + " " + n.Value
	case FilterPath:
		return "path " + includeForm(n.Negate) + " " + n.Value
	case FilterPathRegex:
		return "path regex " + matchForm(n.Negate) + " " + n.Value
	case FilterDescription:
		return "description " + includeForm(n.Negate) + " " + n.Value
	case FilterDescriptionRegex:
		return "description regex " + matchForm(n.Negate) + " " + n.Value
	case FilterHeading:
		return "heading " + includeForm(n.Negate) + " " + n.Value
	case FilterDependency:
		return "is " + notForm(n.Negate) + n.Op
	case FilterRecurrence:
		if n.Op == OpRecurring {
			return "is " + notForm(n.Negate) + "recurring"
		}

		return "recurrence " + includeForm(n.Negate) + " " + n.Value
	default:
		return "<invalid filter>"
	}
}

func (n *FilterNode) canonicalDateFilter() string {
	field := string(n.Field)

	switch n.Op {
	case OpHas:
		if n.Negate {
			return "no " + field + " date"
		}

		return "has " + field + " date"
	case OpBetween:
		return field + " between " + n.Date.Format(canonicalDate) + " and " + n.Date2.Format(canonicalDate)
	default:
		return field + " " + n.Op + " " + n.Date.Format(canonicalDate)
	}
}

func (n *FilterNode) canonicalPriority() string {
	switch n.Op {
	case OpIs:
		return "priority " + isForm(n.Negate) + " " + n.Level.String()
	default:
		return "priority " + n.Op + " " + n.Level.String()
	}
}

func (n *FilterNode) scoreName() string {
	switch n.Kind {
	case FilterUrgency:
		return "urgency"
	case FilterEscalation:
		return "escalation"
	default:
		return "attention"
	}
}

func isForm(negate bool) string {
	if negate {
		return "is not"
	}

	return "is"
}

func includeForm(negate bool) string {
	if negate {
		return "does not include"
	}

	return "includes"
}

func matchForm(negate bool) string {
	if negate {
		return "does not match"
	}

	return "matches"
}

func notForm(negate bool) string {
	if negate {
		return "not "
	}

	return ""
}

// SortKey is one field of a sort instruction.
type SortKey struct {
	Field   string
	Reverse bool
}

// SortSpec is a non-empty ordered list of sort keys. The first key is the
// primary ordering; later keys break exact ties in declared order.
type SortSpec struct {
	Keys []SortKey
}

// Primary returns the first key, for callers that only understand
// single-field sorting.
func (s *SortSpec) Primary() SortKey {
	return s.Keys[0]
}

// Canonical renders the sort instruction.
func (s *SortSpec) Canonical() string {
	parts := make([]string, len(s.Keys))

	for i, k := range s.Keys {
		parts[i] = k.Field
		if k.Reverse {
			parts[i] += " reverse"
		}
	}

	return "sort by " + strings.Join(parts, ", ")
}

// GroupSpec names the single field the final sequence is partitioned by.
type GroupSpec struct {
	Field string
}

// Canonical renders the group instruction.
func (g *GroupSpec) Canonical() string {
	return "group by " + g.Field
}

// Query is the parsed AST of one query string. Filters combine with
// logical AND; their order never changes the result set, only the order
// of per-filter explanations.
type Query struct {
	Filters []*FilterNode
	Sort    *SortSpec
	Group   *GroupSpec
	Limit   int // 0 means no limit
	Explain bool

	// Directive flags, stripped before instruction parsing.
	IgnoreGlobal bool
	Profile      string
}

// Canonical returns a deterministic re-parseable rendering of the query.
// Structurally identical queries produce identical canonical strings, so
// this doubles as the result-cache key material.
func (q *Query) Canonical() string {
	var lines []string

	for _, f := range q.Filters {
		lines = append(lines, f.Canonical())
	}

	if q.Sort != nil {
		lines = append(lines, q.Sort.Canonical())
	}

	if q.Group != nil {
		lines = append(lines, q.Group.Canonical())
	}

	if q.Limit > 0 {
		lines = append(lines, "limit "+strconv.Itoa(q.Limit))
	}

	return strings.Join(lines, "\n")
}
