package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sort and group fields accepted by the parser. Execution dispatches on
// the same names, so parse-time validation keeps unknown fields out of
// the engine entirely.
var sortFields = map[string]bool{
	"id": true, "status": true, "priority": true, "urgency": true,
	"escalation": true, "attention": true, "due": true, "scheduled": true,
	"start": true, "created": true, "updated": true, "done": true,
	"description": true, "path": true, "heading": true,
}

var groupFields = map[string]bool{
	"status": true, "priority": true, "lane": true, "path": true,
	"heading": true, "due": true, "scheduled": true, "recurring": true,
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// ParseOptions carries optional parse inputs.
type ParseOptions struct {
	// Context resolves {{placeholder}} references before parsing.
	// A placeholder with no entry is a SyntaxError.
	Context map[string]string
}

// Parse parses a full query string into its AST. Dates in filters resolve
// against ref. Parsing is all-or-nothing: any malformed instruction
// returns a [*SyntaxError] and no AST.
func Parse(text string, ref time.Time, opts *ParseOptions) (*Query, error) {
	q := &Query{}

	lines := strings.Split(text, "\n")

	for i, raw := range lines {
		lineNo := i + 1

		line, err := resolvePlaceholders(raw, lineNo, opts)
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if consumed := q.consumeDirective(line); consumed {
			continue
		}

		if err := q.parseInstruction(line, lineNo, ref); err != nil {
			return nil, err
		}
	}

	return q, nil
}

func resolvePlaceholders(line string, lineNo int, opts *ParseOptions) (string, error) {
	var missing string

	resolved := placeholderRe.ReplaceAllStringFunc(line, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]

		if opts != nil {
			if value, ok := opts.Context[name]; ok {
				return value
			}
		}

		if missing == "" {
			missing = name
		}

		return m
	})

	if missing != "" {
		col := strings.Index(line, "{{") + 1

		return "", syntaxErrorf(lineNo, col, "define the placeholder in the query context", "unknown placeholder {{%s}}", missing)
	}

	return resolved, nil
}

// consumeDirective strips directive lines into AST flags. Directives are
// order-independent and never reach instruction parsing.
func (q *Query) consumeDirective(line string) bool {
	switch {
	case strings.EqualFold(line, "ignore global query"),
		line == "@ignoreGlobalFilter":
		q.IgnoreGlobal = true

		return true
	case strings.HasPrefix(line, "@profile "):
		q.Profile = strings.TrimSpace(strings.TrimPrefix(line, "@profile "))

		return true
	default:
		return false
	}
}

func (q *Query) parseInstruction(line string, lineNo int, ref time.Time) error {
	lower := strings.ToLower(line)

	switch {
	case lower == "explain":
		q.Explain = true

		return nil
	case strings.HasPrefix(lower, "sort by"):
		return q.parseSort(line, lineNo)
	case strings.HasPrefix(lower, "group by"):
		return q.parseGroup(line, lineNo)
	case strings.HasPrefix(lower, "limit"):
		return q.parseLimit(line, lineNo)
	default:
		node, err := parseFilterLine(line, lineNo, ref)
		if err != nil {
			return err
		}

		q.Filters = append(q.Filters, node)

		return nil
	}
}

// parseSort parses "sort by F [reverse](, F [reverse])*". The first key
// stays usable standalone for single-field callers; execution walks the
// full ordered list.
func (q *Query) parseSort(line string, lineNo int) error {
	rest := strings.TrimSpace(line[len("sort by"):])
	if rest == "" {
		return syntaxErrorf(lineNo, 1, "expected 'sort by <field> [reverse], ...'", "sort instruction needs at least one field")
	}

	spec := &SortSpec{}

	for _, part := range strings.Split(rest, ",") {
		fields := strings.Fields(strings.ToLower(part))

		key := SortKey{}

		switch len(fields) {
		case 1:
			key.Field = fields[0]
		case 2:
			if fields[1] != "reverse" {
				return syntaxErrorf(lineNo, 1, "only 'reverse' may follow a sort field", "unexpected %q after sort field %q", fields[1], fields[0])
			}

			key.Field = fields[0]
			key.Reverse = true
		default:
			return syntaxErrorf(lineNo, 1, "expected 'sort by <field> [reverse], ...'", "invalid sort key %q", strings.TrimSpace(part))
		}

		if !sortFields[key.Field] {
			return syntaxErrorf(lineNo, 1, "valid fields: "+fieldList(sortFields), "unknown sort field %q", key.Field)
		}

		spec.Keys = append(spec.Keys, key)
	}

	q.Sort = spec

	return nil
}

func (q *Query) parseGroup(line string, lineNo int) error {
	field := strings.ToLower(strings.TrimSpace(line[len("group by"):]))
	if field == "" {
		return syntaxErrorf(lineNo, 1, "expected 'group by <field>'", "group instruction needs a field")
	}

	if !groupFields[field] {
		return syntaxErrorf(lineNo, 1, "valid fields: "+fieldList(groupFields), "unknown group field %q", field)
	}

	q.Group = &GroupSpec{Field: field}

	return nil
}

// parseLimit accepts "limit N" and "limit to N tasks".
func (q *Query) parseLimit(line string, lineNo int) error {
	rest := strings.TrimSpace(line[len("limit"):])

	lower := strings.ToLower(rest)
	if strings.HasPrefix(lower, "to ") {
		rest = strings.TrimSpace(rest[len("to "):])
		lower = strings.ToLower(rest)

		if strings.HasSuffix(lower, " tasks") {
			rest = strings.TrimSpace(rest[:len(rest)-len(" tasks")])
		} else if strings.HasSuffix(lower, " task") {
			rest = strings.TrimSpace(rest[:len(rest)-len(" task")])
		}
	}

	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return syntaxErrorf(lineNo, 1, "expected 'limit N' or 'limit to N tasks'", "invalid limit %q", strings.TrimSpace(line[len("limit"):]))
	}

	q.Limit = n

	return nil
}

func fieldList(fields map[string]bool) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names) // deterministic hint text

	return strings.Join(names, ", ")
}
