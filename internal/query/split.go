package query

import (
	"regexp"
	"strings"
)

// Alias normalization applied before boolean parsing:
//
//	&&            -> AND
//	||            -> OR
//	except        -> AND NOT
//	leading -/!   -> NOT (at line start, after '(' or after AND/OR/NOT)
var (
	exceptRe = regexp.MustCompile(`(?i)\bexcept\b`)
	negateRe = regexp.MustCompile(`(?i)(^|\(|\bAND\b|\bOR\b|\bNOT\b)(\s*)[-!]\s*`)
)

func normalizeBooleans(line string) string {
	s := strings.ReplaceAll(line, "&&", " AND ")
	s = strings.ReplaceAll(s, "||", " OR ")
	s = exceptRe.ReplaceAllString(s, "AND NOT")

	// Repeat so stacked negations ("!!x") and negations exposed by an
	// earlier rewrite all resolve. Bounded: each pass removes a '-'/'!'.
	for {
		next := negateRe.ReplaceAllString(s, "${1}${2}NOT ")
		if next == s {
			break
		}

		s = next
	}

	return strings.Join(strings.Fields(s), " ")
}

// hasBooleanStructure reports whether a normalized line needs recursive
// boolean parsing rather than a single atomic parse. Operator words
// inside atomic constructs ("between X and Y", "on or before") do not
// count; see protectedSplit.
func hasBooleanStructure(line string) bool {
	if strings.ContainsAny(line, "()") {
		return true
	}

	first, _, _ := strings.Cut(line, " ")
	if strings.EqualFold(first, "NOT") {
		return true
	}

	return len(splitTopLevel(line, "OR")) > 1 || len(splitTopLevel(line, "AND")) > 1
}

// splitTopLevel splits s on the given operator word at parenthesis depth
// zero. Matching is case-insensitive and word-bounded. Operator words
// that belong to an atomic construct are not split points; see
// protectedSplit.
func splitTopLevel(s, op string) []string {
	var (
		parts []string
		buf   strings.Builder
	)

	depth := 0

	for i := 0; i < len(s); {
		c := s[i]

		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}

		if depth == 0 && isWordStart(s, i) {
			word, end := wordAt(s, i)
			if strings.EqualFold(word, op) && !protectedSplit(op, buf.String()) {
				parts = append(parts, strings.TrimSpace(buf.String()))
				buf.Reset()
				i = end

				continue
			}
		}

		buf.WriteByte(c)
		i++
	}

	parts = append(parts, strings.TrimSpace(buf.String()))

	return parts
}

// protectedSplit reports whether an operator occurrence closes an atomic
// construct instead of joining two expressions: the "and" of an open
// "between X and Y" range, and the "or" of the "on or before" /
// "on or after" date operators. These are word heuristics, so a filter
// value that literally ends with "between" or "on" defeats them (tested).
func protectedSplit(op, left string) bool {
	switch {
	case strings.EqualFold(op, "AND"):
		return pendingBetween(left)
	case strings.EqualFold(op, "OR"):
		return endsWithOn(left)
	default:
		return false
	}
}

// pendingBetween reports whether the left-hand buffer ends inside an open
// "between X and Y" range: a "between" word with no "and" after it.
func pendingBetween(left string) bool {
	pending := false

	for _, w := range strings.Fields(strings.ToLower(left)) {
		switch w {
		case "between":
			pending = true
		case "and":
			pending = false
		}
	}

	return pending
}

// endsWithOn reports whether the left-hand buffer ends with the word
// "on", meaning the following "or" spells "on or before"/"on or after".
func endsWithOn(left string) bool {
	fields := strings.Fields(left)

	return len(fields) > 0 && strings.EqualFold(fields[len(fields)-1], "on")
}

func isWordStart(s string, i int) bool {
	if !isWordByte(s[i]) {
		return false
	}

	return i == 0 || !isWordByte(s[i-1])
}

func wordAt(s string, i int) (string, int) {
	end := i
	for end < len(s) && isWordByte(s[end]) {
		end++
	}

	return s[i:end], end
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
