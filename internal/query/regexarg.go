package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// regexHint is the usage hint attached to regex SyntaxErrors.
const regexHint = "expected /pattern/ with optional i, m, s flags, or a plain string"

var (
	errBadRegex     = errors.New("invalid regular expression")
	errBadRegexFlag = errors.New("unknown regex flag")
)

// ParseRegexValue turns a filter value into a validated Go regexp source.
//
// A delimited literal (/pattern/flags) is taken as a regular expression;
// recognized flags are i (case-insensitive), m (multi-line) and s
// (dot matches newline), folded into an inline (?ims) group. Anything
// else - quoted or bare - is treated as a literal string and quoted.
//
// The returned source always compiles; invalid patterns or flags error
// here, at parse time. Predicates still guard against compile failure at
// run time and fail the match instead of throwing.
func ParseRegexValue(text string) (string, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return "", fmt.Errorf("%w: empty value", errBadRegex)
	}

	if strings.HasPrefix(value, "/") {
		end := strings.LastIndex(value, "/")
		if end == 0 {
			return "", fmt.Errorf("%w: missing closing '/'", errBadRegex)
		}

		pattern := value[1:end]
		flags := value[end+1:]

		prefix, err := flagPrefix(flags)
		if err != nil {
			return "", err
		}

		source := prefix + pattern

		if _, err := regexp.Compile(source); err != nil {
			return "", fmt.Errorf("%w: %v", errBadRegex, err)
		}

		return source, nil
	}

	// Quoted or bare literal.
	if len(value) >= 2 {
		for _, quote := range []string{`"`, `'`} {
			if strings.HasPrefix(value, quote) && strings.HasSuffix(value, quote) {
				value = value[1 : len(value)-1]

				break
			}
		}
	}

	return regexp.QuoteMeta(value), nil
}

func flagPrefix(flags string) (string, error) {
	if flags == "" {
		return "", nil
	}

	var inline strings.Builder

	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if strings.ContainsRune(inline.String(), f) {
				continue
			}

			inline.WriteRune(f)
		default:
			return "", fmt.Errorf("%w: %q", errBadRegexFlag, string(f))
		}
	}

	return "(?" + inline.String() + ")", nil
}
