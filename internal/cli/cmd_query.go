package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tq/internal/query"
	"tq/internal/task"

	flag "github.com/spf13/pflag"
)

var errNoQuery = errors.New("no query given (pass a file, use -q, or pipe to stdin)")

// queryOptions holds parsed query/explain command options.
type queryOptions struct {
	queryText string
	nowText   string
	context   []string
	savePath  string
	file      string
}

func cmdQuery(o *IO, cfg task.Config, args []string) error {
	if hasHelpFlag(args) {
		printQueryHelp(o)

		return nil
	}

	opts, err := parseQueryFlags("query", args, false)
	if err != nil {
		return err
	}

	return runQuery(o, cfg, opts, false)
}

func cmdExplain(o *IO, cfg task.Config, args []string) error {
	if hasHelpFlag(args) {
		printExplainHelp(o)

		return nil
	}

	opts, err := parseQueryFlags("explain", args, true)
	if err != nil {
		return err
	}

	return runQuery(o, cfg, opts, true)
}

func parseQueryFlags(name string, args []string, withSave bool) (queryOptions, error) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	queryText := flagSet.StringP("query", "q", "", "Query text (newlines separate instructions)")
	nowText := flagSet.String("now", "", "Reference date (YYYY-MM-DD), defaults to today")
	context := flagSet.StringArray("set", nil, "Placeholder value as key=value (repeatable)")

	var savePath *string
	if withSave {
		savePath = flagSet.String("save", "", "Write the explanation snapshot to this file")
	}

	if err := flagSet.Parse(args); err != nil {
		return queryOptions{}, err
	}

	opts := queryOptions{
		queryText: *queryText,
		nowText:   *nowText,
		context:   *context,
	}

	if savePath != nil {
		opts.savePath = *savePath
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		opts.file = rest[0]
	}

	return opts, nil
}

func runQuery(o *IO, cfg task.Config, opts queryOptions, forceExplain bool) error {
	text, err := resolveQueryText(opts)
	if err != nil {
		return err
	}

	now, err := resolveNow(opts.nowText)
	if err != nil {
		return err
	}

	parseOpts, err := buildParseOptions(opts.context)
	if err != nil {
		return err
	}

	q, err := query.Parse(text, now, parseOpts)
	if err != nil {
		return err
	}

	if forceExplain {
		q.Explain = true
	}

	sess, err := newSession(cfg, now)
	if err != nil {
		return err
	}

	result, err := sess.engine.Execute(q, now)
	if err != nil {
		return err
	}

	printResult(o, result)

	if result.Explanation != nil && opts.savePath != "" {
		if saveErr := query.SaveExplanation(opts.savePath, result.Explanation); saveErr != nil {
			return saveErr
		}

		o.Println()
		o.Println("snapshot written to", opts.savePath)
	}

	return nil
}

// resolveQueryText picks the query source: -q text wins, then a file
// argument, then stdin when piped ("-" forces stdin).
func resolveQueryText(opts queryOptions) (string, error) {
	if opts.queryText != "" {
		return opts.queryText, nil
	}

	if opts.file == "" {
		return "", errNoQuery
	}

	if opts.file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(opts.file) //nolint:gosec // path comes from args
	if err != nil {
		return "", fmt.Errorf("reading query file: %w", err)
	}

	return string(data), nil
}

func resolveNow(text string) (time.Time, error) {
	if text == "" {
		return time.Now(), nil
	}

	now, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be YYYY-MM-DD: %w", err)
	}

	return now, nil
}

func buildParseOptions(pairs []string) (*query.ParseOptions, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--set expects key=value, got %q", pair)
		}

		values[key] = value
	}

	return &query.ParseOptions{Context: values}, nil
}

func printResult(o *IO, result *query.Result) {
	if result.Explanation != nil {
		o.Printf("%s", result.Explanation.Markdown())

		return
	}

	if result.Groups != nil {
		for _, key := range result.Groups.Keys {
			o.Println("##", key)

			for _, t := range result.Groups.Groups[key] {
				o.Println(formatTaskLine(&t))
			}

			o.Println()
		}
	} else {
		for i := range result.Tasks {
			o.Println(formatTaskLine(&result.Tasks[i]))
		}
	}

	o.Printf("%d of %d tasks\n", len(result.Tasks), result.TotalCount)
}

func formatTaskLine(t *task.Task) string {
	var builder strings.Builder

	builder.WriteString(t.ID)
	builder.WriteString(" [")
	builder.WriteString(string(t.Status))
	builder.WriteString("] (")
	builder.WriteString(t.Priority.String())
	builder.WriteString(") ")
	builder.WriteString(t.Name)

	if t.Due != nil {
		builder.WriteString(" due:")
		builder.WriteString(t.Due.Format("2006-01-02"))
	}

	if len(t.Tags) > 0 {
		builder.WriteString(" #")
		builder.WriteString(strings.Join(t.Tags, " #"))
	}

	return builder.String()
}

func printQueryHelp(o *IO) {
	o.Println("Usage: tq query [options] [file]")
	o.Println("")
	o.Println("Run a query against the tasks file. The query comes from the file")
	o.Println("argument, stdin (pass \"-\"), or the -q flag. Each line is one")
	o.Println("instruction: a filter, sort by, group by, limit, or explain.")
	o.Println("")
	o.Println("Options:")
	o.Println("  -q, --query <text>   Query text (newlines separate instructions)")
	o.Println("  --now <date>         Reference date (YYYY-MM-DD) [default: today]")
	o.Println("  --set key=value      Fill a {{key}} placeholder (repeatable)")
}

func printExplainHelp(o *IO) {
	o.Println("Usage: tq explain [options] [file]")
	o.Println("")
	o.Println("Run a query with per-filter match explanations for every task,")
	o.Println("whether or not the query contains an explain line.")
	o.Println("")
	o.Println("Options:")
	o.Println("  -q, --query <text>   Query text (newlines separate instructions)")
	o.Println("  --now <date>         Reference date (YYYY-MM-DD) [default: today]")
	o.Println("  --set key=value      Fill a {{key}} placeholder (repeatable)")
	o.Println("  --save <file>        Write the explanation snapshot for later diffing")
}
