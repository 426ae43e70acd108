package cli

import (
	"errors"
	"io"

	"tq/internal/query"

	flag "github.com/spf13/pflag"
)

var errDiffNeedsTwoFiles = errors.New("diff needs exactly two snapshot files")

func cmdDiff(o *IO, args []string) error {
	if hasHelpFlag(args) {
		printDiffHelp(o)

		return nil
	}

	flagSet := flag.NewFlagSet("diff", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	summaryOnly := flagSet.Bool("summary", false, "Print the one-line summary only")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) != 2 {
		return errDiffNeedsTwoFiles
	}

	before, err := query.LoadExplanation(rest[0])
	if err != nil {
		return err
	}

	after, err := query.LoadExplanation(rest[1])
	if err != nil {
		return err
	}

	diff := query.DiffExplanations(before, after)

	if *summaryOnly {
		o.Println(diff.Summary())

		return nil
	}

	o.Printf("%s", diff.Markdown())

	return nil
}

func printDiffHelp(o *IO) {
	o.Println("Usage: tq diff [options] <before> <after>")
	o.Println("")
	o.Println("Compare two explanation snapshots written by 'tq explain --save'.")
	o.Println("Each task lands in exactly one bucket: now matched, now unmatched,")
	o.Println("still matched, or still unmatched.")
	o.Println("")
	o.Println("Options:")
	o.Println("  --summary   Print the one-line summary only")
}
