// Command ustar inspects ustar archives without extracting them.
//
// Archives may be local files (optionally gzip or zstd compressed) or
// http(s) URLs served with range request support.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

// exitError carries a process exit status out of a command.
// err is printed to stderr when set.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type globalOptions struct {
	strict   bool
	maxHops  int
	logLevel string

	logger *slog.Logger
}

// archiveOptions converts the persistent flags into Archive options.
func (o *globalOptions) archiveOptions() []ustar.Option {
	return []ustar.Option{
		ustar.WithStrictPaths(o.strict),
		ustar.WithMaxLinkHops(o.maxHops),
		ustar.WithLogger(o.logger),
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "ustar",
		Short:         "Inspect ustar archives in place",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
			}
			opts.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.strict, "strict", false, "Match paths at \"/\" boundaries only")
	flags.IntVar(&opts.maxHops, "max-hops", ustar.DefaultMaxLinkHops, "Maximum links followed per lookup")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCheckCommand(opts),
		newListCommand(opts),
		newCatCommand(opts),
		newStatCommand(opts),
		newTestCommand(opts),
		newSumCommand(opts),
	)
	return cmd
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "ustar: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "ustar: %v\n", err)
	return 1
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
