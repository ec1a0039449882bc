package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	var (
		long     bool
		capacity int
	)

	cmd := &cobra.Command{
		Use:     "ls ARCHIVE [PATH]",
		Aliases: []string{"list"},
		Short:   "List the direct children of a directory",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return withArchive(args[0], opts, func(a *ustar.Archive) error {
				entries, err := a.ListEntries(path, capacity)
				if err != nil && !errors.Is(err, ustar.ErrTruncated) {
					return err
				}
				out := cmd.OutOrStdout()
				if long {
					printLong(out, entries)
				} else {
					for _, e := range entries {
						fmt.Fprintln(out, e.Name)
					}
				}
				if err != nil {
					return &exitError{code: 1, err: fmt.Errorf("%w: showing first %d, raise --capacity", err, len(entries))}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show mode, size and modification time")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Maximum number of entries (0 for no limit)")
	return cmd
}

func printLong(w io.Writer, entries []ustar.Entry) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for _, e := range entries {
		name := e.Name
		if e.Linkname != "" {
			name += " -> " + e.Linkname
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Info().Mode(),
			units.HumanSize(float64(e.Size)),
			e.ModTime.UTC().Format("2006-01-02 15:04"),
			name,
		)
	}
	_ = tw.Flush() //nolint:errcheck // write errors surface on the next output
}
