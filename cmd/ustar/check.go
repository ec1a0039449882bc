package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/ustar"
)

type checkResult struct {
	count int
	err   error
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "check ARCHIVE...",
		Short: "Validate every header and report the entry count",
		Long: `Validate every header of each archive and print its entry count.

The exit status is 0 when all archives are valid. Otherwise it is the
magnitude of the status code of the first failing archive: 1 bad magic,
2 bad version, 3 bad checksum, 4 malformed numeric field, 5 I/O error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, len(args))

			var g errgroup.Group
			g.SetLimit(max(jobs, 1))
			for i, target := range args {
				g.Go(func() error {
					results[i].err = withArchive(target, opts, func(a *ustar.Archive) error {
						n, err := a.Check()
						results[i].count = n
						return err
					})
					return nil
				})
			}
			_ = g.Wait() //nolint:errcheck // workers record failures in results

			status := 0
			out := cmd.OutOrStdout()
			for i, target := range args {
				r := results[i]
				if r.err == nil {
					fmt.Fprintf(out, "%s: ok, %d entries\n", target, r.count)
					continue
				}
				code := ustar.Code(r.err)
				fmt.Fprintf(out, "%s: invalid after %d entries (code %d): %v\n", target, r.count, code, r.err)
				opts.logger.Debug("check failed", "archive", target, "code", code, "error", r.err)
				if status == 0 {
					status = -code
				}
			}
			if status != 0 {
				return &exitError{code: status}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Archives checked in parallel")
	return cmd
}
