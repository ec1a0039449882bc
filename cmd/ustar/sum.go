package main

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

func newSumCommand(opts *globalOptions) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "sum ARCHIVE PATH...",
		Short: "Print content digests of files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg := digest.Algorithm(algorithm)
			if !alg.Available() {
				return fmt.Errorf("%w: %s", digest.ErrDigestUnsupported, algorithm)
			}
			return withArchive(args[0], opts, func(a *ustar.Archive) error {
				for _, path := range args[1:] {
					d, err := a.Digest(path, alg)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d, path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(digest.Canonical), "Digest algorithm (sha256, sha384, sha512)")
	return cmd
}
