package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

func newTestCommand(opts *globalOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "test ARCHIVE PATH",
		Short: "Exit 0 if an entry exists with the given type",
		Long: `Exit 0 if PATH names an entry of the requested type, 1 if not and 2 on
error. Types: e (exists), f (regular file), d (directory), l (symlink).
Links are not followed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			var probe func(*ustar.Archive, string) (bool, error)
			switch kind {
			case "e":
				probe = (*ustar.Archive).Exists
			case "f":
				probe = (*ustar.Archive).IsFile
			case "d":
				probe = (*ustar.Archive).IsDir
			case "l":
				probe = (*ustar.Archive).IsSymlink
			default:
				return &exitError{code: 2, err: fmt.Errorf("unknown type %q (want e, f, d or l)", kind)}
			}

			var ok bool
			err := withArchive(args[0], opts, func(a *ustar.Archive) error {
				var err error
				ok, err = probe(a, args[1])
				return err
			})
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if !ok {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "e", "Entry type: e, f, d or l")
	return cmd
}
