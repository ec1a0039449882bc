package main

import (
	"fmt"
	"io"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

func newStatCommand(opts *globalOptions) *cobra.Command {
	var noFollow bool

	cmd := &cobra.Command{
		Use:   "stat ARCHIVE PATH...",
		Short: "Describe entries",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(args[0], opts, func(a *ustar.Archive) error {
				for _, path := range args[1:] {
					stat := a.Stat
					if noFollow {
						stat = a.Lstat
					}
					e, err := stat(path)
					if err != nil {
						return err
					}
					printEntry(cmd.OutOrStdout(), path, e)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&noFollow, "no-dereference", "P", false, "Describe links instead of their targets")
	return cmd
}

func printEntry(w io.Writer, path string, e ustar.Entry) {
	fmt.Fprintf(w, "  Path: %s\n", path)
	fmt.Fprintf(w, "  Name: %s\n", e.Name)
	if e.Linkname != "" {
		fmt.Fprintf(w, "  Link: %s\n", e.Linkname)
	}
	fmt.Fprintf(w, "  Kind: %s\n", e.Kind)
	fmt.Fprintf(w, "  Size: %d (%s)\n", e.Size, units.BytesSize(float64(e.Size)))
	fmt.Fprintf(w, "  Mode: %s\n", e.Info().Mode())
	fmt.Fprintf(w, "   Uid: %d  Gid: %d\n", e.UID, e.GID)
	if e.Offset >= 0 {
		fmt.Fprintf(w, "Offset: %d\n", e.Offset)
		fmt.Fprintf(w, "Modify: %s\n", e.ModTime.UTC().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintln(w, "Offset: implicit")
	}
}
