package main

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/meigma/ustar"
)

func newCatCommand(opts *globalOptions) *cobra.Command {
	var (
		offset int64
		buffer string
	)

	cmd := &cobra.Command{
		Use:   "cat ARCHIVE PATH",
		Short: "Write a file's content to stdout",
		Long: `Write the content of a regular file to stdout, following links.

The file is read in chunks of --buffer bytes, one archive scan per chunk.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := units.RAMInBytes(buffer)
			if err != nil {
				return fmt.Errorf("invalid --buffer %q: %w", buffer, err)
			}
			if size <= 0 {
				return fmt.Errorf("invalid --buffer %q: must be positive", buffer)
			}
			return withArchive(args[0], opts, func(a *ustar.Archive) error {
				return catFile(cmd, a, args[1], offset, make([]byte, size))
			})
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "Byte offset to start reading at")
	cmd.Flags().StringVar(&buffer, "buffer", "32KiB", "Chunk size, e.g. 512, 4k, 1MiB")
	return cmd
}

func catFile(cmd *cobra.Command, a *ustar.Archive, path string, off int64, buf []byte) error {
	// Empty files have no valid offset; there is nothing to write.
	if off == 0 {
		e, err := a.Stat(path)
		if err != nil {
			return err
		}
		if e.Kind == ustar.KindFile && e.Size == 0 {
			return nil
		}
	}
	out := cmd.OutOrStdout()
	for {
		n, remaining, err := a.ReadFileAt(path, off, buf)
		if err != nil {
			return err
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return err
		}
		if remaining == 0 {
			return nil
		}
		off += int64(n)
	}
}
