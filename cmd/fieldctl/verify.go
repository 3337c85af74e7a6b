package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify LOCATION...",
		Short: "Validate layer sizes and checksums",
		Long: `verify walks every stream, checking the headers, each declared payload
size and each payload checksum. It fails on the first broken stream.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				r, err := a.inspect(cmd, raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK %s: %d layers, %s\n", raw, len(r.Layers), humanize.IBytes(uint64(r.Size)))
			}
			return nil
		},
	}
}
