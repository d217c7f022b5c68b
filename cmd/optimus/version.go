package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/optimus/internal/version"
)

func newVersionCmd() *cobra.Command {
	var withDirty bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := version.Current()
			if withDirty {
				current = version.CurrentWithDirty()
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Module(), current)
			return err
		},
	}
	cmd.Flags().BoolVar(&withDirty, "dirty", false, "include the +dirty suffix for modified builds")
	return cmd
}
