package main

import (
	"github.com/mrsinham/dicomtree/cmd/dicomtree/tui"
	"github.com/spf13/cobra"
)

func newBrowseCmd(a *app) *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "browse [root]",
		Short: "Pick a patient and a study interactively and show its tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.scan(cmd, args, flags, nil)
			if err != nil {
				return err
			}
			return tui.Browse(out.Collection, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	return cmd
}
