package main

import (
	"github.com/spf13/cobra"

	"taskboard/internal/dispatch"
)

func boardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the workspace board column by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := opts.workspaceID()
			if err != nil {
				return err
			}

			d := dispatch.New(opts.client(), wsID, dispatch.WithLogger(newLogger(cmd, opts)))
			defer d.Close()

			if err := d.Refresh(cmd.Context()); err != nil {
				return err
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), columns(d.Board()))
			}
			printBoard(cmd.OutOrStdout(), d.Board())
			return nil
		},
	}
}
