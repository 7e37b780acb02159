package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/dispatch"
)

type moveOutput struct {
	Updates board.Batch    `json:"updates"`
	Board   []columnOutput `json:"board"`
}

func moveCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a task between or within columns",
		Example: `  boardctl move --workspace $WS --from todo:0 --to in-progress:2
  boardctl move --workspace $WS --from done:3 --to done:0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := opts.workspaceID()
			if err != nil {
				return err
			}
			src, err := parseSlot(from)
			if err != nil {
				return err
			}
			dst, err := parseSlot(to)
			if err != nil {
				return err
			}

			var (
				mu       sync.Mutex
				syncErrs []error
			)
			d := dispatch.New(opts.client(), wsID,
				dispatch.WithLogger(newLogger(cmd, opts)),
				dispatch.WithOnError(func(err error) {
					mu.Lock()
					syncErrs = append(syncErrs, err)
					mu.Unlock()
				}),
			)
			defer d.Close()

			if err := d.Refresh(cmd.Context()); err != nil {
				return err
			}

			batch, err := d.Move(src, &dst)
			if errors.Is(err, board.ErrInvalidMove) {
				return fmt.Errorf("cannot move %s to %s: %w", from, to, err)
			}
			if err != nil {
				return err
			}

			if err := d.Wait(cmd.Context()); err != nil {
				return err
			}

			mu.Lock()
			failed := errors.Join(syncErrs...)
			mu.Unlock()
			if failed != nil {
				return fmt.Errorf("move was not saved: %w", failed)
			}

			out := cmd.OutOrStdout()
			if opts.json {
				if batch == nil {
					batch = board.Batch{}
				}
				return writeJSON(out, moveOutput{Updates: batch, Board: columns(d.Board())})
			}

			if len(batch) == 0 {
				fmt.Fprintln(out, "Nothing to move")
			} else {
				fmt.Fprintf(out, "Moved with %d update(s)\n", len(batch))
			}
			printBoard(out, d.Board())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source slot as STATUS:INDEX")
	cmd.Flags().StringVar(&to, "to", "", "Destination slot as STATUS:INDEX")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
