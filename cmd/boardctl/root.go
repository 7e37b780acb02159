package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/client"
	"taskboard/internal/logging"
	"taskboard/internal/model"
)

type options struct {
	server    string
	token     string
	workspace string
	json      bool
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "boardctl",
		Short:        "boardctl - drive a taskboard workspace board from the terminal",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("TASKBOARD_SERVER", "http://localhost:8080"), "API base URL (env TASKBOARD_SERVER)")
	flags.StringVar(&opts.token, "token", os.Getenv("TASKBOARD_TOKEN"), "JWT bearer token (env TASKBOARD_TOKEN)")
	flags.StringVar(&opts.workspace, "workspace", os.Getenv("TASKBOARD_WORKSPACE"), "Workspace ID (env TASKBOARD_WORKSPACE)")
	flags.BoolVar(&opts.json, "json", false, "Output in JSON format")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level for sync diagnostics")

	cmd.AddCommand(boardCmd(opts))
	cmd.AddCommand(moveCmd(opts))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) workspaceID() (uuid.UUID, error) {
	if o.workspace == "" {
		return uuid.Nil, fmt.Errorf("--workspace is required")
	}
	id, err := uuid.Parse(o.workspace)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --workspace %q: %w", o.workspace, err)
	}
	return id, nil
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.token)
}

// parseSlot reads STATUS:INDEX, for example "in-progress:0".
func parseSlot(raw string) (board.Slot, error) {
	name, index, ok := strings.Cut(raw, ":")
	if !ok {
		return board.Slot{}, fmt.Errorf("invalid slot %q (want STATUS:INDEX)", raw)
	}

	status, valid := model.ParseStatus(name)
	if !valid {
		return board.Slot{}, fmt.Errorf("invalid status %q (must be: backlog, todo, in-progress, in-review, done)", name)
	}

	i, err := strconv.Atoi(index)
	if err != nil || i < 0 {
		return board.Slot{}, fmt.Errorf("invalid index %q in slot %q", index, raw)
	}
	return board.Slot{Status: status, Index: i}, nil
}

type columnOutput struct {
	Status model.TaskStatus `json:"status"`
	Tasks  []model.Task     `json:"tasks"`
}

func columns(p board.Partition) []columnOutput {
	out := make([]columnOutput, 0, len(model.Statuses))
	for _, status := range model.Statuses {
		tasks := p[status]
		if tasks == nil {
			tasks = []model.Task{}
		}
		out = append(out, columnOutput{Status: status, Tasks: tasks})
	}
	return out
}

func printBoard(w io.Writer, p board.Partition) {
	for _, col := range columns(p) {
		fmt.Fprintf(w, "%s (%d)\n", col.Status, len(col.Tasks))
		for i, t := range col.Tasks {
			fmt.Fprintf(w, "  %d. %s [%s] pos=%d\n", i, t.Name, t.ID, t.Position)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(cmd *cobra.Command, o *options) *log.Logger {
	return logging.NewWithOutput(cmd.ErrOrStderr(), o.logLevel, "text")
}
