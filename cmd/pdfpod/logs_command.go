package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pdfpod/internal/jobs"
	"pdfpod/internal/logs"
	"pdfpod/internal/pipeline"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [request-id]",
		Short: "Show the pdfpod log, or one request's log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			if len(args) == 1 {
				id := strings.TrimSpace(args[0])
				err := ctx.withStore(func(store *jobs.Store) error {
					job, err := store.GetByRequestID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if job == nil {
						return fmt.Errorf("request %s not found", id)
					}
					path = pipeline.RequestLogPath(job.OutputDir)
					return nil
				})
				if err != nil {
					return err
				}
			}
			if path == "" {
				return fmt.Errorf("logging to file is disabled (paths.log_dir is empty)")
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
