package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdfpod/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the request history",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]jobs.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := jobs.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(store *jobs.Store) error {
				items, err := store.List(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]jobView, 0, len(items))
					for _, item := range items {
						views = append(views, newJobView(item))
					}
					return writeJSON(cmd, views)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(jobColumns, buildJobRows(items)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of requests to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <request-id>",
		Short: "Show one request in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				job, err := store.GetByRequestID(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("request %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, newJobView(job))
				}
				for _, line := range describeJob(job) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count requests by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(statusColumns, rows))
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <request-id>",
		Short: "Forget one request (files on disk are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				removed, err := store.Remove(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("request %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed request %s\n", args[0])
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget completed and failed requests (files on disk are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				removed, err := store.ClearFinished(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d finished requests\n", removed)
				return nil
			})
		},
	}
}

// withStore opens the request history for the duration of fn.
func (c *commandContext) withStore(fn func(store *jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		if errors.Is(err, jobs.ErrSchemaMismatch) {
			return fmt.Errorf("%w (remove %s to start a fresh history)", err, cfg.JobsDBPath())
		}
		return fmt.Errorf("open request history: %w", err)
	}
	defer store.Close()
	return fn(store)
}
