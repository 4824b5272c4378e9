package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdfpod/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var localOnly bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories and service credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var results []preflight.Result
			if localOnly {
				results = preflight.RunLocal(cfg)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&localOnly, "local", false, "Skip the live service probes")
	return cmd
}
