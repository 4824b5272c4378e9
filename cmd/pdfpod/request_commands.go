package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pdfpod/internal/config"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/fileutil"
	"pdfpod/internal/pipeline"
	"pdfpod/internal/preflight"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var instruction string
	var outputDir string
	var copyTo string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate <file.pdf>",
		Short: "Generate a podcast from a PDF document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireLLM(); err != nil {
				return err
			}
			if err := requireLocalChecks(cfg); err != nil {
				return err
			}
			pdfPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve pdf path: %w", err)
			}
			root := cfg.Paths.OutputDir
			if strings.TrimSpace(outputDir) != "" {
				if root, err = config.ExpandPath(outputDir); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
			}

			orch, closeStore, err := ctx.newOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := orch.Run(cmd.Context(), pipeline.Request{
				PDFPath:     pdfPath,
				Instruction: instruction,
				OutputRoot:  root,
			})
			if err != nil {
				return err
			}
			copied, err := copyOutput(result.OutputPath, copyTo)
			if err != nil {
				return err
			}
			return printResult(cmd, result, copied, asJSON)
		},
	}

	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "Guidance for the hosts (tone, focus, audience)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Root directory for the request folder (defaults to paths.output_dir)")
	cmd.Flags().StringVarP(&copyTo, "output", "o", "", "Also copy the finished podcast to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSynthesizeCommand(ctx *commandContext) *cobra.Command {
	var fresh bool
	var copyTo string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "synthesize <dialogue.json>",
		Short: "Synthesize and compose an existing dialogue script",
		Long: "Synthesize and compose an existing dialogue script.\n\n" +
			"The script's directory is used as the request directory, so clips left\n" +
			"by an interrupted run are reused. Pass --fresh to start a new request\n" +
			"folder under paths.output_dir instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireLocalChecks(cfg); err != nil {
				return err
			}
			scriptPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve dialogue path: %w", err)
			}
			script, err := dialogue.Load(scriptPath)
			if err != nil {
				return fmt.Errorf("load dialogue: %w", err)
			}
			dir := filepath.Dir(scriptPath)
			if fresh {
				dir = ""
			}

			orch, closeStore, err := ctx.newOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := orch.RunScript(cmd.Context(), script, dir)
			if err != nil {
				return err
			}
			copied, err := copyOutput(result.OutputPath, copyTo)
			if err != nil {
				return err
			}
			return printResult(cmd, result, copied, asJSON)
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start a new request folder instead of resuming in place")
	cmd.Flags().StringVarP(&copyTo, "output", "o", "", "Also copy the finished podcast to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var copyTo string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compose <request-dir>",
		Short: "Rebuild a podcast from the clips already in a request folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve request dir: %w", err)
			}
			orch := pipeline.NewOffline(cfg, ctx.loggerFor(cfg))
			result, err := orch.Recompose(cmd.Context(), dir)
			if err != nil {
				return err
			}
			copied, err := copyOutput(result.OutputPath, copyTo)
			if err != nil {
				return err
			}
			return printResult(cmd, result, copied, asJSON)
		},
	}

	cmd.Flags().StringVarP(&copyTo, "output", "o", "", "Also copy the finished podcast to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// newOrchestrator wires the production pipeline with request history when
// the store can be opened. The returned func closes the store.
func (c *commandContext) newOrchestrator(cmd *cobra.Command, cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	var recorder pipeline.Recorder
	closeStore := func() {}
	if store := c.openStore(cmd, cfg); store != nil {
		recorder = store
		closeStore = func() { _ = store.Close() }
	}
	orch, err := pipeline.NewFromConfig(cfg, recorder, c.loggerFor(cfg))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return orch, closeStore, nil
}

func requireLocalChecks(cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunLocal(cfg))
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

func copyOutput(src, dst string) (string, error) {
	if strings.TrimSpace(dst) == "" {
		return "", nil
	}
	target, err := config.ExpandPath(dst)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if err := fileutil.CopyFileVerified(src, target); err != nil {
		return "", fmt.Errorf("copy podcast: %w", err)
	}
	return target, nil
}
