package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowbench/flowbench/internal/agent"
	"github.com/flowbench/flowbench/internal/dataset"
	"github.com/flowbench/flowbench/internal/log"
	"github.com/flowbench/flowbench/internal/provider"
	"github.com/flowbench/flowbench/internal/render"
	"github.com/flowbench/flowbench/internal/runner"
	"github.com/flowbench/flowbench/internal/workflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowbench",
		Short: "LLM workflow evaluation harness",
		Long:  "Flowbench runs agent workflows over datasets and scores the results with pluggable metrics.",
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newListCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workflow-dir> <dataset>",
		Short: "Run workflow evaluation on a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflowDir, datasetPath := args[0], args[1]

			verbose, _ := cmd.Flags().GetBool("verbose")
			logger := log.New(verbose)
			defer func() { _ = logger.Sync() }()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			items, err := dataset.Load(datasetPath)
			if err != nil {
				return err
			}
			logger.Info("loaded dataset",
				zap.String("path", datasetPath),
				zap.Int("items", len(items)))

			model, err := provider.New(cfg.Model)
			if err != nil {
				return err
			}
			inv := agent.NewInvoker(model, agent.ModelParams{
				Model:       cfg.Model,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			},
				agent.WithMaxAttempts(cfg.RetryAttempts),
				agent.WithLogger(logger),
			)

			wf, err := workflow.Load(workflowDir, inv, logger)
			if err != nil {
				return err
			}
			logger.Info("initialized workflow",
				zap.String("workflow", wf.Name),
				zap.String("model", cfg.Model))

			// Ctrl-C stops launching new items; in-flight items drain.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := runner.New(wf, logger).Run(ctx, items, runner.Options{
				MaxItems:    cfg.MaxItems,
				Concurrency: cfg.Concurrency,
				ItemTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
				Model:       cfg.Model,
			})
			if err != nil {
				return err
			}

			if cfg.Output != "" {
				if err := os.MkdirAll(cfg.Output, 0o750); err != nil {
					return err
				}
				jsonPath := filepath.Join(cfg.Output, "results.json")
				if err := render.WriteJSONFile(jsonPath, report); err != nil {
					return err
				}
				diagramPath := filepath.Join(cfg.Output, "workflow_diagram.mmd")
				if err := os.WriteFile(diagramPath, []byte(wf.Graph.Mermaid()), 0o640); err != nil {
					return err
				}
				logger.Info("saved outputs", zap.String("dir", cfg.Output))
			}

			switch cfg.Format {
			case "json":
				return render.JSON(cmd.OutOrStdout(), report)
			default:
				return render.Console(cmd.OutOrStdout(), report)
			}
		},
	}

	cmd.Flags().String("config", "", "path to YAML defaults file")
	cmd.Flags().String("model", "", "model to use (gpt-4o-mini, claude-3-sonnet, ...)")
	cmd.Flags().Float64("temperature", 0, "model temperature")
	cmd.Flags().Int("max-tokens", 0, "max tokens per response")
	cmd.Flags().Int("max-items", 0, "process only the first N items")
	cmd.Flags().Int("concurrency", 0, "items evaluated in parallel")
	cmd.Flags().Int("timeout", 0, "per-item timeout in seconds")
	cmd.Flags().Int("retries", 0, "retry attempts for transient model errors")
	cmd.Flags().String("output", "", "directory for results.json and diagram")
	cmd.Flags().String("format", "console", "console output format (console/json)")
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow-dir>",
		Short: "Validate a workflow configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Agents are never invoked during validation.
			noop := workflow.InvokerFunc(func(context.Context, agent.Spec, map[string]string) (map[string]any, error) {
				return nil, nil
			})

			wf, err := workflow.Load(args[0], noop, nil)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workflow %q is valid\n", wf.Name)
			fmt.Fprint(cmd.OutOrStdout(), wf.Graph.Describe())
			fmt.Fprintf(cmd.OutOrStdout(), "Metrics: %v\n", wf.Metrics.Names())
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [workflows-root]",
		Short: "List available workflows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "workflows"
			if len(args) == 1 {
				root = args[0]
			}

			entries, err := os.ReadDir(root)
			if err != nil {
				return err
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				graphPath := filepath.Join(root, entry.Name(), "graph.json")
				if _, err := os.Stat(graphPath); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s (incomplete - missing graph.json)\n", entry.Name())
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", entry.Name())
			}
			return nil
		},
	}
}
