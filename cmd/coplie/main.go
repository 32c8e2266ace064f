package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"basegraph.app/coplie/common/id"
	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/core/config"
	"basegraph.app/coplie/internal/agent"
	"basegraph.app/coplie/internal/replay"
	"basegraph.app/coplie/internal/service"
	"basegraph.app/coplie/internal/template"
)

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit with code %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func runWithSignals(run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case sig := <-sigCh:
		cancel()
		<-errCh
		if sig == os.Interrupt {
			return exitError{code: 130}
		}
		return exitError{code: 143}
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "coplie",
		Short:        "Developer tools for the Linear to agent webhook bridge",
		SilenceUsage: true,
	}

	var dryRun bool
	var sign bool
	var failOnError bool
	replayCmd := &cobra.Command{
		Use:   "replay <payload.json>...",
		Short: "Run stored webhook payloads through the processing pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg)

			return runWithSignals(func(ctx context.Context) error {
				return runReplay(ctx, cmd, cfg, args, dryRun, sign, failOnError)
			})
		},
	}
	replayCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use the canned runner instead of spawning the agent CLI")
	replayCmd.Flags().BoolVar(&sign, "sign", true, "Sign payloads with LINEAR_WEBHOOK_SECRET before processing")
	replayCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit 1 if any payload fails")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of an accepted Issue webhook payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := service.PayloadSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render <template-id> [key=value]...",
		Short: "Render a response template",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := template.Default()
			if _, ok := renderer.Lookup(args[0]); !ok {
				ids := renderer.IDs()
				slices.Sort(ids)
				return fmt.Errorf("unknown template %q, available: %s", args[0], strings.Join(ids, ", "))
			}

			vars, err := parseVars(args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(args[0], vars))
			return nil
		},
	}

	rootCmd.AddCommand(replayCmd, schemaCmd, renderCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func runReplay(ctx context.Context, cmd *cobra.Command, cfg config.Config, paths []string, dryRun, sign, failOnError bool) error {
	ids, err := id.NewGenerator(cfg.NodeID)
	if err != nil {
		return err
	}

	var runner agent.CommandRunner
	if dryRun || cfg.Agent.DryRun {
		runner = agent.NewDryRunRunner()
	}
	executor := agent.NewExecutor(agent.Config{
		CLIPath:   cfg.Agent.CLIPath,
		AgentName: cfg.Agent.Name,
		Timeout:   cfg.Agent.Timeout,
		WorkDir:   cfg.Agent.WorkDir,
	}, runner)

	verifier := service.NewSignatureVerifier(cfg.Linear.WebhookSecret)
	webhooks := service.NewWebhookService(service.WebhookServiceConfig{
		Verifier: verifier,
		Executor: executor,
		IDs:      ids,
	})

	var signer *service.SignatureVerifier
	if sign {
		signer = verifier
	}
	replayer := replay.New(webhooks, signer)

	start := time.Now()
	entries, err := replayer.ReplayFiles(ctx, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "# %s\n\n%s\n\n", e.Source, replayer.Result(e))
	}
	fmt.Fprintln(out, replayer.Summary(entries, start, time.Now()))

	if failOnError {
		for _, e := range entries {
			if !e.Outcome.Success {
				return exitError{code: 1}
			}
		}
	}
	return nil
}

// parseVars turns key=value arguments into template variables.
func parseVars(args []string) (map[string]any, error) {
	vars := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected key=value", arg)
		}
		vars[key] = value
	}
	return vars, nil
}
