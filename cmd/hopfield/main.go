package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvandessel/hopfield/internal/config"
	"github.com/nvandessel/hopfield/internal/logging"
	"github.com/nvandessel/hopfield/internal/workspace"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hopfield",
		Short: "Hopfield associative memory",
		Long: `hopfield stores binary patterns in a Hopfield network and recalls them
from partial or noisy probes.

Patterns are learned with Hebb's rule. The network and every learned
pattern live in .hopfield/ under the project root.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newLearnCmd(),
		newOverlapCmd(),
		newRecallCmd(),
		newWeightsCmd(),
		newStatsCmd(),
		newExportCmd(),
		newImportCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return printJSON(cmd, map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hopfield version %s\n", version)
			return nil
		},
	}
}

// cliEnv is the per-invocation state shared by every command.
type cliEnv struct {
	root    string
	jsonOut bool
	cfg     *config.HopfieldConfig
	logger  *slog.Logger
}

func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	root, _ := cmd.Flags().GetString("root")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cliEnv{
		root:    root,
		jsonOut: jsonOut,
		cfg:     cfg,
		logger:  logging.NewLogger(cfg.Logging.Level, jsonOut, cmd.ErrOrStderr()),
	}, nil
}

func (e *cliEnv) open(ctx context.Context) (*workspace.Workspace, error) {
	return workspace.Open(ctx, e.root, e.cfg, e.logger)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
