package main

import (
	"fmt"

	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/nvandessel/hopfield/internal/store"
	"github.com/nvandessel/hopfield/internal/workspace"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a network in the project root",
		Long: `Create .hopfield/ and a network of the given shape.

The shape defaults to network.shape from the config (8x8). Running init
again with the same shape is a no-op; a different shape is an error.

Examples:
  hopfield init --shape 16x16
  hopfield init --shape 64 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("shape") {
				s, _ := cmd.Flags().GetString("shape")
				shape, err := pattern.ParseShape(s)
				if err != nil {
					return err
				}
				env.cfg.Network.Shape = shape.Dims()
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				env.cfg.Network.Seed = &seed
			}

			ws, err := workspace.Init(cmd.Context(), env.root, env.cfg, env.logger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer ws.Close()

			meta := ws.Meta()
			if env.jsonOut {
				return printJSON(cmd, map[string]any{
					"status":   "initialized",
					"path":     store.LocalDataPath(env.root),
					"shape":    meta.Shape.Dims(),
					"seed":     meta.Seed,
					"patterns": ws.Memory.PatternCount(),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized %s\n", store.LocalDataPath(env.root))
			fmt.Fprintf(out, "  shape:    %s (%d nodes)\n", meta.Shape, meta.Shape.Nodes())
			if meta.Seed != nil {
				fmt.Fprintf(out, "  seed:     %d\n", *meta.Seed)
			}
			fmt.Fprintf(out, "  patterns: %d\n", ws.Memory.PatternCount())
			return nil
		},
	}

	cmd.Flags().String("shape", "", "Network shape, e.g. 8x8 or 64")
	cmd.Flags().Uint64("seed", 0, "Seed for the lattice random source")
	return cmd
}
