package main

import (
	"errors"
	"fmt"

	"github.com/nvandessel/hopfield/internal/snapshot"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the memory to a snapshot file",
		Long: `Write the network shape, seed, every learned pattern and the coupling
matrix to a compressed snapshot file. Use "-" to write to stdout.

Examples:
  hopfield export --output memory.hfs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				return errors.New("--output is required")
			}

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			level, err := snapshot.ParseLevel(env.cfg.Snapshot.Compression)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ws, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			snap, err := ws.Snapshot(ctx)
			if err != nil {
				return err
			}

			var header *snapshot.Header
			if output == "-" {
				header, err = snapshot.Write(cmd.OutOrStdout(), snap, level)
			} else {
				header, err = snapshot.WriteFile(output, snap, level)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if output == "-" {
				return nil
			}

			if env.jsonOut {
				return printJSON(cmd, map[string]any{
					"path":     output,
					"patterns": header.PatternCount,
					"checksum": header.Checksum,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d patterns to %s\n", header.PatternCount, output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Snapshot file to write ('-' for stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Learn the patterns of a snapshot file",
		Long: `Verify a snapshot file and learn its patterns, in order, on top of the
current memory. The snapshot's shape must match the network's.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			snap, header, err := snapshot.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading snapshot: %w", err)
			}

			ctx := cmd.Context()
			ws, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			n, err := ws.Import(ctx, snap)
			if err != nil {
				return err
			}

			if env.jsonOut {
				return printJSON(cmd, map[string]any{
					"imported": n,
					"patterns": ws.Memory.PatternCount(),
					"checksum": header.Checksum,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d patterns from %s (memory holds %d)\n",
				n, args[0], ws.Memory.PatternCount())
			return nil
		},
	}
}
