package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func newWeightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "Print the coupling matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ws, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			state := ws.Memory.State()
			n := state.Weights.SymmetricDim()

			if env.jsonOut {
				rows := make([][]float64, n)
				for i := range rows {
					rows[i] = mat.Row(nil, i, state.Weights)
				}
				return printJSON(cmd, map[string]any{
					"shape":    state.Shape.Dims(),
					"patterns": len(state.Patterns),
					"weights":  rows,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d x %d couplings from %d patterns\n\n", n, n, len(state.Patterns))
			fmt.Fprintf(cmd.OutOrStdout(), "%.4v\n", mat.Formatted(state.Weights, mat.Squeeze()))
			return nil
		},
	}
}
