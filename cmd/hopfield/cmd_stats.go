package main

import (
	"fmt"
	"strconv"

	"github.com/nvandessel/hopfield/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show network and store statistics",
		Long: `Show the network shape, pattern count and the metrics recorded while
opening the memory. Opening replays every stored pattern, so the learn
metrics describe the replay.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ws, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			meta := ws.Meta()
			count, err := ws.Store.Count(ctx)
			if err != nil {
				return err
			}
			rows, err := ws.Metrics.Summary()
			if err != nil {
				return err
			}

			if env.jsonOut {
				metrics := make(map[string]string, len(rows))
				for _, r := range rows {
					metrics[r.Name] = r.Value
				}
				return printJSON(cmd, map[string]any{
					"shape":      meta.Shape.Dims(),
					"nodes":      meta.Shape.Nodes(),
					"seed":       meta.Seed,
					"created_at": meta.CreatedAt,
					"patterns":   count,
					"database":   store.DatabasePath(env.root),
					"metrics":    metrics,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shape:     %s (%d nodes)\n", meta.Shape, meta.Shape.Nodes())
			fmt.Fprintf(out, "Patterns:  %d\n", count)
			fmt.Fprintf(out, "Created:   %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Database:  %s\n\n", store.DatabasePath(env.root))

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Metric", "Value"})
			table.SetBorder(false)
			for _, r := range rows {
				table.Append([]string{r.Name, r.Value})
			}
			table.Append([]string{"store_patterns", strconv.Itoa(count)})
			table.Render()
			return nil
		},
	}
}
