package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nvandessel/hopfield/internal/workspace"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// overlapRow is the overlap of the lattice state with one stored pattern.
type overlapRow struct {
	Seq     int     `json:"seq"`
	Label   string  `json:"label,omitempty"`
	Source  string  `json:"source,omitempty"`
	Overlap float64 `json:"overlap"`
}

// storedOverlaps measures the lattice's current spins against every stored
// pattern, highest overlap first. The store and the memory hold the patterns
// in the same learning order.
func storedOverlaps(ctx context.Context, ws *workspace.Workspace) ([]overlapRow, error) {
	records, err := ws.Store.Patterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}
	overlaps := ws.Memory.Overlaps()
	if len(overlaps) != len(records) {
		return nil, fmt.Errorf("store has %d patterns, memory has %d", len(records), len(overlaps))
	}

	rows := make([]overlapRow, len(records))
	for i, rec := range records {
		rows[i] = overlapRow{Seq: rec.Seq, Label: rec.Label, Source: rec.Source, Overlap: overlaps[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Overlap > rows[j].Overlap })
	return rows, nil
}

func renderOverlaps(w io.Writer, rows []overlapRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seq", "Label", "Source", "Overlap"})
	table.SetBorder(false)
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.Seq),
			r.Label,
			r.Source,
			strconv.FormatFloat(r.Overlap, 'f', 4, 64),
		})
	}
	table.Render()
}

func newOverlapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Compare a probe with every stored pattern",
		Long: `Load a probe into the lattice and report its overlap with each
stored pattern. Overlap is 1 for an identical pattern, -1 for its
complement and near 0 for an unrelated one.

Examples:
  hopfield overlap --text probe.txt
  hopfield overlap --image probe.png --json`,
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

			probe, err := loadProbe(ctx, cmd, env, ws.Meta().Shape)
			if err != nil {
				return err
			}
			if err := ws.Memory.Lattice().SetSpins(probe.pattern.Spins()); err != nil {
				return fmt.Errorf("loading probe: %w", err)
			}

			rows, err := storedOverlaps(ctx, ws)
			if err != nil {
				return err
			}

			if env.jsonOut {
				return printJSON(cmd, map[string]any{
					"probe":    probe.source,
					"overlaps": rows,
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No patterns learned yet.")
				return nil
			}
			renderOverlaps(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	addProbeFlags(cmd)
	return cmd
}
