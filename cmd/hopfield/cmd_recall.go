package main

import (
	"errors"
	"fmt"

	"github.com/nvandessel/hopfield/internal/constants"
	"github.com/nvandessel/hopfield/internal/lattice"
	"github.com/nvandessel/hopfield/internal/logging"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/spf13/cobra"
)

func newRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Recall a stored pattern from a probe",
		Long: `Load a probe into the lattice, optionally flip a fraction of its spins,
then relax the lattice at zero temperature until no spin changes.

The relaxed state is printed along with its overlap with each stored
pattern. A stored pattern with overlap of at least 0.95 is reported as
the match.

Examples:
  hopfield recall --text noisy.txt
  hopfield recall --text clean.txt --noise 0.2 --sweeps 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			noise := env.cfg.Recall.Noise
			if cmd.Flags().Changed("noise") {
				noise, _ = cmd.Flags().GetFloat64("noise")
			}
			sweeps := env.cfg.Recall.MaxSweeps
			if cmd.Flags().Changed("sweeps") {
				sweeps, _ = cmd.Flags().GetInt("sweeps")
			}
			if sweeps < 1 {
				return fmt.Errorf("--sweeps must be at least 1, got %d", sweeps)
			}

			ws, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			lat, ok := ws.Memory.Lattice().(*lattice.Lattice)
			if !ok {
				return errors.New("recall needs the built-in lattice")
			}

			probe, err := loadProbe(ctx, cmd, env, ws.Meta().Shape)
			if err != nil {
				return err
			}
			if err := lat.SetPattern(probe.pattern); err != nil {
				return fmt.Errorf("loading probe: %w", err)
			}
			flipped, err := lat.Perturb(noise)
			if err != nil {
				return err
			}
			startEnergy := lat.Energy()
			ran, converged := lat.Relax(sweeps)

			recalled, err := pattern.FromBipolar(ws.Meta().Shape, lat.Spins())
			if err != nil {
				return err
			}
			rows, err := storedOverlaps(ctx, ws)
			if err != nil {
				return err
			}

			var match *overlapRow
			if len(rows) > 0 && rows[0].Overlap >= constants.RecallMatchThreshold {
				match = &rows[0]
			}

			detail := "no match"
			if match != nil {
				detail = fmt.Sprintf("matched #%d", match.Seq)
			}
			ws.LogEvent(logging.Event{Kind: logging.EventRecall, Source: probe.source, Detail: detail})
			env.logger.Debug("recall finished",
				"flipped", flipped,
				"sweeps", ran,
				"converged", converged,
				"energy_start", startEnergy,
				"energy_end", lat.Energy(),
			)

			if env.jsonOut {
				return printJSON(cmd, map[string]any{
					"probe":     probe.source,
					"flipped":   flipped,
					"sweeps":    ran,
					"converged": converged,
					"energy":    lat.Energy(),
					"recalled":  recalled.Encode(),
					"match":     match,
					"overlaps":  rows,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, recalled.String())
			fmt.Fprintln(out)
			state := "converged"
			if !converged {
				state = "did not converge"
			}
			fmt.Fprintf(out, "Flipped %d spins, %s after %d sweeps (energy %.4f -> %.4f)\n",
				flipped, state, ran, startEnergy, lat.Energy())
			if match != nil {
				fmt.Fprintf(out, "Match: #%d %s (overlap %.4f)\n", match.Seq, match.Label, match.Overlap)
			} else {
				fmt.Fprintln(out, "Match: none")
			}
			if len(rows) > 0 {
				fmt.Fprintln(out)
				renderOverlaps(out, rows)
			}
			return nil
		},
	}

	addProbeFlags(cmd)
	cmd.Flags().Float64("noise", 0, "Fraction of probe spins to flip before recall (0-1)")
	cmd.Flags().Int("sweeps", 0, "Maximum relaxation sweeps (default from config)")
	return cmd
}
