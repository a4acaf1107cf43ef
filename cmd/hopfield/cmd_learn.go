package main

import (
	"errors"
	"fmt"

	"github.com/nvandessel/hopfield/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newLearnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Learn patterns from images or text files",
		Long: `Learn one or more patterns with Hebb's rule.

Images are scaled to the network shape and thresholded on luminance.
Text files use '#' (or 1, +, X) for on and '.' (or 0, -, o) for off, one
row per line.

Examples:
  hopfield learn --text smiley.txt --label smiley
  hopfield learn --image digits/0.png --image digits/1.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, _ := cmd.Flags().GetStringSlice("image")
			texts, _ := cmd.Flags().GetStringSlice("text")
			label, _ := cmd.Flags().GetString("label")
			if len(images)+len(texts) == 0 {
				return errors.New("nothing to learn: use --image or --text")
			}

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

			items, err := loadPatterns(ctx, cmd, env, images, texts, ws.Meta().Shape)
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if !env.jsonOut && len(items) > 1 {
				bar = progressbar.NewOptions(len(items),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("learning"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			records := make([]store.Record, 0, len(items))
			for _, it := range items {
				rec, err := ws.Learn(ctx, it.pattern, label, it.source)
				if err != nil {
					return fmt.Errorf("learning %s: %w", it.source, err)
				}
				records = append(records, rec)
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if bar != nil {
				_ = bar.Finish()
			}

			if env.jsonOut {
				out := make([]map[string]any, len(records))
				for i, rec := range records {
					out[i] = map[string]any{
						"id":     rec.ID,
						"seq":    rec.Seq,
						"label":  rec.Label,
						"source": rec.Source,
						"bits":   rec.Pattern.Encode(),
					}
				}
				return printJSON(cmd, map[string]any{
					"learned":  out,
					"patterns": ws.Memory.PatternCount(),
				})
			}

			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "Learned #%d from %s\n", rec.Seq, rec.Source)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Memory holds %d patterns\n", ws.Memory.PatternCount())
			return nil
		},
	}

	cmd.Flags().StringSlice("image", nil, "Image file to learn (repeatable)")
	cmd.Flags().StringSlice("text", nil, "Text pattern file to learn (repeatable, '-' for stdin)")
	cmd.Flags().String("label", "", "Label stored with the learned patterns")
	return cmd
}
