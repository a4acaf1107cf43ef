package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/hopfield/internal/imagesource"
	"github.com/nvandessel/hopfield/internal/pattern"
	"github.com/spf13/cobra"
)

// sourced is a pattern along with the file it came from.
type sourced struct {
	pattern pattern.Pattern
	source  string
}

func newImageLoader(env *cliEnv) (*imagesource.Loader, error) {
	return imagesource.NewLoader(imagesource.Config{
		Threshold: uint8(env.cfg.Image.Threshold),
		Workers:   env.cfg.Image.Workers,
		CacheSize: env.cfg.Image.CacheSize,
	})
}

// readTextPattern parses a text pattern file. "-" reads from stdin.
func readTextPattern(cmd *cobra.Command, path string) (pattern.Pattern, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return pattern.Pattern{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	p, err := pattern.Parse(r)
	if err != nil {
		return pattern.Pattern{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// loadPatterns decodes every image and text file, images first, in the
// order given.
func loadPatterns(ctx context.Context, cmd *cobra.Command, env *cliEnv, images, texts []string, shape pattern.Shape) ([]sourced, error) {
	var out []sourced

	if len(images) > 0 {
		loader, err := newImageLoader(env)
		if err != nil {
			return nil, err
		}
		ps, err := loader.LoadAll(ctx, images, shape)
		if err != nil {
			return nil, err
		}
		for i, p := range ps {
			out = append(out, sourced{pattern: p, source: images[i]})
		}
	}

	for _, path := range texts {
		p, err := readTextPattern(cmd, path)
		if err != nil {
			return nil, err
		}
		out = append(out, sourced{pattern: p, source: path})
	}
	return out, nil
}

// loadProbe reads the single pattern named by --image or --text.
func loadProbe(ctx context.Context, cmd *cobra.Command, env *cliEnv, shape pattern.Shape) (sourced, error) {
	image, _ := cmd.Flags().GetString("image")
	text, _ := cmd.Flags().GetString("text")

	switch {
	case image != "" && text != "":
		return sourced{}, errors.New("use only one of --image and --text")
	case image != "":
		loader, err := newImageLoader(env)
		if err != nil {
			return sourced{}, err
		}
		p, err := loader.Load(ctx, image, shape)
		if err != nil {
			return sourced{}, err
		}
		return sourced{pattern: p, source: image}, nil
	case text != "":
		p, err := readTextPattern(cmd, text)
		if err != nil {
			return sourced{}, err
		}
		return sourced{pattern: p, source: text}, nil
	default:
		return sourced{}, errors.New("a probe is required: use --image or --text")
	}
}

func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Probe image file")
	cmd.Flags().String("text", "", "Probe text pattern file ('-' for stdin)")
}
