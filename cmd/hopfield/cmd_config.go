package main

import (
	"fmt"

	"github.com/nvandessel/hopfield/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging defaults, ~/.hopfield/config.yaml,
<root>/.hopfield/config.yaml and HOPFIELD_* environment variables.

With --write, the effective configuration is saved to
<root>/.hopfield/config.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			if write, _ := cmd.Flags().GetBool("write"); write {
				path := config.ProjectPath(env.root)
				if err := env.cfg.Save(path); err != nil {
					return err
				}
				if !env.jsonOut {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
					return nil
				}
			}

			if env.jsonOut {
				return printJSON(cmd, env.cfg)
			}
			data, err := yaml.Marshal(env.cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().Bool("write", false, "Save the effective configuration to the project")
	return cmd
}
