package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/soundpool/internal/conf"
)

// Command creates the config command, which prints the effective
// configuration or writes a default config file.
func Command(settings *conf.Settings) *cobra.Command {
	var writePath string
	var force bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file, environment
variables and flags. With --write, write a config file holding the defaults instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if writePath != "" {
				if err := conf.WriteDefaultConfig(writePath, force); err != nil {
					return err
				}
				fmt.Fprintf(out, "default configuration written to %s\n", writePath)
				return nil
			}

			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("error marshaling settings to YAML: %w", err)
			}
			if used := conf.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# loaded from %s\n", used)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "Write a default config file to this path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file with --write")

	return cmd
}
