package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connorhough/timestable/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage timestable configuration",
		Long:  `Get, set, show and initialise timestable configuration values.`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Get a configuration value",
			Long:  `Get a configuration value by key, e.g. "quiz.time_limit".`,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := config.GetValue(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Long:  `Set a configuration value by key and write it to the config file.`,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.SetValue(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Long:  `Print every setting after defaults, the config file and environment are merged.`,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := config.Dump()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a commented config file",
			Long:  `Create a config file with every setting documented. An existing file is left alone.`,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := cfgFile
				if path == "" {
					var err error
					if path, err = config.DefaultConfigPath(); err != nil {
						return err
					}
				}
				created, err := config.EnsureConfigExists(path)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
				}
				return nil
			},
		},
	)

	return configCmd
}
