// Package cmd provides the command-line interface for the timestable application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/connorhough/timestable/internal/config"
	"github.com/connorhough/timestable/internal/version"
)

var (
	cfgFile string
	rootCmd *cobra.Command
)

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.go. It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if rootCmd == nil {
		rootCmd = NewRootCmd()
	}
	return rootCmd.ExecuteContext(ctx)
}

// NewRootCmd creates and returns the root command for timestable
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "timestable",
		Short: "Timed multiplication drills",
		Long: `timestable asks a run of random multiplication questions against the clock
and reports your score, accuracy and timing at the end.

Play in the terminal with "timestable play" or in a browser with "timestable serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default locations: $XDG_CONFIG_HOME/timestable/config.yaml, ~/.config/timestable/config.yaml, or ~/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	// PersistentPreRun handles configuration initialization
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
			viper.Set("log_level", f.Value.String())
		}
		initLogging(cmd)
		return nil
	}

	return rootCmd
}

// initConfig reads in config file, .env and ENV variables if set.
func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	config.SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find config file in standard locations
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "timestable"))
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			viper.AddConfigPath(filepath.Join(home, ".config", "timestable"))
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TIMESTABLE_QUIZ_TIME_LIMIT overrides quiz.time_limit, and so on.
	viper.SetEnvPrefix("TIMESTABLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; "config init" can create it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

func initLogging(cmd *cobra.Command) {
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: config.LogLevel()})
	slog.SetDefault(slog.New(handler))
}
