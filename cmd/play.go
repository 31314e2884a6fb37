package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/connorhough/timestable/internal/config"
	"github.com/connorhough/timestable/internal/play"
	"github.com/connorhough/timestable/internal/quiz"
	"github.com/connorhough/timestable/internal/recorder"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz in the terminal",
		Long: `Ask random multiplication questions in the terminal until all are answered
or the clock runs out, then print a summary.

Flags override the config file for this run only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ResolveQuizConfig()
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(&cfg, cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			factory := newRecorderFactory(cmd)
			defer closeFactory(factory)

			session := quiz.New(
				quiz.WithRecorder(openRecorder(cmd.Context(), factory)),
				quiz.WithLogger(slog.Default()),
			)

			streams := play.NewIOStreams()
			streams.In = cmd.InOrStdin()
			streams.Out = cmd.OutOrStdout()
			streams.ErrOut = cmd.ErrOrStderr()
			if !streams.IsInteractive() {
				slog.Debug("stdin is not a terminal")
			}

			return play.Run(cmd.Context(), streams, session, cfg, play.Options{Tick: config.TickInterval()})
		},
	}

	addQuizFlags(cmd)
	cmd.Flags().String("recorder", "", `where results go, e.g. "file" or "sqlite,redis" (default from config)`)

	return cmd
}

func addQuizFlags(cmd *cobra.Command) {
	cmd.Flags().String("player", "", "player name")
	cmd.Flags().Bool("require-player", false, "refuse to start without a player name")
	cmd.Flags().Int("min", 0, "smallest operand")
	cmd.Flags().Int("max", 0, "largest operand")
	cmd.Flags().Int("questions", 0, "number of questions")
	cmd.Flags().Duration("time-limit", 0, "time limit, e.g. 10s")
	cmd.Flags().String("mode", "", "what the time limit covers: question or session")
}

// newRecorderFactory reads recorder settings, letting --recorder pick the kind.
func newRecorderFactory(cmd *cobra.Command) *recorder.Factory {
	rc := config.ResolveRecorderConfig()
	if f := cmd.Flags().Lookup("recorder"); f != nil && f.Changed {
		rc.Kind = f.Value.String()
	}
	return recorder.NewFactory(rc)
}

// openRecorder falls back to not recording when a sink cannot be reached, so
// an offline database never blocks a game.
func openRecorder(ctx context.Context, factory *recorder.Factory) quiz.Recorder {
	rec, err := factory.Recorder(ctx)
	if err != nil {
		slog.Warn("results will not be recorded", "error", err)
		return quiz.NopRecorder{}
	}
	return rec
}

func closeFactory(factory *recorder.Factory) {
	if err := factory.Close(); err != nil {
		slog.Warn("failed to close recorder", "error", err)
	}
}
