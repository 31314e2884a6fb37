package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/connorhough/timestable/internal/config"
	"github.com/connorhough/timestable/internal/quiz"
	"github.com/connorhough/timestable/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quiz as a web page",
		Long: `Run a small web server hosting one quiz session. Open the printed address in
a browser to play. The countdown is pushed to the page over a websocket.`,
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
			if addr == "" {
				addr = viper.GetString("serve.addr")
			}

			factory := newRecorderFactory(cmd)
			defer closeFactory(factory)

			session := quiz.New(
				quiz.WithRecorder(openRecorder(cmd.Context(), factory)),
				quiz.WithLogger(slog.Default()),
			)
			srv := web.New(session, cfg, web.Options{Tick: config.ServeTick()})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from serve.addr)")
	addQuizFlags(cmd)
	cmd.Flags().String("recorder", "", "where results go (default from config)")

	return cmd
}
