package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/connorhough/timestable/internal/config"
	"github.com/connorhough/timestable/internal/recorder"
)

func newHistoryCmd() *cobra.Command {
	var player string
	var limit int
	var leaderboard int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded results",
		Long: `List recent results from the local SQLite database along with totals.

With --leaderboard, show the best scores kept in Redis instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := config.ResolveRecorderConfig()
			out := cmd.OutOrStdout()

			if leaderboard > 0 {
				r, err := recorder.NewRedisRecorder(cmd.Context(), rc.RedisAddr, rc.RedisPassword, rc.RedisDB)
				if err != nil {
					return err
				}
				defer r.Close()

				top, err := r.Top(cmd.Context(), leaderboard)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tPLAYER\tBEST")
				for i, e := range top {
					fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, e.Player, e.Score)
				}
				return tw.Flush()
			}

			db, err := recorder.NewSQLiteRecorder(rc.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.History(cmd.Context(), player, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No results recorded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tPLAYER\tSCORE\tACCURACY\tTIME\tENDED")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%.1fs\t%s\n",
					rec.Timestamp.Local().Format("2006-01-02 15:04"),
					recorder.PlayerName(rec),
					rec.Progress(),
					rec.Accuracy,
					rec.Elapsed.Seconds(),
					rec.EndReason)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats, err := db.Stats(cmd.Context(), player)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d sessions, best score %d, average accuracy %.2f%%, %d/%d correct overall\n",
				stats.Sessions, stats.BestScore, stats.AvgAccuracy, stats.TotalCorrect, stats.TotalAnswers)
			return nil
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "only show this player's results")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of results to list")
	cmd.Flags().IntVar(&leaderboard, "leaderboard", 0, "show the top N players from Redis")

	return cmd
}
