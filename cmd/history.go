package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/promoter/internal/history"
	"github.com/zjrosen/promoter/internal/paths"
	"github.com/zjrosen/promoter/internal/presentation"
)

var (
	historyLimit  int
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded promotion runs, newest first",
	Long: `List recorded promotion runs, newest first.

Examples:
  promoter history
  promoter history --limit 5
  promoter history show 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed
  promoter history -o json | jq '.[] | select(.status != "success")'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		f, err := presentation.NewFormatter(cmd.OutOrStdout(), historyOutput)
		if err != nil {
			return err
		}

		limit := historyLimit
		if !cmd.Flags().Changed("limit") {
			limit = cfg.History.ListLimit
		}
		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return f.FormatRuns(presentation.FromRunRecords(runs))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its per-artifact results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		f, err := presentation.NewFormatter(cmd.OutOrStdout(), historyOutput)
		if err != nil {
			return err
		}

		run, arts, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return f.FormatRun(presentation.FromRunDetail(run, arts))
	},
}

// openHistory opens the configured history database.
func openHistory() (*history.Store, func(), error) {
	path := cfg.History.Path
	if path == "" {
		path = paths.HistoryDB(stateDir())
	}
	db, err := history.NewDB(path)
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(db), func() { _ = db.Close() }, nil
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historyOutput, "output", "o", presentation.OutputTable, "output format: table or json")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "number of runs to list (default: history.list_limit)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
