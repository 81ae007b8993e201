package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/paths"
	"github.com/zjrosen/promoter/internal/presentation"
	"github.com/zjrosen/promoter/internal/promotion"
)

var (
	approveIdentity string
	approveAbort    bool
	approveOutput   string
)

var approveCmd = &cobra.Command{
	Use:   "approve [run-id]",
	Short: "Answer a pending file-channel approval",
	Long: `Answer an approval request written by a run using --approval-channel file.

Without a run id, lists the pending requests.

Examples:
  promoter approve
  promoter approve 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed --as alice
  promoter approve 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed --as alice --abort`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch := approval.NewFileChannel(approval.FileConfig{Dir: approvalsDir()})

		if len(args) == 0 {
			pending, err := ch.Pending()
			if err != nil {
				return err
			}
			f, err := presentation.NewFormatter(cmd.OutOrStdout(), approveOutput)
			if err != nil {
				return err
			}
			return f.FormatPending(presentation.FromPendingRequests(pending))
		}

		runID := args[0]
		if _, err := os.Stat(ch.RequestPath(runID)); err != nil {
			return fmt.Errorf("no pending approval for run %s", runID)
		}

		decision := promotion.DecisionProceed
		if approveAbort {
			decision = promotion.DecisionAbort
		}
		if err := ch.Decide(runID, promotion.ApprovalResponse{Identity: approveIdentity, Decision: decision}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s for run %s as %s\n", decision, runID, approveIdentity)
		return nil
	},
}

func approvalsDir() string {
	if cfg.Approval.Dir != "" {
		return cfg.Approval.Dir
	}
	return paths.ApprovalsDir(stateDir())
}

func init() {
	approveCmd.Flags().StringVar(&approveIdentity, "as", os.Getenv("USER"), "approver identity")
	approveCmd.Flags().BoolVar(&approveAbort, "abort", false, "reject the promotion instead of approving it")
	approveCmd.Flags().StringVarP(&approveOutput, "output", "o", presentation.OutputTable, "output format for the pending list: table or json")
	rootCmd.AddCommand(approveCmd)
}
