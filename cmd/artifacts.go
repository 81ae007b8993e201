package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/promoter/internal/config"
	"github.com/zjrosen/promoter/internal/paths"
	"github.com/zjrosen/promoter/internal/presentation"
	"github.com/zjrosen/promoter/internal/promotion"
)

var artifactsOutput string

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Print the canonical artifact list",
	Long: `Print the artifacts that "all" expands to, in promotion order.

Examples:
  promoter artifacts
  promoter artifacts -o json | jq -r '.[]'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := presentation.NewFormatter(cmd.OutOrStdout(), artifactsOutput)
		if err != nil {
			return err
		}
		return f.FormatArtifacts(cfg.Artifacts)
	},
}

var artifactsSetCmd = &cobra.Command{
	Use:   "set <name,name,...>",
	Short: "Replace the canonical artifact list in the config file",
	Long: `Replace the artifacts list in the active config file. Comments and other
sections are preserved.

Examples:
  promoter artifacts set appmw,cardui,gateway,batchsvc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := promotion.ParseSelection(args[0])
		path := cfgPath
		if path == "" {
			path = paths.StateDirName + "/config.yaml"
		}
		if err := config.SaveArtifacts(path, names); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d artifacts to %s\n", len(names), path)
		return nil
	},
}

func init() {
	artifactsCmd.Flags().StringVarP(&artifactsOutput, "output", "o", presentation.OutputTable, "output format: table or json")
	artifactsCmd.AddCommand(artifactsSetCmd)
	rootCmd.AddCommand(artifactsCmd)
}
