package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/registry"
	"github.com/benefitsnav/screener-cli/pkg/notion"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the screening question registry from Notion",
	Long:  "Pulls active screening questions from the Notion registry, checks display-condition flow, and mirrors them into the local store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		client := notion.NewClient(cfg.Notion.Token)
		questions, err := registry.LoadQuestionRegistry(cmd.Context(), client, cfg.Notion.QuestionDB)
		if err != nil {
			return err
		}

		issues := registry.CheckQuestionFlow(questions)
		for _, issue := range issues {
			zap.L().Warn("question flow issue", zap.String("issue", issue))
		}

		if syncDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d questions, %d flow issues (dry run, store untouched)\n",
				len(questions), len(issues))
			for _, q := range questions {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d %-30s %s\n", q.Order, q.AnswerKey, q.Text)
			}
			return nil
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceQuestions(cmd.Context(), questions); err != nil {
			return err
		}

		zap.L().Info("question registry synced",
			zap.Int("questions", len(questions)),
			zap.Int("flow_issues", len(issues)),
		)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and validate without writing to the store")
	rootCmd.AddCommand(syncCmd)
}
