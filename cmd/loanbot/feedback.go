package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var feedbackUser string

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Export confirmed and rejected parses as JSON lines",
	Long: `Print the user's intent feedback, newest first, one JSON object per
line. Each line has the original text, what the parser predicted and
what the user confirmed ("rejected" when they said no), ready to be
used as training data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := st.ListFeedback(ctx, feedbackUser)
		if err != nil {
			return fmt.Errorf("failed to read feedback: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackUser, "user", "u", "local", "user id whose feedback to export")
}
