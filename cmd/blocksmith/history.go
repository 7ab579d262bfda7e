package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past generations",
	}
	cmd.AddCommand(historyListCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var (
		caller string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.history.List(cmd.Context(), caller, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				log.Info().Msg("no history")
				return nil
			}
			for _, rec := range records {
				prompt := rec.Prompt
				if len(prompt) > 60 {
					prompt = prompt[:57] + "..."
				}
				_, _ = io.WriteString(os.Stdout,
					fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n", rec.CreatedAt, rec.ID, rec.Caller, rec.Model, prompt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&caller, "caller", "", "filter by caller")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to list")
	return cmd
}
