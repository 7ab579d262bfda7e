package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timberland/blocksmith/internal/validator"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <markup-file>",
		Short: "Validate block markup against the block catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.Get()
			if err != nil {
				return err
			}

			res := validator.New(m).Validate(string(content))
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if !res.Valid {
				return fmt.Errorf("markup failed validation with %d error(s)", len(res.Errors))
			}
			return nil
		},
	}
	return cmd
}
