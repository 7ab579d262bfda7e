package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timberland/blocksmith/internal/assembler"
)

func assembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble <tree.json>",
		Short: "Compile a block tree file into block markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}

			tree, err := assembler.ParseTree(string(content))
			if err != nil {
				return err
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.gen.AssembleTree(cmd.Context(), tree)
			if err != nil {
				return err
			}
			reportValidation(res)
			fmt.Println(res.Markup)
			return nil
		},
	}
	return cmd
}
