package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timberland/blocksmith/internal/generate"
)

func structureCmd() *cobra.Command {
	var (
		model    string
		caller   string
		roles    []string
		patterns []string
		compile  bool
	)

	cmd := &cobra.Command{
		Use:   "structure <prompt>",
		Short: "Plan a page as a block tree instead of raw markup",
		Long: `Plan a page in two steps: decompose the prompt into sections, then ask
the model for a JSON block tree. With --assemble the tree is compiled
into final markup locally, without a second model pass over the output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userPrompt := strings.TrimSpace(strings.Join(args, " "))
			if userPrompt == "" {
				return fmt.Errorf("prompt is required")
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.gen.GenerateStructure(cmd.Context(), generate.Request{
				Caller:      caller,
				CallerRoles: roles,
				Prompt:      userPrompt,
				UsePatterns: patterns,
				Model:       model,
			})
			if err != nil {
				return err
			}

			if compile {
				out, err := a.gen.AssembleTree(cmd.Context(), res.Tree)
				if err != nil {
					return err
				}
				reportValidation(out)
				fmt.Println(out.Markup)
				return nil
			}

			content, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(content))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name (defaults to the configured default)")
	cmd.Flags().StringVar(&caller, "caller", "cli", "caller identity for rate limiting and history")
	cmd.Flags().StringArrayVar(&roles, "role", []string{"administrator"}, "caller role (repeatable)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "base pattern reference (repeatable)")
	cmd.Flags().BoolVar(&compile, "assemble", false, "compile the tree into markup")
	return cmd
}
