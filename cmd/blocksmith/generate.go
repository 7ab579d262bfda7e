package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/timberland/blocksmith/internal/generate"
)

func generateCmd() *cobra.Command {
	var (
		model    string
		postType string
		caller   string
		roles    []string
		patterns []string
		outFile  string
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate block markup from a prompt",
		Args:  cobra.MinimumNArgs(1),
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

			res, err := a.gen.Generate(cmd.Context(), generate.Request{
				Caller:      caller,
				CallerRoles: roles,
				Prompt:      userPrompt,
				PostType:    postType,
				UsePatterns: patterns,
				Model:       model,
			})
			if err != nil {
				return err
			}

			reportValidation(res)

			if outFile != "" {
				return os.WriteFile(outFile, []byte(res.Markup), 0o644)
			}
			fmt.Println(res.Markup)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name (defaults to the configured default)")
	cmd.Flags().StringVar(&postType, "post-type", "page", "target post type")
	cmd.Flags().StringVar(&caller, "caller", "cli", "caller identity for rate limiting and history")
	cmd.Flags().StringArrayVar(&roles, "role", []string{"administrator"}, "caller role (repeatable)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "base pattern reference, e.g. pattern_7 (repeatable)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write markup to a file instead of stdout")
	return cmd
}

func reportValidation(res *generate.Result) {
	ev := log.Info()
	if !res.Validation.Valid {
		ev = log.Warn()
	}
	ev.Int("blocks", res.Validation.BlockCount).
		Int("errors", len(res.Validation.Errors)).
		Int("warnings", len(res.Validation.Warnings)).
		Str("model", res.Model).
		Int("input_tokens", res.InputTokens).
		Int("output_tokens", res.OutputTokens).
		Msg("generation finished")
	for _, e := range res.Validation.Errors {
		log.Warn().Msg(e)
	}
	for _, w := range res.Validation.Warnings {
		log.Debug().Msg(w)
	}
}
