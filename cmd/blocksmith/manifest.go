package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func manifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manage the block manifest snapshot",
	}
	cmd.AddCommand(manifestBuildCmd())
	cmd.AddCommand(manifestShowCmd())
	cmd.AddCommand(manifestStatsCmd())
	return cmd
}

func manifestBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the manifest from the schema and catalog sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.Regenerate()
			if err != nil {
				return err
			}
			log.Info().
				Int("blocks", len(m.Blocks)).
				Int("layouts", len(m.Layouts)).
				Int("patterns", len(m.Patterns)).
				Msg("manifest built")
			return nil
		},
	}
}

func manifestShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the manifest as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.Get()
			if err != nil {
				return err
			}
			content, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(content))
			return nil
		},
	}
}

func manifestStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print manifest counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.Get()
			if err != nil {
				return err
			}
			content, err := json.MarshalIndent(m.Stats(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(content))
			return nil
		},
	}
}
