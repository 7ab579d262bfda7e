package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/timberland/blocksmith/internal/logging"
)

// version stamps manifests; a snapshot built by an older binary is
// rebuilt on first use.
const version = "0.1.0"

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:   "blocksmith",
		Short: "blocksmith generates page-builder block markup with LLMs",
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", filepath.Join(".blocksmith", "config.json"), "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("bind config flag: %w", err)
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(debug)
	}
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(structureCmd())
	rootCmd.AddCommand(assembleCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(manifestCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd.Execute()
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = filepath.Join(".blocksmith", "config.json")
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
