package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "dinewith",
	Short: "Dinewith booking and payments API",
	// serve is the default when no subcommand is given
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and builds the logger shared by every command.
func bootstrap() (*utils.Config, *zap.Logger, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}

	return config, logger, nil
}
