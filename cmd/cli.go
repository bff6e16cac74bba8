package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/habedi/cwactl/db"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits with a code derived from the
// error category.
func Execute(ctx context.Context) {
	rootCmd := createRootCmd()
	initializeDatabase()

	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	err := rootCmd.ExecuteContext(ctx)
	closeDatabase()
	if err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(clierr.ExitCode(err))
	}
}

func errorMessage(err error) string {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cwactl",
		Short:         "A command-line client for the ConnectWise Automate REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to the config file")

	rootCmd.AddCommand(
		initCmd(),
		loginCmd(),
		computersCmd(),
		alertsCmd(),
		inventoryCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func initializeDatabase() {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		os.Exit(1)
	}
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
		os.Exit(1)
	}
}
