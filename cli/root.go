package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yevgeniy8/books-reading-backend/cli/config"
)

var rootCmd = &cobra.Command{
	Use:   "readingctl",
	Short: "Reading tracker CLI",
	Long:  `Command-line client for the books reading backend: manage books, your reading plan, and daily progress.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize CLI configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		timezone, _ := cmd.Flags().GetString("timezone")

		cfg := &config.Config{}
		cfg.Server.URL = serverURL
		cfg.Timezone = timezone

		if err := config.Save(cfg); err != nil {
			printError(fmt.Sprintf("Failed to save config: %v", err))
			return err
		}

		printSuccess("Configuration initialized")
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	initCmd.Flags().String("server", "http://localhost:8080", "API server base URL")
	initCmd.Flags().String("timezone", "UTC", "IANA timezone for plan operations")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(progressCmd)
}

func printError(msg string) {
	fmt.Printf("✗ %s\n", msg)
}

func printSuccess(msg string) {
	fmt.Printf("✓ %s\n", msg)
}
