// Package commands implements the facturier CLI subcommands.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "facturier-cli",
	Short: "Facturier - bilingual invoices and estimates from the command line",
	Long: `Facturier renders invoice and estimate documents as printable PDFs,
recovers draft documents from existing PDFs, and can run the full
HTTP API in-process for local development.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configPath resolves the config file from the --config flag, falling
// back to the CONFIG_PATH environment variable.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv("CONFIG_PATH")
}
