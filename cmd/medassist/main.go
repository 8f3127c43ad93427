package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2339036/medication-adherence-system/internal/logging"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "medassist",
	Short:         "Medication adherence chat assistant",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devstackCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(faqCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	logging.Preinit()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
