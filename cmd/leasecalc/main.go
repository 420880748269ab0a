package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leasecalc",
		Short: "Lease cashflow and economics calculator",
	}
	rootCmd.PersistentFlags().String("config", "config/engine.yaml", "path to engine.yaml")

	rootCmd.AddCommand(
		AnalyzeCmd(),
		ScenariosCmd(),
		TerminateCmd(),
		EquivalencyCmd(),
		ListCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
