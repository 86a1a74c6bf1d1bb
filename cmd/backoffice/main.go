package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "backoffice",
		Short:         "Rental back-office maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		provisionPendingCmd(),
		quoteCmd(),
		generateInvoiceCmd(),
		regeneratePdfCmd(),
		reconcileCmd(),
		sweepOverdueCmd(),
		issueTokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
