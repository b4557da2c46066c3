package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "statements",
		Short:   "Parse bank statement PDFs into enriched transactions",
		Version: version,
		Long: `statements reads bank statement PDFs, reconstructs the transaction table
and enriches every row with merchant, category, payment method, tags and
recurrence using keyword rules and feature scoring.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (text, json)")

	root.AddCommand(parseCmd())
	root.AddCommand(serveCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
