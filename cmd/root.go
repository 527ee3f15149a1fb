// Package cmd defines and implements the CLI commands for the hncrawl
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hncrawl",
		Short: "A Hacker News top-stories crawler.",
		Long: `hncrawl polls the Hacker News front page, downloads each new top
story's page together with every page linked from its comment thread, and
writes a per-cycle JSON report next to the downloaded files.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults apply when omitted)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point. It installs signal handling so Ctrl-C and
// SIGTERM cancel the crawl context for a clean shutdown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
