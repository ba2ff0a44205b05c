package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkgraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkgraph",
		Short: "Crawl a site into a bounded link graph",
		Long: `linkgraph crawls outward from a seed URL, breadth first and up to a fixed depth,
and reports every page it reached as a graph of nodes (url, title, favicon) and
links (source, target).

Pages already visited by an earlier crawl are skipped until the visited cache is
reset, so repeat crawls only report what is new.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: config.yaml in ./configs, . or ~/.linkgraph)")
	cmd.PersistentFlags().String("log-level", "",
		"Override logging.level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
