package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/will-x86/linkgraph/runner"
)

func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl once and print the link graph as JSON",
		Long: `Crawl runs a single breadth-first crawl from url and writes the resulting
graph as JSON to stdout, or to --output.

Examples:
  # Seed plus its direct links
  linkgraph crawl https://example.com

  # Two hops, forgetting previously visited pages first
  linkgraph crawl https://example.com --depth 2 --reset -o graph.json`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("depth", "d", -1, "Maximum link distance from the seed (default crawl.default_depth)")
	cmd.Flags().Bool("reset", false, "Clear the visited registry before crawling")
	cmd.Flags().StringP("output", "o", "", "Write the graph to this file instead of stdout")
	cmd.Flags().Bool("stats", false, "Include crawl id and statistics in the output")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	depth, _ := cmd.Flags().GetInt("depth")
	if depth < 0 {
		depth = a.cfg.Crawl.DefaultDepth
	}
	if depth > a.cfg.Crawl.MaxDepthLimit {
		return fmt.Errorf("depth %d exceeds crawl.max_depth_limit %d", depth, a.cfg.Crawl.MaxDepthLimit)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := a.scheduler.Reset(ctx); err != nil {
			return err
		}
	}

	result, err := a.scheduler.Crawl(ctx, args[0], depth)
	if err != nil {
		return err
	}
	if result.Stats.State == runner.StateAborted {
		a.log.Warn("Crawl %s aborted, output is partial: %v", result.ID, result.Stats.Err)
	}

	var payload any = result.Graph
	if withStats, _ := cmd.Flags().GetBool("stats"); withStats {
		payload = result
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return writeGraph(cmd.OutOrStdout(), payload)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := writeGraph(f, payload); err != nil {
		return err
	}
	a.log.Info("Wrote %d nodes and %d links to %s", len(result.Graph.Nodes), len(result.Graph.Links), output)
	return nil
}

func writeGraph(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}
