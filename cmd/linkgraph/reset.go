package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the visited registry",
		Long: `Reset forgets every visited page in the configured registry, so the next crawl
reports the full graph again. Only useful with a persistent registry driver.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			before, err := a.registry.Len(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.scheduler.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d visited pages from the %s registry\n", before, a.cfg.Registry.Driver)
			return nil
		},
	}
}
