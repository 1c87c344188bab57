package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gdslab/d2s-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Print the configuration after applying the full override chain:
defaults, config file, environment variables, then CLI flags.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config and session file locations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("config:  %s\n", config.DefaultConfigPath())
			fmt.Printf("session: %s\n", config.SessionPath())

			return nil
		},
	})

	return cmd
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if flagJSON {
		return printJSON(os.Stdout, resolvedCfg)
	}

	fmt.Printf("base_url:   %s\n", resolvedCfg.BaseURL)
	fmt.Printf("email:      %s\n", resolvedCfg.Email)
	fmt.Printf("has_raster: %t\n", resolvedCfg.HasRaster)
	fmt.Printf("workers:    %d\n", resolvedCfg.Workers)
	fmt.Printf("log_level:  %s\n", resolvedCfg.LogLevel)
	fmt.Printf("timeout:    %s\n", resolvedCfg.Timeout)
	fmt.Printf("user_agent: %s\n", resolvedCfg.UserAgent)

	return nil
}
