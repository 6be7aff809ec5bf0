// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Global flags inherited by all subcommands.
var (
	apiURL     string
	cacheDir   string
	logLevel   string
	jsonOutput bool
)

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

func main() {
	if err := buildRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "idolctl",
		Short:        "Idol social media rankings in the terminal",
		Long:         "Browse monthly idol rankings from an idolstats server, manage the local cache and run one-shot cache warms.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "read endpoint base URL (env: IDOLSTATS_API_URL)")
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "local cache directory (env: CLIENT_CACHE_DIR)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	root.AddCommand(
		buildShowCmd(),
		buildDetailCmd(),
		buildCacheCmd(),
		buildWarmCmd(),
		buildVersionCmd(),
	)
	return root
}

// loadConfig reads the shared configuration and applies flag overrides.
// Logs go to stderr so that stdout stays machine readable.
func loadConfig(stderr io.Writer) error {
	loaded, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if apiURL != "" {
		loaded.Client.APIURL = apiURL
	}
	if cacheDir != "" {
		loaded.Client.CacheDir = cacheDir
	}
	cfg = loaded

	logging.Init(logging.Config{
		Level:  logLevel,
		Format: "console",
		Output: stderr,
	})
	return nil
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the idolctl version",
		// Skip configuration loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version":    version,
					"go_version": runtime.Version(),
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "idolctl %s (%s)\n", version, runtime.Version())
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
