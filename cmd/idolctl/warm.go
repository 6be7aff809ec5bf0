// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/servercache"
	"github.com/tomtom215/idolstats/internal/warmer"
)

// openOrigin opens the configured origin. Tests replace it.
var openOrigin = func(cfg config.OriginConfig) (origin.Source, io.Closer) {
	src := origin.NewDuckDBSource(cfg)
	return src, src
}

type warmOutput struct {
	Backend   string         `json:"backend"`
	Persisted bool           `json:"persisted"`
	Summary   warmer.Summary `json:"summary"`
	Error     string         `json:"error,omitempty"`
}

func buildWarmCmd() *cobra.Command {
	var (
		platforms []string
		genders   []string
		year      string
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Run one cache warm against the local origin",
		Long: "Reads the origin configured for the server and writes month indexes and month data into the server cache.\n" +
			"With the badger backend the server must be stopped, since the cache directory is locked while open.\n" +
			"With the memory backend nothing is kept and the run only reports what it would cache.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(platforms) == 0 {
				platforms = cfg.Warmer.Platforms
			}
			if len(genders) == 0 {
				genders = cfg.Warmer.Genders
			}
			if err := validateWarmScope(platforms, genders, year); err != nil {
				return err
			}

			src, closer := openOrigin(cfg.Origin)
			defer closer.Close()

			backend, persisted, err := openWarmBackend(cfg.Cache)
			if err != nil {
				return err
			}
			defer backend.Close()

			w := warmer.New(src, servercache.New(backend, src, cfg.Cache), cfg.Warmer.Ceiling)
			summary, warmErr := w.Warm(cmd.Context(), warmer.Request{
				Platforms: platforms,
				Genders:   genders,
				Year:      year,
			})

			if jsonOutput {
				out := warmOutput{Backend: cfg.Cache.Backend, Persisted: persisted, Summary: summary}
				if warmErr != nil {
					out.Error = warmErr.Error()
				}
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return warmErr
			}
			if err := renderSummary(cmd.OutOrStdout(), summary, persisted); err != nil {
				return err
			}
			return warmErr
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "sns", nil, "platforms to warm (default from configuration)")
	cmd.Flags().StringSliceVar(&genders, "gender", nil, "gender buckets to warm (default from configuration)")
	cmd.Flags().StringVar(&year, "year", "", "restrict month data to one year, YYYY")
	return cmd
}

func validateWarmScope(platforms, genders []string, year string) error {
	for _, p := range platforms {
		if !slices.Contains(models.Platforms(), p) {
			return fmt.Errorf("unknown platform %q, want one of: %s", p, strings.Join(models.Platforms(), ", "))
		}
	}
	for _, g := range genders {
		if !models.ValidGender(g) {
			return fmt.Errorf("unknown gender %q, want %s or %s", g, models.GenderMale, models.GenderFemale)
		}
	}
	if year != "" && (len(year) != 4 || strings.Trim(year, "0123456789") != "") {
		return fmt.Errorf("--year must be four digits, got %q", year)
	}
	return nil
}

// openWarmBackend opens the server cache backend. It reports whether the
// warmed entries outlive the command.
func openWarmBackend(cfg config.CacheConfig) (cache.Backend, bool, error) {
	if cfg.Backend != "badger" {
		return cache.NewMemoryBackend(), false, nil
	}
	b, err := cache.OpenBadger(cfg.Path)
	if err != nil {
		return nil, false, fmt.Errorf("open server cache %s (is the server running?): %w", cfg.Path, err)
	}
	return b, true, nil
}

func renderSummary(w io.Writer, s warmer.Summary, persisted bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "items cached\t%d\n", s.ItemsCached)
	fmt.Fprintf(tw, "records processed\t%d\n", s.RecordsProcessed)
	fmt.Fprintf(tw, "oversize skipped\t%d\n", s.OversizeSkipped)
	fmt.Fprintf(tw, "elapsed\t%s\n", s.Elapsed)
	fmt.Fprintf(tw, "origin scan\t%s (%.0f%%)\n", s.ScanTime, s.ScanFraction()*100)
	fmt.Fprintf(tw, "completed\t%s\n", joinUnits(s.Completed))
	if s.Truncated() {
		fmt.Fprintf(tw, "skipped\t%s\n", joinUnits(s.Skipped))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !persisted {
		_, err := fmt.Fprintln(w, "\nMemory backend: nothing was persisted.")
		return err
	}
	return nil
}

func joinUnits(units []warmer.Unit) string {
	if len(units) == 0 {
		return "-"
	}
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.String()
	}
	return strings.Join(parts, ", ")
}
