// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/idolstats/internal/clientcache"
)

func buildCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clean the local cache",
	}
	cmd.AddCommand(buildCacheStatsCmd(), buildCacheCleanupCmd(), buildCacheClearCmd())
	return cmd
}

// withCache opens the local cache for the duration of fn.
func withCache(ctx context.Context, fn func(*clientcache.Cache) error) error {
	c, err := clientcache.Open(ctx, cfg.Client)
	if err != nil {
		return fmt.Errorf("open local cache %s: %w", cfg.Client.CacheDir, err)
	}
	if err := fn(c); err != nil {
		_ = c.Close()
		return err
	}
	return c.Close()
}

func buildCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts per collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), func(c *clientcache.Cache) error {
				stats, err := c.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), stats)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "COLLECTION\tENTRIES")
				fmt.Fprintf(tw, "%s\t%d\n", clientcache.CollectionMonthData, stats.MonthData)
				fmt.Fprintf(tw, "%s\t%d\n", clientcache.CollectionMonthIndex, stats.MonthIndex)
				fmt.Fprintf(tw, "%s\t%d\n", clientcache.CollectionMetadata, stats.Metadata)
				fmt.Fprintf(tw, "total\t%d\n", stats.Total())
				fmt.Fprintf(tw, "path\t%s\n", cfg.Client.CacheDir)
				return tw.Flush()
			})
		},
	}
}

func buildCacheCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), func(c *clientcache.Cache) error {
				removed, err := c.CleanupExpired(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
				return err
			})
		},
	}
}

func buildCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), func(c *clientcache.Cache) error {
				if err := c.ClearAll(cmd.Context()); err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]bool{"cleared": true})
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Local cache cleared")
				return err
			})
		},
	}
}
