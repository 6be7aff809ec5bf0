// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/idolstats/internal/client"
	"github.com/tomtom215/idolstats/internal/clientcache"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/orchestrator"
	"github.com/tomtom215/idolstats/internal/ranking"
)

var errWaitTimeout = errors.New("timed out waiting for data")

// viewRecorder is the orchestrator renderer for one-shot commands. Views
// and errors are queued for the command to pick up.
type viewRecorder struct {
	views chan orchestrator.View
	errs  chan error
}

func newViewRecorder() *viewRecorder {
	return &viewRecorder{
		views: make(chan orchestrator.View, 32),
		errs:  make(chan error, 8),
	}
}

func (r *viewRecorder) Render(v orchestrator.View) {
	select {
	case r.views <- v:
	default:
	}
}

func (r *viewRecorder) RenderError(err error) {
	select {
	case r.errs <- err:
	default:
	}
}

// await returns the first queued view accepted by done, the first load
// error, or errWaitTimeout.
func (r *viewRecorder) await(ctx context.Context, timeout time.Duration, done func(orchestrator.View) bool) (orchestrator.View, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case v := <-r.views:
			if done(v) {
				return v, nil
			}
		case err := <-r.errs:
			return orchestrator.View{}, err
		case <-timer.C:
			return orchestrator.View{}, errWaitTimeout
		case <-ctx.Done():
			return orchestrator.View{}, ctx.Err()
		}
	}
}

func (r *viewRecorder) drain() {
	for {
		select {
		case <-r.views:
		case <-r.errs:
		default:
			return
		}
	}
}

// session is an orchestrator bound to the local cache and the API.
type session struct {
	orch     *orchestrator.Orchestrator
	store    *clientcache.Cache
	recorder *viewRecorder
}

func openSession(ctx context.Context) (*session, error) {
	store, err := clientcache.Open(ctx, cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("open local cache %s: %w", cfg.Client.CacheDir, err)
	}
	rec := newViewRecorder()
	return &session{
		orch:     orchestrator.New(client.New(cfg.Client), store, rec, cfg.Client),
		store:    store,
		recorder: rec,
	}, nil
}

// close waits for background loads, which must already be cancelled, and
// releases the cache.
func (s *session) close() error {
	s.orch.Wait()
	return s.store.Close()
}

type showOutput struct {
	Gender    string          `json:"gender"`
	Platform  string          `json:"platform"`
	Month     string          `json:"month"`
	BaseMonth string          `json:"base_month"`
	State     string          `json:"state"`
	Entries   []ranking.Entry `json:"entries"`
}

func buildShowCmd() *cobra.Command {
	var (
		gender   string
		platform string
		month    string
		search   string
		saveData bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the monthly ranking for a gender and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !models.ValidGender(gender) {
				return fmt.Errorf("--gender must be %s or %s", models.GenderMale, models.GenderFemale)
			}
			if !slices.Contains(models.Platforms(), platform) {
				return fmt.Errorf("--sns must be one of: %s", strings.Join(models.Platforms(), ", "))
			}
			if saveData {
				cfg.Client.SaveData = true
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			cleanupDone := s.store.StartCleanup(ctx, cfg.Client.CleanupDelay)
			defer func() {
				cancel()
				<-cleanupDone
				_ = s.close()
			}()

			view, err := loadView(ctx, cmd.ErrOrStderr(), s, gender, platform, month)
			if err != nil {
				return err
			}
			if view.Month == "" {
				return fmt.Errorf("no data for %s/%s", gender, platform)
			}

			entries := view.Ranked(search)
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), showOutput{
					Gender:    view.Gender,
					Platform:  view.Platform,
					Month:     view.Month,
					BaseMonth: view.BaseMonth,
					State:     view.State.String(),
					Entries:   entries,
				})
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s · %s · %s\n\n", view.Gender, view.Platform, ranking.FormatMonth(view.Month)); err != nil {
				return err
			}
			return ranking.Render(out, entries, view.Month, view.BaseMonth)
		},
	}

	cmd.Flags().StringVar(&gender, "gender", models.GenderMale, "gender bucket: 남자 or 여자")
	cmd.Flags().StringVar(&platform, "sns", models.PlatformWeibo, "platform")
	cmd.Flags().StringVar(&month, "month", "", "month to show as YYYY-MM (default newest)")
	cmd.Flags().StringVar(&search, "search", "", "filter by idol or group name")
	cmd.Flags().BoolVar(&saveData, "save-data", false, "skip background prefetching")
	return cmd
}

// loadView runs the quick and full loads, then switches to month when one
// is given. A failed full load falls back to the quick view with a warning
// on stderr. The returned view is the settled snapshot.
func loadView(ctx context.Context, warn io.Writer, s *session, gender, platform, month string) (orchestrator.View, error) {
	wait := 2*cfg.Client.RequestTimeout + cfg.Client.FullLoadDelay

	s.orch.SetSelection(gender, platform)
	if err := s.orch.Load(ctx); err != nil {
		return orchestrator.View{}, err
	}
	if _, err := s.recorder.await(ctx, wait, func(v orchestrator.View) bool {
		return v.State == orchestrator.FullLoaded
	}); err != nil {
		warnPartial(warn, err)
	}

	current := s.orch.Snapshot()
	if month == "" || month == current.Month {
		return current, nil
	}
	if !slices.Contains(current.Months, month) {
		return orchestrator.View{}, fmt.Errorf("month %s is not available, have %s", month, strings.Join(current.Months, ", "))
	}

	loaded := s.orch.Loaded(month)
	s.recorder.drain()
	if err := s.orch.HandleMonthChange(ctx, month); err != nil {
		return orchestrator.View{}, err
	}
	if !loaded {
		// The quick slice renders first, the full month second.
		renders := 0
		if _, err := s.recorder.await(ctx, wait, func(v orchestrator.View) bool {
			if v.Month == month {
				renders++
			}
			return renders >= 2
		}); err != nil {
			warnPartial(warn, err)
		}
	}
	return s.orch.Snapshot(), nil
}

func warnPartial(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(w, "warning: showing partial data: %v\n", err)
}

func buildDetailCmd() *cobra.Command {
	var gender string

	cmd := &cobra.Command{
		Use:   "detail <name>",
		Short: "Print an idol's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.ValidGender(gender) {
				return fmt.Errorf("--gender must be %s or %s", models.GenderMale, models.GenderFemale)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() {
				cancel()
				_ = s.close()
			}()

			s.orch.SetSelection(gender, models.PlatformWeibo)
			meta, err := s.orch.Detail(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), meta)
			}
			return renderMetadata(cmd.OutOrStdout(), meta)
		},
	}

	cmd.Flags().StringVar(&gender, "gender", models.GenderMale, "gender bucket: 남자 or 여자")
	return cmd
}

// renderMetadata prints the non-empty fields of meta, known columns first
// and extra columns in name order.
func renderMetadata(w io.Writer, meta models.IdolMetadata) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fields := [][2]string{
		{"이름", meta.Name},
		{"그룹", meta.Group},
		{"성별", meta.Gender},
		{"소속사", meta.Label},
		{"데뷔", meta.DebutYear},
		{"나무위키", meta.NamuWiki},
		{"웨이보", meta.WeiboLink},
		{"웨이보 슈퍼챗", meta.WeiboSuperchatLink},
		{"X", meta.XLink},
		{"빌리빌리", meta.BilibiliLink},
		{"유튜브", meta.YouTubeLink},
		{"QQ뮤직", meta.QQMusicLink},
		{"스포티파이", meta.SpotifyLink},
		{"비고", meta.Note},
	}
	extra := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		fields = append(fields, [2]string{k, meta.Extra[k]})
	}

	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", f[0], f[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
