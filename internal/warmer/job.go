// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package warmer

import (
	"context"
	"time"

	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/metrics"
)

// Job is a named warm request, possibly split over several years.
type Job struct {
	Name      string
	Platforms []string
	Genders   []string
	Years     []string
}

// JobFromConfig converts a configured job.
func JobFromConfig(j config.WarmJob) Job {
	return Job{Name: j.Name, Platforms: j.Platforms, Genders: j.Genders, Years: j.Years}
}

// Run warms every year of the job in order, stopping at the first error.
// A failure is reported to n and then returned. There is no retry.
func (j Job) Run(ctx context.Context, w *Warmer, n Notifier) ([]Summary, error) {
	years := j.Years
	if len(years) == 0 {
		years = []string{""}
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	summaries := make([]Summary, 0, len(years))
	for _, year := range years {
		start := time.Now()
		summary, err := w.Warm(ctx, Request{Platforms: j.Platforms, Genders: j.Genders, Year: year})
		summaries = append(summaries, summary)
		metrics.RecordWarmRun(j.Name, time.Since(start), summary.ItemsCached, summary.RecordsProcessed, summary.Truncated(), err)

		if err != nil {
			if n != nil {
				failure := Failure{Job: j.Name, Year: year, Err: err, Summary: summary, At: time.Now()}
				if nerr := n.Notify(ctx, failure); nerr != nil {
					logging.Ctx(ctx).Error().Err(nerr).Str("job", j.Name).Msg("Failed to notify operator")
				}
			}
			return summaries, err
		}
	}
	return summaries, nil
}
