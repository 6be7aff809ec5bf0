// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package warmer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/resendlabs/resend-go"

	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
)

// Failure describes a failed warm job.
type Failure struct {
	Job     string
	Year    string
	Err     error
	Summary Summary
	At      time.Time
}

// Notifier tells an operator that a warm job failed.
type Notifier interface {
	Notify(ctx context.Context, f Failure) error
}

// NewNotifier returns a Resend notifier when an API key is configured and a
// log-only notifier otherwise.
func NewNotifier(cfg config.NotifyConfig) Notifier {
	if cfg.ResendAPIKey == "" {
		return LogNotifier{}
	}
	return NewResendNotifier(cfg)
}

// LogNotifier only logs failures.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, f Failure) error {
	logging.Ctx(ctx).Error().
		Err(f.Err).
		Str("job", f.Job).
		Str("year", f.Year).
		Int("items_cached", f.Summary.ItemsCached).
		Msg("Warm job failed")
	return nil
}

// ResendNotifier e-mails failures through Resend.
type ResendNotifier struct {
	send func(*resend.SendEmailRequest) error
	from string
	to   []string
}

// NewResendNotifier creates a notifier from the notify configuration.
func NewResendNotifier(cfg config.NotifyConfig) *ResendNotifier {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &ResendNotifier{
		send: func(req *resend.SendEmailRequest) error {
			_, err := client.Emails.Send(req)
			return err
		},
		from: cfg.From,
		to:   cfg.To,
	}
}

// Notify implements Notifier. The failure is logged as well, so it is not
// lost when the e-mail cannot be sent.
func (n *ResendNotifier) Notify(ctx context.Context, f Failure) error {
	_ = LogNotifier{}.Notify(ctx, f)

	req := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: fmt.Sprintf("[Idolstats] Cache warm job %s failed", f.Job),
		Text:    failureText(f),
		Html:    "<pre>" + html.EscapeString(failureText(f)) + "</pre>",
	}
	if err := n.send(req); err != nil {
		return fmt.Errorf("failed to send warm failure email via Resend: %w", err)
	}
	return nil
}

func failureText(f Failure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job:      %s\n", f.Job)
	if f.Year != "" {
		fmt.Fprintf(&b, "Year:     %s\n", f.Year)
	}
	fmt.Fprintf(&b, "Time:     %s\n", f.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "Error:    %v\n", f.Err)
	fmt.Fprintf(&b, "Run ID:   %s\n", f.Summary.RunID)
	fmt.Fprintf(&b, "Cached:   %d items, %d records\n", f.Summary.ItemsCached, f.Summary.RecordsProcessed)
	fmt.Fprintf(&b, "Elapsed:  %s\n", f.Summary.Elapsed.Round(time.Millisecond))
	if len(f.Summary.Completed) > 0 {
		units := make([]string, len(f.Summary.Completed))
		for i, u := range f.Summary.Completed {
			units[i] = u.String()
		}
		fmt.Fprintf(&b, "Done:     %s\n", strings.Join(units, ", "))
	}
	b.WriteString("\nNo retry is scheduled; the next daily run will try again.\n")
	return b.String()
}
