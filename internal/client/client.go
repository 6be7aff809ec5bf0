// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/idolstats/internal/breaker"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/validation"
)

var (
	// ErrRemote is returned when the endpoint answers with an error envelope.
	ErrRemote = errors.New("remote error")

	// ErrHTTP is returned for answers other than HTTP 200.
	ErrHTTP = errors.New("unexpected http status")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("endpoint unavailable")
)

// DataQuery selects month data. Zero values are omitted from the request
// so the server defaults apply.
type DataQuery struct {
	Gender      string
	Platform    string
	Month       string
	Init        bool
	SortByCount bool
	Limit       int
}

// API is the read surface used by the orchestrator.
type API interface {
	Data(ctx context.Context, q DataQuery) (models.DataResponse, error)
	Metadata(ctx context.Context, name, gender string) (models.IdolMetadata, error)
	AllMetadata(ctx context.Context, gender string) ([]models.IdolMetadata, error)
}

// Client calls the read endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *breaker.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(s breaker.Settings) Option {
	return func(c *Client) { c.cb = newBreaker(s) }
}

// New creates a client for cfg.APIURL.
func New(cfg config.ClientConfig, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/") + "/",
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cb == nil {
		c.cb = newBreaker(breaker.Settings{Name: "edge-api", ConsecutiveFailures: 3, Timeout: 30 * time.Second})
	}
	return c
}

func newBreaker(s breaker.Settings) *breaker.Breaker {
	if s.Name == "" {
		s.Name = "edge-api"
	}
	s.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, ErrRemote) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded)
	}
	return breaker.New(s)
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.cb.State()
}

func (c *Client) call(ctx context.Context, req *apiRequest) (*rawEnvelope, error) {
	env, err := breaker.Execute(c.cb, func() (*rawEnvelope, error) {
		return executeRequest(ctx, c.http, req.buildURL(c.baseURL))
	})
	if err != nil && breaker.IsRejection(err) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return env, err
}

// Data fetches month data. Invalid records are dropped; Meta.Returned
// reflects the records actually returned.
func (c *Client) Data(ctx context.Context, q DataQuery) (models.DataResponse, error) {
	req := newAPIRequest().
		addParam("gender", q.Gender).
		addParam("sns", q.Platform).
		addParam("month", q.Month).
		addBoolParam("init", q.Init).
		addBoolParam("sortByCount", q.SortByCount).
		addIntParam("limit", q.Limit)

	env, err := c.call(ctx, req)
	if err != nil {
		return models.DataResponse{}, fmt.Errorf("fetch %s/%s: %w", q.Gender, q.Platform, err)
	}

	records, err := decodeData[[]models.MetricRecord](env)
	if err != nil {
		return models.DataResponse{}, err
	}
	valid, dropped := validation.FilterRecords(records)
	if dropped > 0 {
		logging.Ctx(ctx).Warn().
			Int("dropped", dropped).
			Str("gender", q.Gender).
			Str("platform", q.Platform).
			Msg("Dropped invalid records from response")
	}

	meta := env.Meta
	if meta.AllMonths == nil {
		meta.AllMonths = []string{}
	}
	meta.Returned = len(valid)
	return models.DataResponse{Status: models.StatusSuccess, Meta: meta, Data: valid}, nil
}

// Metadata fetches one idol's metadata.
func (c *Client) Metadata(ctx context.Context, name, gender string) (models.IdolMetadata, error) {
	req := newAPIRequest().
		addParam("action", "metadata").
		addParam("name", name).
		addParam("gender", gender)

	env, err := c.call(ctx, req)
	if err != nil {
		return models.IdolMetadata{}, fmt.Errorf("metadata %s: %w", name, err)
	}
	meta, err := decodeData[models.IdolMetadata](env)
	if err != nil {
		return models.IdolMetadata{}, err
	}
	if verr := validation.ValidateStruct(&meta); verr != nil {
		return models.IdolMetadata{}, fmt.Errorf("metadata %s: %w: %s", name, ErrRemote, verr.Error())
	}
	return meta, nil
}

// AllMetadata fetches every idol's metadata for a gender. Entries without
// a name are dropped.
func (c *Client) AllMetadata(ctx context.Context, gender string) ([]models.IdolMetadata, error) {
	req := newAPIRequest().
		addParam("action", "allMetadata").
		addParam("gender", gender)

	env, err := c.call(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("all metadata %s: %w", gender, err)
	}
	all, err := decodeData[[]models.IdolMetadata](env)
	if err != nil {
		return nil, err
	}

	valid := make([]models.IdolMetadata, 0, len(all))
	for i := range all {
		if validation.ValidateStruct(&all[i]) == nil {
			valid = append(valid, all[i])
		}
	}
	if dropped := len(all) - len(valid); dropped > 0 {
		logging.Ctx(ctx).Warn().Int("dropped", dropped).Str("gender", gender).Msg("Dropped invalid metadata entries")
	}
	return valid, nil
}
