// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/idolstats/internal/models"
)

// maxErrorBodySize limits the amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024

// readBodyForError reads the response body for error reporting (max 64KB)
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// apiRequest holds the query parameters of one endpoint call
type apiRequest struct {
	params url.Values
}

func newAPIRequest() *apiRequest {
	return &apiRequest{params: url.Values{}}
}

// addParam adds a parameter to the request (only if non-empty)
func (r *apiRequest) addParam(key, value string) *apiRequest {
	if value != "" {
		r.params.Set(key, value)
	}
	return r
}

// addIntParam adds an integer parameter to the request (only if > 0)
func (r *apiRequest) addIntParam(key string, value int) *apiRequest {
	if value > 0 {
		r.params.Set(key, strconv.Itoa(value))
	}
	return r
}

// addBoolParam adds key=true when value is set
func (r *apiRequest) addBoolParam(key string, value bool) *apiRequest {
	if value {
		r.params.Set(key, "true")
	}
	return r
}

// buildURL constructs the full URL with all parameters
func (r *apiRequest) buildURL(baseURL string) string {
	if len(r.params) == 0 {
		return baseURL
	}
	return baseURL + "?" + r.params.Encode()
}

// rawEnvelope is decoded first so the status can be checked before the
// payload is interpreted.
type rawEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Meta    models.DataMeta `json:"meta"`
	Data    json.RawMessage `json:"data"`
}

// executeRequest performs a GET and returns the decoded envelope.
func executeRequest(ctx context.Context, client *http.Client, reqURL string) (*rawEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrHTTP, resp.StatusCode, string(body))
	}

	var env rawEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Status != models.StatusSuccess {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	return &env, nil
}

// decodeData decodes the data field of a successful envelope.
func decodeData[T any](env *rawEnvelope) (T, error) {
	var v T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("failed to decode data: %w", err)
	}
	return v, nil
}
