// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fetch issues outbound HTTP requests with a per-attempt timeout and
// exponential backoff between attempts.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/pv-advisor/observability/opentelemetry"
)

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 15 * time.Second

	baseDelay = 2 * time.Second
)

type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client retries failed requests up to MaxRetries times. Network errors,
// per-attempt timeouts and non-2xx responses are all retried. Cancelling the
// caller's context stops immediately.
type Client struct {
	HTTP       *http.Client
	MaxRetries int
	Timeout    time.Duration

	// OnRetry is called with the attempt number (starting at 1) and the
	// previous error before each backoff
	OnRetry func(attempt int, err error)

	// Sleep waits between attempts; tests replace it to avoid real delays
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client with the default retry count and timeout
func NewClient() *Client {
	return &Client{
		HTTP:       &http.Client{},
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
	}
}

// Backoff is the delay before the given attempt: 0 for the first, then 2s,
// 4s, 8s and so on
func Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return baseDelay << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends req, retrying on failure
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "fetch.Do")
	defer span.End()

	span.SetAttributes(
		attribute.String("URL", req.URL),
		attribute.String("Method", req.Method),
	)

	subLog := log.With().Str("URL", req.URL).Str("Method", req.Method).Logger()

	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt)
			if c.OnRetry != nil {
				c.OnRetry(attempt, lastErr)
			}

			subLog.Warn().Err(lastErr).Int("Attempt", attempt).Int("MaxRetries", maxRetries).Dur("Delay", delay).Msg("retrying request")
			if err := sleep(ctx, delay); err != nil {
				span.RecordError(err)
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			span.SetAttributes(attribute.Int("Attempts", attempt+1))
			subLog.Debug().Int("Attempt", attempt+1).Int("StatusCode", resp.StatusCode).Msg("request succeeded")
			return resp, nil
		}

		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		}

		subLog.Warn().Err(err).Int("Attempt", attempt+1).Msg("request attempt failed")
		lastErr = err
	}

	exhausted := &ExhaustedError{Attempts: maxRetries + 1, Last: lastErr}
	span.RecordError(exhausted)
	span.SetStatus(codes.Error, "retries exhausted")
	subLog.Error().Err(lastErr).Int("Attempts", exhausted.Attempts).Msg("request failed")
	return nil, exhausted
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(payload))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: text}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
	}, nil
}

// DoJSON encodes in as the request body (when non-nil) and decodes the
// response into out (when non-nil)
func (c *Client) DoJSON(ctx context.Context, method, url string, in, out interface{}) error {
	req := Request{
		Method: method,
		URL:    url,
		Header: http.Header{"Accept": []string{"application/json"}},
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req.Body = payload
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}
