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

// Package analytics talks to the Python analytics service that runs
// backtests, portfolio theory statistics, news sentiment and hybrid stock
// recommendations.
package analytics

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/penny-vault/pv-advisor/fetch"
	"github.com/penny-vault/pv-advisor/observability/opentelemetry"
)

const (
	BacktestPath = "/api/backtest"
	MPTPath      = "/api/mpt/analyze"
	NewsPath     = "/api/news/sentiment"
	HybridPath   = "/api/recommendations/hybrid"

	DefaultMemoSize = 128
	DefaultMemoTTL  = time.Hour
)

type memoEntry struct {
	body    json.RawMessage
	created time.Time
}

// Client calls the analytics service through a retrying fetch client.
// Successful responses are memoized by request so repeated questions do not
// reach the service again until the memo entry expires.
type Client struct {
	fetch   *fetch.Client
	baseURL string
	memo    *lru.Cache
	memoTTL time.Duration
	limiter *rate.Limiter
	now     func() time.Time
}

type Option func(*Client)

// WithMemoTTL sets how long a memoized response is reused
func WithMemoTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.memoTTL = ttl
	}
}

// WithRateLimit bounds outbound requests to perSecond with the given burst.
// A non-positive rate disables the limiter.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithClock replaces time.Now for memo expiry
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for the service at baseURL. memoSize bounds the
// number of memoized responses; zero disables memoization.
func New(baseURL string, fc *fetch.Client, memoSize int, opts ...Option) (*Client, error) {
	if fc == nil {
		fc = fetch.NewClient()
	}

	c := &Client{
		fetch:   fc,
		baseURL: strings.TrimRight(baseURL, "/"),
		memoTTL: DefaultMemoTTL,
		now:     time.Now,
	}

	if memoSize > 0 {
		memo, err := lru.New(memoSize)
		if err != nil {
			log.Error().Err(err).Int("MemoSize", memoSize).Msg("could not create analytics memo")
			return nil, err
		}
		c.memo = memo
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Backtest replays the weighted basket over the requested period
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (json.RawMessage, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return c.post(ctx, BacktestPath, req)
}

// AnalyzeMPT returns risk, return and correlation statistics of the basket
func (c *Client) AnalyzeMPT(ctx context.Context, req MPTRequest) (json.RawMessage, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return c.post(ctx, MPTPath, req)
}

// NewsSentiment scores recent headlines of each ticker
func (c *Client) NewsSentiment(ctx context.Context, req NewsRequest) (json.RawMessage, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return c.post(ctx, NewsPath, req)
}

// HybridRecommendations suggests stocks that complement the portfolio
func (c *Client) HybridRecommendations(ctx context.Context, req HybridRequest) (*HybridResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, HybridPath, req)
	if err != nil {
		return nil, err
	}

	resp := &HybridResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		log.Error().Err(err).Str("Path", HybridPath).Msg("could not decode hybrid recommendations")
		return nil, err
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []json.RawMessage{}
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analytics.post")
	defer span.End()

	span.SetAttributes(attribute.String("Path", path))
	subLog := log.With().Str("Path", path).Logger()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	key := memoKey(path, body)
	if cached, ok := c.lookup(key); ok {
		span.SetAttributes(attribute.Bool("Memoized", true))
		subLog.Debug().Msg("serving memoized analytics response")
		return cached, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	resp, err := c.fetch.Do(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + path,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		Body: body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analytics request failed")
		subLog.Error().Err(err).Msg("analytics request failed")
		return nil, err
	}

	if !json.Valid(resp.Body) {
		err := &fetch.StatusError{StatusCode: resp.StatusCode, Body: "response is not valid JSON"}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid analytics response")
		subLog.Error().Err(err).Msg("analytics response is not JSON")
		return nil, err
	}

	c.store(key, resp.Body)
	return json.RawMessage(resp.Body), nil
}

// memoKey hashes the endpoint and the canonical request body
func memoKey(path string, body []byte) string {
	h := blake3.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) lookup(key string) (json.RawMessage, bool) {
	if c.memo == nil {
		return nil, false
	}

	v, ok := c.memo.Get(key)
	if !ok {
		return nil, false
	}

	entry := v.(memoEntry)
	if c.now().Sub(entry.created) >= c.memoTTL {
		c.memo.Remove(key)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(key string, body []byte) {
	if c.memo == nil {
		return
	}
	c.memo.Add(key, memoEntry{
		body:    json.RawMessage(body),
		created: c.now(),
	})
}
