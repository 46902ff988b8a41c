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

package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/penny-vault/pv-advisor/observability/opentelemetry"
)

const (
	DefaultTTL = 24 * time.Hour

	snapshotTimeout = 5 * time.Second
)

// Cache holds the most recent batch of quotes in a single slot. Every
// request, whatever tickers it names, is answered from the slot while it is
// younger than the TTL.
type Cache struct {
	src   Source
	now   func() time.Time
	ttl   time.Duration
	store Store

	// mu is held across check, fetch and write so concurrent misses
	// trigger a single fetch
	mu          sync.Mutex
	data        map[string]*Quote
	timestamp   time.Time
	lastTickers []string
}

type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithTTL sets how long a fetched batch is served
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSnapshot persists every fetched batch to store
func WithSnapshot(store Store) Option {
	return func(c *Cache) {
		c.store = store
	}
}

func NewCache(src Source, opts ...Option) *Cache {
	c := &Cache{
		src: src,
		now: time.Now,
		ttl: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns quotes for tickers, fetching from the source when the slot is
// empty, expired or forceRefresh is set. If the fetch fails and an older
// batch exists it is served with Offline set.
func (c *Cache) Get(ctx context.Context, tickers []string, forceRefresh bool) (*Result, error) {
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "quote.Get")
	defer span.End()

	span.SetAttributes(
		attribute.StringSlice("Tickers", tickers),
		attribute.Bool("ForceRefresh", forceRefresh),
	)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.lastTickers = append([]string(nil), tickers...)

	if !forceRefresh && c.validLocked(now) {
		log.Debug().Time("CacheTimestamp", c.timestamp).Msg("serving cached quotes")
		span.SetAttributes(attribute.Bool("Cached", true))
		return &Result{
			Data:      copyData(c.data),
			Cached:    true,
			Timestamp: c.timestamp,
			AgeHours:  ageHours(now, c.timestamp),
		}, nil
	}

	log.Info().Strs("Tickers", tickers).Bool("ForceRefresh", forceRefresh).Msg("fetching quotes")
	data, err := c.src.Fetch(ctx, tickers)
	if err != nil {
		span.RecordError(err)

		if c.data != nil && !c.timestamp.IsZero() {
			log.Warn().Err(err).Time("CacheTimestamp", c.timestamp).Msg("quote source failed; serving stored quotes")
			span.SetAttributes(attribute.Bool("Offline", true))
			return &Result{
				Data:      copyData(c.data),
				Cached:    true,
				Offline:   true,
				Timestamp: c.timestamp,
				AgeHours:  ageHours(now, c.timestamp),
			}, nil
		}

		span.SetStatus(codes.Error, "quote fetch failed")
		log.Error().Stack().Err(err).Msg("quote source failed and nothing is cached")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	c.data = data
	c.timestamp = now
	log.Info().Int("Count", len(data)).Msg("quote cache refreshed")

	c.saveLocked(ctx)

	return &Result{
		Data:      copyData(data),
		Cached:    false,
		Timestamp: now,
		AgeHours:  0,
	}, nil
}

// Warm refreshes the slot with the tickers of the most recent request. It
// does nothing when no request has been seen.
func (c *Cache) Warm(ctx context.Context) error {
	c.mu.Lock()
	tickers := append([]string(nil), c.lastTickers...)
	c.mu.Unlock()

	if len(tickers) == 0 {
		log.Debug().Msg("no tickers requested yet; skipping cache warm up")
		return nil
	}

	_, err := c.Get(ctx, tickers, true)
	return err
}

// Invalidate empties the slot and removes any stored snapshot
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.timestamp = time.Time{}

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("could not clear quote snapshot")
		}
	}
	log.Info().Msg("quote cache cleared")
}

// Status describes the slot. An empty slot reports Expired.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timestamp.IsZero() {
		return Status{Expired: true}
	}

	now := c.now()
	return Status{
		Exists:    true,
		Timestamp: c.timestamp,
		AgeHours:  ageHours(now, c.timestamp),
		Expired:   now.Sub(c.timestamp) >= c.ttl,
		Count:     len(c.data),
	}
}

// Restore fills the slot from the snapshot store. A missing snapshot is not
// an error; an expired one is still loaded so it can back an offline
// response.
func (c *Cache) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	snap, err := c.store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		log.Info().Msg("no quote snapshot to restore")
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("could not restore quote snapshot")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = snap.Data
	c.timestamp = snap.Timestamp
	c.lastTickers = snap.Tickers

	log.Info().Time("CacheTimestamp", snap.Timestamp).Int("Count", len(snap.Data)).Msg("restored quote snapshot")
	return nil
}

func (c *Cache) validLocked(now time.Time) bool {
	return c.data != nil && !c.timestamp.IsZero() && now.Sub(c.timestamp) < c.ttl
}

// saveLocked writes the slot to the snapshot store. Failures are logged and
// otherwise ignored.
func (c *Cache) saveLocked(ctx context.Context) {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	snap := &Snapshot{
		Timestamp: c.timestamp,
		Tickers:   c.lastTickers,
		Data:      c.data,
	}
	if err := c.store.Save(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("could not save quote snapshot")
	}
}

func copyData(data map[string]*Quote) map[string]*Quote {
	res := make(map[string]*Quote, len(data))
	for k, v := range data {
		res[k] = v
	}
	return res
}
