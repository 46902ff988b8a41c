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
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Schedule yields the next time a job should run after t
type Schedule interface {
	Next(t time.Time) time.Time
}

// Warmer re-fetches the most recently requested tickers on a market aware
// schedule. Tick is meant to be called frequently by a job scheduler; the
// cache is only refreshed once the scheduled time has passed.
type Warmer struct {
	cache    *Cache
	schedule Schedule
	now      func() time.Time

	mu   sync.Mutex
	next time.Time
}

func NewWarmer(cache *Cache, schedule Schedule, now func() time.Time) *Warmer {
	if now == nil {
		now = time.Now
	}
	w := &Warmer{
		cache:    cache,
		schedule: schedule,
		now:      now,
	}
	w.next = schedule.Next(now())
	return w
}

// Next reports when the cache will next be refreshed. The zero time means
// the schedule never fires.
func (w *Warmer) Next() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}

// Tick refreshes the cache if the scheduled time has been reached and
// reports whether a refresh was attempted. A warmer whose schedule never
// fires does nothing.
func (w *Warmer) Tick(ctx context.Context) bool {
	w.mu.Lock()
	now := w.now()
	if w.next.IsZero() || now.Before(w.next) {
		w.mu.Unlock()
		return false
	}
	w.next = w.schedule.Next(now)
	next := w.next
	w.mu.Unlock()

	if err := w.cache.Warm(ctx); err != nil {
		log.Warn().Err(err).Time("NextRun", next).Msg("quote cache warm up failed")
	} else {
		log.Info().Time("NextRun", next).Msg("quote cache warmed")
	}
	return true
}
