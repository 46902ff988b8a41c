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

package quote_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/quote"
)

var errSourceDown = errors.New("source down")

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) Fetch(ctx context.Context, tickers []string) (map[string]*quote.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := make(map[string]*quote.Quote, len(tickers))
	for _, ticker := range tickers {
		res[ticker] = &quote.Quote{Ticker: ticker, Price: float64(s.calls)}
	}
	return res, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryStore struct {
	snap    *quote.Snapshot
	saves   int
	cleared bool
}

func (m *memoryStore) Load(ctx context.Context) (*quote.Snapshot, error) {
	if m.snap == nil {
		return nil, quote.ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *memoryStore) Save(ctx context.Context, snap *quote.Snapshot) error {
	m.saves++
	m.snap = snap
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.cleared = true
	m.snap = nil
	return nil
}

var _ = Describe("Cache", func() {
	var (
		ctx   context.Context
		src   *countingSource
		now   time.Time
		cache *quote.Cache
	)

	BeforeEach(func() {
		ctx = context.Background()
		src = &countingSource{}
		now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
		cache = quote.NewCache(src, quote.WithClock(func() time.Time { return now }))
	})

	It("should reject an empty ticker list", func() {
		_, err := cache.Get(ctx, nil, false)
		Expect(errors.Is(err, quote.ErrNoTickers)).To(BeTrue())
	})

	It("should fetch on the first request and serve the slot afterwards", func() {
		res, err := cache.Get(ctx, []string{"005930"}, false)
		Expect(err).To(BeNil())
		Expect(res.Cached).To(BeFalse())
		Expect(res.AgeHours).To(Equal(0))

		now = now.Add(5*time.Hour + 30*time.Minute)
		res, err = cache.Get(ctx, []string{"035420"}, false)
		Expect(err).To(BeNil())
		Expect(res.Cached).To(BeTrue())
		Expect(res.AgeHours).To(Equal(5))
		Expect(res.Data).To(HaveKey("005930"))
		Expect(res.Data).ToNot(HaveKey("035420"))
		Expect(src.Calls()).To(Equal(1))
	})

	DescribeTable("expiry",
		func(age time.Duration, cached bool) {
			_, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())

			now = now.Add(age)
			res, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())
			Expect(res.Cached).To(Equal(cached))
		},
		Entry("just before a day", 23*time.Hour+59*time.Minute, true),
		Entry("exactly a day", 24*time.Hour, false),
		Entry("just after a day", 24*time.Hour+time.Minute, false),
	)

	It("should refetch when forced", func() {
		_, err := cache.Get(ctx, []string{"005930"}, false)
		Expect(err).To(BeNil())

		res, err := cache.Get(ctx, []string{"005930"}, true)
		Expect(err).To(BeNil())
		Expect(res.Cached).To(BeFalse())
		Expect(res.Data["005930"].Price).To(Equal(2.0))
	})

	It("should fetch once for concurrent misses", func() {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := cache.Get(ctx, []string{"005930"}, false)
				Expect(err).To(BeNil())
			}()
		}
		wg.Wait()
		Expect(src.Calls()).To(Equal(1))
	})

	Context("when the source fails", func() {
		It("should report an upstream error when nothing is cached", func() {
			src.err = errSourceDown
			_, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(errors.Is(err, quote.ErrUpstream)).To(BeTrue())
			Expect(errors.Is(err, errSourceDown)).To(BeTrue())
		})

		It("should serve the stale slot as offline data", func() {
			_, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())

			src.err = errSourceDown
			now = now.Add(30 * time.Hour)
			res, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())
			Expect(res.Cached).To(BeTrue())
			Expect(res.Offline).To(BeTrue())
			Expect(res.AgeHours).To(Equal(30))
		})
	})

	Describe("Status", func() {
		It("should report an empty slot as expired", func() {
			st := cache.Status()
			Expect(st.Exists).To(BeFalse())
			Expect(st.Expired).To(BeTrue())
			Expect(st.Count).To(Equal(0))
		})

		It("should describe a filled slot", func() {
			_, err := cache.Get(ctx, []string{"005930", "035420"}, false)
			Expect(err).To(BeNil())

			now = now.Add(3 * time.Hour)
			st := cache.Status()
			Expect(st.Exists).To(BeTrue())
			Expect(st.AgeHours).To(Equal(3))
			Expect(st.Expired).To(BeFalse())
			Expect(st.Count).To(Equal(2))

			now = now.Add(21 * time.Hour)
			Expect(cache.Status().Expired).To(BeTrue())
		})
	})

	It("should empty the slot on Invalidate", func() {
		_, err := cache.Get(ctx, []string{"005930"}, false)
		Expect(err).To(BeNil())

		cache.Invalidate(ctx)
		Expect(cache.Status().Exists).To(BeFalse())

		res, err := cache.Get(ctx, []string{"005930"}, false)
		Expect(err).To(BeNil())
		Expect(res.Cached).To(BeFalse())
	})

	Describe("Warm", func() {
		It("should do nothing before the first request", func() {
			Expect(cache.Warm(ctx)).To(Succeed())
			Expect(src.Calls()).To(Equal(0))
		})

		It("should refetch the last requested tickers", func() {
			_, err := cache.Get(ctx, []string{"005930", "069500"}, false)
			Expect(err).To(BeNil())

			Expect(cache.Warm(ctx)).To(Succeed())
			Expect(src.Calls()).To(Equal(2))

			res, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())
			Expect(res.Cached).To(BeTrue())
			Expect(res.Data).To(HaveKey("069500"))
		})
	})

	Context("with a snapshot store", func() {
		var store *memoryStore

		BeforeEach(func() {
			store = &memoryStore{}
			cache = quote.NewCache(src,
				quote.WithClock(func() time.Time { return now }),
				quote.WithSnapshot(store),
			)
		})

		It("should save every fetched batch", func() {
			_, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())
			Expect(store.saves).To(Equal(1))
			Expect(store.snap.Tickers).To(Equal([]string{"005930"}))
			Expect(store.snap.Timestamp).To(Equal(now))
		})

		It("should restore a saved batch", func() {
			store.snap = &quote.Snapshot{
				Timestamp: now.Add(-2 * time.Hour),
				Tickers:   []string{"148070"},
				Data:      map[string]*quote.Quote{"148070": {Ticker: "148070", Price: 105500}},
			}

			Expect(cache.Restore(ctx)).To(Succeed())
			res, err := cache.Get(ctx, []string{"148070"}, false)
			Expect(err).To(BeNil())
			Expect(res.Cached).To(BeTrue())
			Expect(res.AgeHours).To(Equal(2))
			Expect(src.Calls()).To(Equal(0))
		})

		It("should treat a missing snapshot as an empty slot", func() {
			Expect(cache.Restore(ctx)).To(Succeed())
			Expect(cache.Status().Exists).To(BeFalse())
		})

		It("should clear the snapshot on Invalidate", func() {
			_, err := cache.Get(ctx, []string{"005930"}, false)
			Expect(err).To(BeNil())
			cache.Invalidate(ctx)
			Expect(store.cleared).To(BeTrue())
		})
	})
})
