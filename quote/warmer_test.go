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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/quote"
	"github.com/penny-vault/pv-advisor/tradecron"
)

var _ = Describe("Warmer", func() {
	var (
		src    *countingSource
		cache  *quote.Cache
		now    time.Time
		warmer *quote.Warmer
	)

	BeforeEach(func() {
		now = time.Date(2024, 7, 15, 12, 0, 0, 0, common.GetTimezone())
		src = &countingSource{}
		cache = quote.NewCache(src, quote.WithClock(func() time.Time { return now }))

		schedule, err := tradecron.New("10 @close * * *", tradecron.RegularHours)
		Expect(err).To(BeNil())
		warmer = quote.NewWarmer(cache, schedule, func() time.Time { return now })
	})

	It("should schedule the first run after the close", func() {
		Expect(warmer.Next()).To(BeTemporally("==", time.Date(2024, 7, 15, 15, 40, 0, 0, common.GetTimezone())))
	})

	It("should wait until the scheduled time", func() {
		_, err := cache.Get(context.Background(), []string{"005930"}, false)
		Expect(err).To(BeNil())

		Expect(warmer.Tick(context.Background())).To(BeFalse())
		Expect(src.Calls()).To(Equal(1))
	})

	It("should refresh the last requested tickers once the time passes", func() {
		_, err := cache.Get(context.Background(), []string{"005930", "000660"}, false)
		Expect(err).To(BeNil())

		now = time.Date(2024, 7, 15, 15, 41, 0, 0, common.GetTimezone())
		Expect(warmer.Tick(context.Background())).To(BeTrue())
		Expect(src.Calls()).To(Equal(2))
		Expect(warmer.Next()).To(BeTemporally("==", time.Date(2024, 7, 16, 15, 40, 0, 0, common.GetTimezone())))

		Expect(warmer.Tick(context.Background())).To(BeFalse())
		Expect(src.Calls()).To(Equal(2))
	})

	It("should skip the refresh when nothing has been requested", func() {
		now = time.Date(2024, 7, 15, 16, 0, 0, 0, common.GetTimezone())
		Expect(warmer.Tick(context.Background())).To(BeTrue())
		Expect(src.Calls()).To(Equal(0))
	})

	It("should stay idle when the schedule never lands on a trading time", func() {
		_, err := cache.Get(context.Background(), []string{"005930"}, false)
		Expect(err).To(BeNil())

		schedule, err := tradecron.New("0 3 * * *", tradecron.RegularHours)
		Expect(err).To(BeNil())
		idle := quote.NewWarmer(cache, schedule, func() time.Time { return now })
		Expect(idle.Next().IsZero()).To(BeTrue())

		now = time.Date(2024, 7, 16, 16, 0, 0, 0, common.GetTimezone())
		Expect(idle.Tick(context.Background())).To(BeFalse())
		Expect(src.Calls()).To(Equal(1))
	})
})
