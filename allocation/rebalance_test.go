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

package allocation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/allocation"
)

var _ = Describe("Rebalance", func() {
	It("should suggest trades that close the gap to target", func() {
		holdings := []allocation.Holding{
			{Ticker: "005930", Price: 70000, Shares: 100, BuyPrice: 65000, TargetAllocation: 50},
			{Ticker: "035720", Price: 50000, Shares: 20, BuyPrice: 55000, TargetAllocation: 30},
			{Ticker: "069500", Price: 40000, Shares: 5, BuyPrice: 38000, TargetAllocation: 20},
		}

		lines := allocation.Rebalance(holdings)
		Expect(lines).To(HaveLen(3))

		// total value is 7,000,000 + 1,000,000 + 200,000 = 8,200,000
		Expect(lines[0].CurrentValue).To(Equal(7_000_000.0))
		Expect(lines[0].Suggestion).To(Equal(allocation.SuggestSell))
		Expect(lines[1].Suggestion).To(Equal(allocation.SuggestBuy))
		Expect(lines[2].Suggestion).To(Equal(allocation.SuggestBuy))

		// 30% of 8.2M is 2,460,000; holding 1M leaves 1,460,000 or 29 shares
		Expect(lines[1].RequiredAmount).To(BeNumerically("~", 1_460_000, 1e-3))
		Expect(lines[1].RequiredShares).To(Equal(int64(29)))
	})

	It("should hold positions within two points of target", func() {
		holdings := []allocation.Holding{
			{Ticker: "A", Price: 1000, Shares: 51, BuyPrice: 1000, TargetAllocation: 50},
			{Ticker: "B", Price: 1000, Shares: 49, BuyPrice: 1000, TargetAllocation: 50},
		}
		for _, line := range allocation.Rebalance(holdings) {
			Expect(line.Suggestion).To(Equal(allocation.SuggestHold))
		}
	})

	It("should value holdings without a buy price at zero", func() {
		holdings := []allocation.Holding{
			{Ticker: "A", Price: 1000, Shares: 10, BuyPrice: 1000, TargetAllocation: 50},
			{Ticker: "B", Price: 1000, Shares: 10, TargetAllocation: 50},
		}
		lines := allocation.Rebalance(holdings)
		Expect(lines[1].CurrentValue).To(Equal(0.0))
		Expect(lines[1].CurrentAllocation).To(Equal(0.0))
		Expect(lines[1].Suggestion).To(Equal(allocation.SuggestBuy))
	})

	It("should return nothing when the holdings have no value", func() {
		Expect(allocation.Rebalance([]allocation.Holding{{Ticker: "A", Price: 1000}})).To(BeEmpty())
	})
})
