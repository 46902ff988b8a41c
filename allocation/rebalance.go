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

package allocation

import "math"

// Rebalance suggestions
const (
	SuggestBuy  = "매수"
	SuggestSell = "매도"
	SuggestHold = "유지"
)

// rebalanceBand is the drift in percentage points tolerated before a trade
// is suggested
const rebalanceBand = 2.0

// Holding is a position the investor actually owns alongside its target
// weight in the model portfolio
type Holding struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Shares           float64 `json:"shares"`
	BuyPrice         float64 `json:"buyPrice"`
	TargetAllocation float64 `json:"allocation"`
}

// RebalanceLine is the suggested trade for one holding
type RebalanceLine struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	CurrentValue      float64 `json:"currentValue"`
	CurrentAllocation float64 `json:"currentAllocation"`
	TargetAllocation  float64 `json:"targetAllocation"`
	Difference        float64 `json:"difference"`
	RequiredAmount    float64 `json:"requiredAmount"`
	RequiredShares    int64   `json:"requiredShares"`
	Suggestion        string  `json:"suggestion"`
}

func (h Holding) value() float64 {
	if h.Shares == 0 || h.BuyPrice == 0 {
		return 0
	}
	return h.Shares * h.Price
}

// Rebalance compares the current weight of each holding with its target and
// suggests the trade that closes the gap. Holdings without shares or a buy
// price are valued at zero. An empty result is returned when the holdings
// have no value.
func Rebalance(holdings []Holding) []RebalanceLine {
	total := 0.0
	for _, h := range holdings {
		total += h.value()
	}
	if total <= 0 {
		return []RebalanceLine{}
	}

	lines := make([]RebalanceLine, len(holdings))
	for idx, h := range holdings {
		current := h.value() / total * 100
		diff := h.TargetAllocation - current
		required := diff / 100 * total

		var shares int64
		if h.Price > 0 {
			shares = int64(math.Floor(math.Abs(required) / h.Price))
		}

		suggestion := SuggestHold
		switch {
		case diff > rebalanceBand:
			suggestion = SuggestBuy
		case diff < -rebalanceBand:
			suggestion = SuggestSell
		}

		lines[idx] = RebalanceLine{
			Ticker:            h.Ticker,
			Name:              h.Name,
			CurrentValue:      h.value(),
			CurrentAllocation: current,
			TargetAllocation:  h.TargetAllocation,
			Difference:        diff,
			RequiredAmount:    required,
			RequiredShares:    shares,
			Suggestion:        suggestion,
		}
	}
	return lines
}
