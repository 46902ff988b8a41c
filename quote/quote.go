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

// Package quote serves batch price quotes through a single slot cache that
// is refreshed at most once a day.
package quote

import (
	"context"
	"strings"
	"time"
)

// Quote is the market snapshot of one ticker
type Quote struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	PreviousClose    float64 `json:"previousClose"`
	Open             float64 `json:"open"`
	DayHigh          float64 `json:"dayHigh"`
	DayLow           float64 `json:"dayLow"`
	Volume           int64   `json:"volume"`
	MarketCap        float64 `json:"marketCap"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
	DividendYield    float64 `json:"dividendYield"`
	TrailingPE       float64 `json:"trailingPE"`
	ForwardPE        float64 `json:"forwardPE"`
	PriceToBook      float64 `json:"priceToBook"`
	ChangePercent    float64 `json:"changePercent"`
	Change           float64 `json:"change"`
	Currency         string  `json:"currency"`
	LastUpdated      string  `json:"lastUpdated"`
}

// Source produces quotes for a batch of tickers. Tickers the source does not
// know are left out of the result.
type Source interface {
	Fetch(ctx context.Context, tickers []string) (map[string]*Quote, error)
}

// Result is the response of Cache.Get
type Result struct {
	Data      map[string]*Quote
	Cached    bool
	Offline   bool
	Timestamp time.Time
	AgeHours  int
}

// Status describes the cache slot
type Status struct {
	Exists    bool
	Timestamp time.Time
	AgeHours  int
	Expired   bool
	Count     int
}

// ParseTickers splits a comma separated ticker list, trimming whitespace and
// dropping empty items
func ParseTickers(csv string) []string {
	parts := strings.Split(csv, ",")
	tickers := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tickers = append(tickers, part)
		}
	}
	return tickers
}

func ageHours(now, ts time.Time) int {
	return int(now.Sub(ts) / time.Hour)
}
