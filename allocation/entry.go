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

import (
	"strings"

	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/quote"
)

// Entry is an instrument held in a generated portfolio. Allocation is in
// percentage points. Market fields are only set after Enrich.
type Entry struct {
	catalog.Instrument

	Allocation float64 `json:"allocation"`

	PreviousClose    float64 `json:"previousClose,omitempty"`
	Open             float64 `json:"open,omitempty"`
	DayHigh          float64 `json:"dayHigh,omitempty"`
	DayLow           float64 `json:"dayLow,omitempty"`
	Volume           int64   `json:"volume,omitempty"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow,omitempty"`
	PriceToBook      float64 `json:"priceToBook,omitempty"`
	LastUpdated      string  `json:"lastUpdated,omitempty"`
}

// Normalize rescales allocations so they sum to 100. When every allocation is
// zero the portfolio is split equally. The input is not modified.
func Normalize(entries []Entry) []Entry {
	total := 0.0
	for _, entry := range entries {
		total += entry.Allocation
	}

	normalized := make([]Entry, len(entries))
	copy(normalized, entries)

	if total == 0 {
		equal := 100 / float64(len(entries))
		for idx := range normalized {
			normalized[idx].Allocation = equal
		}
		return normalized
	}

	for idx := range normalized {
		normalized[idx].Allocation = normalized[idx].Allocation / total * 100
	}
	return normalized
}

// Enrich returns a copy of entries with live market data applied. Entries
// without a priced quote are returned unchanged. A zero dividend yield or
// trailing PE in the quote keeps the catalog value.
func Enrich(entries []Entry, quotes map[string]*quote.Quote) []Entry {
	enriched := make([]Entry, len(entries))
	copy(enriched, entries)

	for idx := range enriched {
		q, ok := quotes[enriched[idx].Ticker]
		if !ok || q == nil || q.Price == 0 {
			continue
		}

		entry := &enriched[idx]
		entry.Price = q.Price
		entry.PreviousClose = q.PreviousClose
		entry.Open = q.Open
		entry.DayHigh = q.DayHigh
		entry.DayLow = q.DayLow
		entry.Volume = q.Volume
		entry.MarketCap = q.MarketCap
		entry.FiftyTwoWeekHigh = q.FiftyTwoWeekHigh
		entry.FiftyTwoWeekLow = q.FiftyTwoWeekLow
		entry.PriceToBook = q.PriceToBook
		entry.LastUpdated = q.LastUpdated
		if q.DividendYield != 0 {
			entry.DividendYield = q.DividendYield
		}
		if q.TrailingPE != 0 {
			entry.PER = q.TrailingPE
		}
	}

	return enriched
}

// Tickers lists the tickers of entries in order
func Tickers(entries []Entry) []string {
	tickers := make([]string, len(entries))
	for idx, entry := range entries {
		tickers[idx] = entry.Ticker
	}
	return tickers
}

// overseasMarkers appear in the names of instruments that invest abroad
var overseasMarkers = []string{"미국", "글로벌"}

// Overseas reports whether the entry invests abroad, either by its catalog
// flag or by a marker in its name
func (e Entry) Overseas() bool {
	if e.International {
		return true
	}
	for _, marker := range overseasMarkers {
		if strings.Contains(e.Name, marker) {
			return true
		}
	}
	return false
}

// Resolve fills catalog flags that a client supplied entry may have left
// out. Entries whose ticker is not in the catalog are returned unchanged.
func Resolve(cat *catalog.Catalog, entries []Entry) []Entry {
	resolved := make([]Entry, len(entries))
	copy(resolved, entries)

	for idx := range resolved {
		inst, err := cat.FindByTicker(resolved[idx].Ticker)
		if err != nil {
			continue
		}
		if inst.International {
			resolved[idx].International = true
		}
	}
	return resolved
}
