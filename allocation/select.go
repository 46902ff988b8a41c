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
	"github.com/penny-vault/pv-advisor/catalog"
)

// selectStocks picks count instruments at random from candidates. The
// profile's preferred sectors are only honored when they leave at least count
// candidates; portfolio size wins over sector purity. Tickers are
// de-duplicated before the draw so each appears at most once.
func (g *Generator) selectStocks(candidates []catalog.Instrument, count int, profile Profile) []catalog.Instrument {
	pool := candidates

	if profile.filtersSectors() {
		preferred := make(map[string]bool, len(profile.PreferredSectors))
		for _, sector := range profile.PreferredSectors {
			preferred[sector] = true
		}

		filtered := make([]catalog.Instrument, 0, len(candidates))
		for _, inst := range candidates {
			if preferred[string(inst.Sector)] {
				filtered = append(filtered, inst)
			}
		}

		if len(filtered) >= count {
			pool = filtered
		}
	}

	seen := make(map[string]bool, len(pool))
	unique := make([]catalog.Instrument, 0, len(pool))
	for _, inst := range pool {
		if !seen[inst.Ticker] {
			seen[inst.Ticker] = true
			unique = append(unique, inst)
		}
	}

	g.mu.Lock()
	g.rnd.Shuffle(len(unique), func(i, j int) {
		unique[i], unique[j] = unique[j], unique[i]
	})
	g.mu.Unlock()

	if count > len(unique) {
		count = len(unique)
	}
	return unique[:count]
}
