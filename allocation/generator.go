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

// Package allocation turns an investor survey into a model portfolio using a
// fixed allocation table per risk tolerance.
package allocation

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/catalog"
)

const (
	conservativeStrategy = "안정적인 배당 수익을 중심으로 한 보수적 포트폴리오"
	moderateStrategy     = "안정성과 성장성의 균형을 맞춘 포트폴리오"
	aggressiveStrategy   = "높은 성장성을 추구하는 공격적 포트폴리오"
)

// positions in the catalog ETF registry
const (
	broadMarketETF = 0
	bondETF        = 2
)

// Result is a generated model portfolio and its explanation
type Result struct {
	Portfolio         []Entry           `json:"portfolio"`
	Strategy          string            `json:"strategy"`
	ISARecommendation ISARecommendation `json:"isaRecommendation"`
	Summary           string            `json:"summary"`
	RiskLevel         RiskLevel         `json:"riskLevel"`
	ExpectedReturn    ReturnRange       `json:"expectedReturn"`
}

// Generator builds portfolios from a catalog. Stock selection is randomized;
// pass a seeded source to New for reproducible output.
type Generator struct {
	catalog *catalog.Catalog

	// rand.Rand is not safe for concurrent use
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a generator. A nil src seeds from the current time.
func New(cat *catalog.Catalog, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{
		catalog: cat,
		rnd:     rand.New(src),
	}
}

// Generate builds the model portfolio for profile
func (g *Generator) Generate(profile Profile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		log.Warn().Err(err).Str("RiskTolerance", string(profile.RiskTolerance)).Msg("refusing to generate portfolio")
		return nil, err
	}

	var portfolio []Entry
	var strategy string

	switch profile.RiskTolerance {
	case catalog.Conservative:
		strategy = conservativeStrategy
		portfolio = g.conservative(profile)
	case catalog.Moderate:
		strategy = moderateStrategy
		portfolio = g.moderate(profile)
	case catalog.Aggressive:
		strategy = aggressiveStrategy
		portfolio = g.aggressive(profile)
	}

	log.Debug().Str("RiskTolerance", string(profile.RiskTolerance)).Strs("Tickers", Tickers(portfolio)).Msg("generated portfolio")

	return &Result{
		Portfolio:         Normalize(portfolio),
		Strategy:          strategy,
		ISARecommendation: RecommendISA(profile.UserProfile, profile.RiskTolerance),
		Summary:           Summarize(portfolio, profile.RiskTolerance),
		RiskLevel:         RiskLevelFor(profile.RiskTolerance),
		ExpectedReturn:    ExpectedReturnFor(profile.RiskTolerance, profile.InvestmentPeriod),
	}, nil
}

// conservative holds five dividend stocks (70%) and a treasury bond ETF (30%)
func (g *Generator) conservative(profile Profile) []Entry {
	dividend := g.selectStocks(g.catalog.Dividend(), 5, profile)

	portfolio := make([]Entry, 0, len(dividend)+1)
	portfolio = append(portfolio, weighted(dividend, 70.0/5)...)
	portfolio = append(portfolio, g.fixedETF(bondETF, 30)...)
	return portfolio
}

// moderate holds three large caps (50%), two growth stocks (30%) and a
// broad market ETF (20%)
func (g *Generator) moderate(profile Profile) []Entry {
	largeCap := g.selectStocks(g.catalog.LargeCap(), 3, profile)
	growth := g.selectStocks(excluding(g.catalog.Growth(), largeCap), 2, profile)

	portfolio := make([]Entry, 0, len(largeCap)+len(growth)+1)
	portfolio = append(portfolio, weighted(largeCap, 50.0/3)...)
	portfolio = append(portfolio, weighted(growth, 30.0/2)...)
	portfolio = append(portfolio, g.fixedETF(broadMarketETF, 20)...)
	return portfolio
}

// aggressive holds five growth stocks (60%) and three more names drawn from
// the growth and large cap lists (40%)
func (g *Generator) aggressive(profile Profile) []Entry {
	growth := g.selectStocks(g.catalog.Growth(), 5, profile)

	pool := append(g.catalog.Growth(), g.catalog.LargeCap()...)
	midCap := g.selectStocks(excluding(pool, growth), 3, profile)

	portfolio := make([]Entry, 0, len(growth)+len(midCap))
	portfolio = append(portfolio, weighted(growth, 60.0/5)...)
	portfolio = append(portfolio, weighted(midCap, 40.0/3)...)
	return portfolio
}

func (g *Generator) fixedETF(position int, allocation float64) []Entry {
	etfs := g.catalog.ETFs()
	if position >= len(etfs) {
		log.Warn().Int("Position", position).Int("NumETFs", len(etfs)).Msg("catalog is missing a fixed ETF; skipping")
		return nil
	}
	return []Entry{{Instrument: etfs[position], Allocation: allocation}}
}

func weighted(instruments []catalog.Instrument, allocation float64) []Entry {
	entries := make([]Entry, len(instruments))
	for idx, inst := range instruments {
		entries[idx] = Entry{Instrument: inst, Allocation: allocation}
	}
	return entries
}

// excluding returns the instruments in list whose ticker is not in chosen
func excluding(list, chosen []catalog.Instrument) []catalog.Instrument {
	taken := make(map[string]bool, len(chosen))
	for _, inst := range chosen {
		taken[inst.Ticker] = true
	}

	res := make([]catalog.Instrument, 0, len(list))
	for _, inst := range list {
		if !taken[inst.Ticker] {
			res = append(res, inst)
		}
	}
	return res
}
