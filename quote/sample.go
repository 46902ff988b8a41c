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
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/common"
)

type sampleRow struct {
	name          string
	price         float64
	change        float64
	changePercent float64
}

var sampleTable = map[string]sampleRow{
	"005930": {"삼성전자", 71000, 500, 0.71},
	"000660": {"SK하이닉스", 132000, -1000, -0.75},
	"055550": {"신한지주", 42500, 200, 0.47},
	"105560": {"KB금융", 62000, 300, 0.49},
	"033780": {"KT&G", 85000, 0, 0},
	"035420": {"NAVER", 225000, 3000, 1.35},
	"005380": {"현대차", 190000, -500, -0.26},
	"051910": {"LG화학", 420000, 5000, 1.20},
	"006400": {"삼성SDI", 385000, -2000, -0.52},
	"035720": {"카카오", 48500, 1000, 2.11},
	"207940": {"삼성바이오로직스", 850000, 10000, 1.19},
	"068270": {"셀트리온", 178000, -3000, -1.66},
	"373220": {"LG에너지솔루션", 425000, 8000, 1.92},
	"247540": {"에코프로비엠", 315000, 15000, 5.00},
	"069500": {"KODEX 200", 38500, 100, 0.26},
	"360750": {"TIGER 미국S&P500", 15200, 50, 0.33},
	"148070": {"KOSEF 국고채10년", 105500, -100, -0.09},
}

// SampleSource synthesizes quotes from a fixed price table. Volume and the
// valuation ratios are drawn from rnd on every fetch.
type SampleSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewSampleSource creates a sample source. A nil src seeds from the current
// time and a nil now uses time.Now.
func NewSampleSource(src rand.Source, now func() time.Time) *SampleSource {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if now == nil {
		now = time.Now
	}
	return &SampleSource{
		rnd: rand.New(src),
		now: now,
	}
}

// Known reports whether the sample table has a price for ticker
func (s *SampleSource) Known(ticker string) bool {
	_, ok := sampleTable[ticker]
	return ok
}

// Fetch implements Source
func (s *SampleSource) Fetch(ctx context.Context, tickers []string) (map[string]*Quote, error) {
	res := make(map[string]*Quote, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := s.quote(ticker)
		if q == nil {
			log.Warn().Str("Ticker", ticker).Msg("ticker not in sample table")
			continue
		}
		res[ticker] = q
	}
	return res, nil
}

func (s *SampleSource) quote(ticker string) *Quote {
	row, ok := sampleTable[ticker]
	if !ok {
		return nil
	}

	s.mu.Lock()
	volume := s.rnd.Int63n(10_000_000) + 1_000_000
	dividendYield := s.rnd.Float64() * 5
	trailingPE := 10 + s.rnd.Float64()*30
	forwardPE := 10 + s.rnd.Float64()*25
	priceToBook := 1 + s.rnd.Float64()*3
	s.mu.Unlock()

	return &Quote{
		Ticker:           ticker,
		Name:             row.name,
		Price:            row.price,
		PreviousClose:    row.price - row.change,
		Open:             row.price - row.change*0.5,
		DayHigh:          row.price + math.Abs(row.change)*0.3,
		DayLow:           row.price - math.Abs(row.change)*0.5,
		Volume:           volume,
		MarketCap:        row.price * 1e8,
		FiftyTwoWeekHigh: row.price * 1.25,
		FiftyTwoWeekLow:  row.price * 0.75,
		DividendYield:    common.RoundTo(dividendYield, 2),
		TrailingPE:       common.RoundTo(trailingPE, 2),
		ForwardPE:        common.RoundTo(forwardPE, 2),
		PriceToBook:      common.RoundTo(priceToBook, 2),
		ChangePercent:    row.changePercent,
		Change:           row.change,
		Currency:         "KRW",
		LastUpdated:      s.now().UTC().Format(time.RFC3339),
	}
}
