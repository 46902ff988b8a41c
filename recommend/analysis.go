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

// Package recommend matches bank funds and ISA ETFs to an investor and the
// model portfolio generated for them.
package recommend

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
)

// market capitalization thresholds in KRW
const (
	largeCapThreshold = 10_000_000_000_000
	midCapThreshold   = 1_000_000_000_000
)

// Analysis summarizes the composition of a portfolio
type Analysis struct {
	SectorWeights   map[catalog.Sector]float64 `json:"sectorWeights"`
	Characteristics Characteristics            `json:"characteristics"`
	DominantSectors []SectorWeight             `json:"dominantSectors"`
	StockTypes      StockTypes                 `json:"stockTypes"`
	AverageMetrics  AverageMetrics             `json:"averageMetrics"`
}

type SectorWeight struct {
	Sector catalog.Sector `json:"sector"`
	Weight float64        `json:"weight"`
}

// StockTypes is the total allocation classified under each style. An entry
// counts toward at most one of Dividend, Growth, ETF and Bond and
// independently toward LargeCap or MidCap.
type StockTypes struct {
	Dividend float64 `json:"dividend"`
	Growth   float64 `json:"growth"`
	LargeCap float64 `json:"largeCap"`
	MidCap   float64 `json:"midCap"`
	ETF      float64 `json:"etf"`
	Bond     float64 `json:"bond"`
}

type Characteristics struct {
	IsHighTech       bool `json:"isHighTech"`
	IsHighDividend   bool `json:"isHighDividend"`
	IsGrowthFocused  bool `json:"isGrowthFocused"`
	IsDiversified    bool `json:"isDiversified"`
	HasInternational bool `json:"hasInternational"`
	HasBonds         bool `json:"hasBonds"`
	HasETFs          bool `json:"hasETFs"`
}

// AverageMetrics holds allocation weighted averages. Entries without a
// dividend yield or PER are left out of the respective average.
type AverageMetrics struct {
	DividendYield   float64 `json:"dividendYield"`
	PER             float64 `json:"per"`
	TotalAllocation float64 `json:"totalAllocation"`
}

// Analyze computes sector weights, style weights and the derived
// characteristics of a portfolio
func Analyze(portfolio []allocation.Entry) Analysis {
	analysis := Analysis{
		SectorWeights:   make(map[catalog.Sector]float64),
		DominantSectors: []SectorWeight{},
	}
	if len(portfolio) == 0 {
		return analysis
	}

	sectorOrder := make([]catalog.Sector, 0)
	types := &analysis.StockTypes

	var dividendYields, dividendWeights, pers, perWeights []float64

	for _, entry := range portfolio {
		sector := entry.Sector
		if sector == "" {
			sector = catalog.SectorOther
		}
		if _, ok := analysis.SectorWeights[sector]; !ok {
			sectorOrder = append(sectorOrder, sector)
		}
		analysis.SectorWeights[sector] += entry.Allocation

		switch {
		case entry.Type == catalog.TypeETF || strings.Contains(entry.Name, "ETF") || strings.Contains(entry.Name, "KODEX"):
			types.ETF += entry.Allocation
		case entry.Type == catalog.TypeBond || strings.Contains(entry.Name, "채권"):
			types.Bond += entry.Allocation
		case entry.Type == catalog.TypeDividend || entry.DividendYield > 3:
			types.Dividend += entry.Allocation
		case entry.Type == catalog.TypeGrowth || strings.Contains(entry.Name, "성장"):
			types.Growth += entry.Allocation
		}

		switch {
		case entry.MarketCap > largeCapThreshold:
			types.LargeCap += entry.Allocation
		case entry.MarketCap > midCapThreshold:
			types.MidCap += entry.Allocation
		}

		if entry.DividendYield > 0 {
			dividendYields = append(dividendYields, entry.DividendYield)
			dividendWeights = append(dividendWeights, entry.Allocation)
		}
		if entry.PER > 0 {
			pers = append(pers, entry.PER)
			perWeights = append(perWeights, entry.Allocation)
		}

		analysis.AverageMetrics.TotalAllocation += entry.Allocation
		if entry.Overseas() {
			analysis.Characteristics.HasInternational = true
		}
	}

	for _, sector := range sectorOrder {
		if weight := analysis.SectorWeights[sector]; weight >= 20 {
			analysis.DominantSectors = append(analysis.DominantSectors, SectorWeight{Sector: sector, Weight: weight})
		}
	}
	sort.SliceStable(analysis.DominantSectors, func(i, j int) bool {
		return analysis.DominantSectors[i].Weight > analysis.DominantSectors[j].Weight
	})

	concentrated := false
	for _, dominant := range analysis.DominantSectors {
		if dominant.Weight > 40 {
			concentrated = true
			break
		}
	}

	chars := &analysis.Characteristics
	chars.IsHighTech = analysis.SectorWeights[catalog.SectorTech] > 30
	chars.IsHighDividend = types.Dividend > 30
	chars.IsGrowthFocused = types.Growth > 40
	chars.IsDiversified = len(analysis.SectorWeights) >= 4 && !concentrated
	chars.HasBonds = types.Bond > 0
	chars.HasETFs = types.ETF > 0

	analysis.AverageMetrics.DividendYield = weightedMean(dividendYields, dividendWeights)
	analysis.AverageMetrics.PER = weightedMean(pers, perWeights)

	return analysis
}

func weightedMean(values, weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	return stat.Mean(values, weights)
}
