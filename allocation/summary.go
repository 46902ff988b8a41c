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
	"fmt"
	"strings"

	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
)

var sectorNames = map[catalog.Sector]string{
	catalog.SectorTech:       "기술/IT",
	catalog.SectorFinance:    "금융",
	catalog.SectorConsumer:   "소비재",
	catalog.SectorHealthcare: "헬스케어",
	catalog.SectorEnergy:     "에너지",
	catalog.SectorETF:        "ETF",
}

// RiskLevel is the display risk grade of a portfolio
type RiskLevel struct {
	Level       string `json:"level"`
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// ReturnRange is an expected annual return band in percent
type ReturnRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var riskLevels = map[catalog.RiskLevel]RiskLevel{
	catalog.Conservative: {Level: "낮음", Score: 3, Description: "안정적인 투자"},
	catalog.Moderate:     {Level: "중간", Score: 5, Description: "균형잡힌 투자"},
	catalog.Aggressive:   {Level: "높음", Score: 8, Description: "공격적인 투자"},
}

var baseReturns = map[catalog.RiskLevel]ReturnRange{
	catalog.Conservative: {Min: 3, Max: 6},
	catalog.Moderate:     {Min: 5, Max: 10},
	catalog.Aggressive:   {Min: 8, Max: 20},
}

var periodMultiplier = map[string]float64{
	PeriodShort:  0.8,
	PeriodMedium: 1.0,
	PeriodLong:   1.2,
}

// Summarize describes the number of holdings, how they spread over sectors
// and the intent of the risk tier
func Summarize(portfolio []Entry, risk catalog.RiskLevel) string {
	order := make([]catalog.Sector, 0)
	counts := make(map[catalog.Sector]int)
	for _, entry := range portfolio {
		if _, ok := counts[entry.Sector]; !ok {
			order = append(order, entry.Sector)
		}
		counts[entry.Sector]++
	}

	parts := make([]string, 0, len(order))
	for _, sector := range order {
		name, ok := sectorNames[sector]
		if !ok {
			name = string(sector)
		}
		parts = append(parts, fmt.Sprintf("%s %d개", name, counts[sector]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "총 %d개 종목으로 구성된 포트폴리오입니다. ", len(portfolio))
	fmt.Fprintf(&sb, "섹터 분산: %s. ", strings.Join(parts, ", "))

	switch risk {
	case catalog.Conservative:
		sb.WriteString("배당 수익을 중심으로 안정적인 현금 흐름을 추구합니다.")
	case catalog.Moderate:
		sb.WriteString("안정성과 성장성의 균형을 통해 중장기 자산 증식을 목표로 합니다.")
	default:
		sb.WriteString("높은 성장 가능성을 가진 종목들로 구성하여 공격적인 수익률을 추구합니다.")
	}

	return sb.String()
}

// RiskLevelFor returns the risk grade; unknown tolerances are graded moderate
func RiskLevelFor(risk catalog.RiskLevel) RiskLevel {
	if level, ok := riskLevels[risk]; ok {
		return level
	}
	return riskLevels[catalog.Moderate]
}

// ExpectedReturnFor scales the risk tier's base return band by the
// investment horizon and rounds to one decimal
func ExpectedReturnFor(risk catalog.RiskLevel, period string) ReturnRange {
	base, ok := baseReturns[risk]
	if !ok {
		base = baseReturns[catalog.Moderate]
	}

	multiplier, ok := periodMultiplier[period]
	if !ok {
		multiplier = 1.0
	}

	return ReturnRange{
		Min: common.RoundTo(base.Min*multiplier, 1),
		Max: common.RoundTo(base.Max*multiplier, 1),
	}
}
