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

package recommend

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
)

const (
	maxFunds      = 5
	maxReasons    = 3
	fundShare     = 0.35
	firstFundCut  = 0.4
	secondFundCut = 0.3
)

// FundRecommendation is a bank fund ranked for an investor
type FundRecommendation struct {
	catalog.Fund

	Score             int      `json:"score"`
	MatchReasons      []string `json:"matchReasons"`
	RecommendedAmount int64    `json:"recommendedAmount"`
	Reason            string   `json:"reason"`
	Priority          int      `json:"priority"`
}

// fund sector tags are matched by substring in this order
var fundSectorMapping = []struct {
	tag    string
	sector catalog.Sector
}{
	{"기술", catalog.SectorTech},
	{"금융", catalog.SectorFinance},
	{"헬스케어", catalog.SectorHealthcare},
	{"소비재", catalog.SectorConsumer},
	{"산업재", catalog.SectorIndustrial},
	{"에너지", catalog.SectorEnergy},
	{"소재", catalog.SectorMaterials},
	{"통신", catalog.SectorTelecom},
	{"부동산", "realestate"},
	{"글로벌", "global"},
	{"채권", "bond"},
	{"기타", catalog.SectorOther},
}

func mapFundSector(tag string) catalog.Sector {
	for _, m := range fundSectorMapping {
		if strings.Contains(tag, m.tag) {
			return m.sector
		}
	}
	return catalog.SectorOther
}

// category preference by investment horizon, used when no portfolio is
// available to score against
var periodCategoryOrder = map[string][]string{
	allocation.PeriodShort:  {catalog.CategoryBond, catalog.CategoryMixed, catalog.CategoryEquity, catalog.CategoryREIT},
	allocation.PeriodMedium: {catalog.CategoryMixed, catalog.CategoryBond, catalog.CategoryEquity, catalog.CategoryREIT},
	allocation.PeriodLong:   {catalog.CategoryEquity, catalog.CategoryMixed, catalog.CategoryREIT, catalog.CategoryBond},
}

// RecommendFunds ranks the catalog funds for profile and splits 35% of
// totalInvestment across the top five. With an analysis the funds are scored
// on how well they complement the portfolio; without one they are filtered by
// risk and ordered by category preference.
func RecommendFunds(cat *catalog.Catalog, profile allocation.Profile, totalInvestment float64, analysis *Analysis) []FundRecommendation {
	var ranked []FundRecommendation
	if analysis != nil {
		ranked = scoreFunds(cat.Funds(), profile, *analysis)
	} else {
		ranked = legacyFunds(cat.Funds(), profile)
	}

	if len(ranked) > maxFunds {
		ranked = ranked[:maxFunds]
	}

	budget := totalInvestment * fundShare
	for idx := range ranked {
		rec := &ranked[idx]
		rec.RecommendedAmount = int64(common.Round(budget * allocationRatio(idx, len(ranked))))
		rec.Reason = fundReason(rec, profile)
		rec.Priority = idx + 1
	}

	log.Debug().Int("NumFunds", len(ranked)).Bool("PortfolioAware", analysis != nil).Msg("recommended funds")
	return ranked
}

func allocationRatio(idx, n int) float64 {
	switch idx {
	case 0:
		return firstFundCut
	case 1:
		return secondFundCut
	default:
		return (1 - firstFundCut - secondFundCut) / float64(n-2)
	}
}

func scoreFunds(funds []catalog.Fund, profile allocation.Profile, analysis Analysis) []FundRecommendation {
	ranked := make([]FundRecommendation, len(funds))
	for idx, fund := range funds {
		score, reasons := Score(fund, profile, analysis)
		ranked[idx] = FundRecommendation{
			Fund:         fund,
			Score:        score,
			MatchReasons: reasons,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Score rates how well fund suits the investor and complements the analyzed
// portfolio. At most three match reasons are returned.
func Score(fund catalog.Fund, profile allocation.Profile, analysis Analysis) (int, []string) {
	score := riskScore(profile.RiskTolerance, fund.RiskLevel)
	reasons := make([]string, 0, maxReasons)

	for _, tag := range fund.Sectors {
		weight := analysis.SectorWeights[mapFundSector(tag)]
		switch {
		case weight < 10:
			score += 15
			reasons = append(reasons, "포트폴리오에 부족한 "+tag+" 섹터 보완")
		case weight < 20:
			score += 10
		case weight > 40:
			score -= 5
		}
	}

	chars := analysis.Characteristics
	if chars.IsGrowthFocused && fund.Category == catalog.CategoryBond {
		score += 25
		reasons = append(reasons, "성장주 중심 포트폴리오의 안정성 보완")
	}

	if chars.IsHighTech && !fund.HasSector("기술") {
		score += 20
		reasons = append(reasons, "기술주 편중 완화")
	}

	if analysis.StockTypes.Dividend < 20 && fund.HasFeature("배당중심") {
		score += 15
		reasons = append(reasons, "배당 수익 보완")
	}

	if !chars.HasInternational && fund.Global {
		score += 20
		reasons = append(reasons, "글로벌 분산 투자")
	}

	switch {
	case profile.InvestmentPeriod == allocation.PeriodShort && fund.Category == catalog.CategoryBond,
		profile.InvestmentPeriod == allocation.PeriodMedium && fund.Category == catalog.CategoryMixed,
		profile.InvestmentPeriod == allocation.PeriodLong && fund.Category == catalog.CategoryEquity:
		score += 15
	}

	if fund.Recommended {
		score += 10
	}

	if fund.ThreeYearReturn > 10 {
		score += 5
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return score, reasons
}

func riskScore(investor, fund catalog.RiskLevel) int {
	switch investor {
	case catalog.Conservative:
		if fund == catalog.Conservative {
			return 20
		}
	case catalog.Moderate:
		switch fund {
		case catalog.Moderate:
			return 20
		case catalog.Conservative:
			return 10
		}
	case catalog.Aggressive:
		switch fund {
		case catalog.Aggressive:
			return 20
		case catalog.Moderate:
			return 15
		}
	}
	return 0
}

func legacyFunds(funds []catalog.Fund, profile allocation.Profile) []FundRecommendation {
	ranked := make([]FundRecommendation, 0, len(funds))
	for _, fund := range funds {
		if riskCompatible(profile.RiskTolerance, fund.RiskLevel) {
			ranked = append(ranked, FundRecommendation{Fund: fund, MatchReasons: []string{}})
		}
	}

	order, ok := periodCategoryOrder[profile.InvestmentPeriod]
	if !ok {
		order = periodCategoryOrder[allocation.PeriodMedium]
	}
	rank := make(map[string]int, len(order))
	for idx, category := range order {
		rank[category] = idx
	}
	categoryRank := func(category string) int {
		if r, ok := rank[category]; ok {
			return r
		}
		return len(order)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return categoryRank(ranked[i].Category) < categoryRank(ranked[j].Category)
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Recommended && !ranked[j].Recommended
	})
	return ranked
}

func riskCompatible(investor, fund catalog.RiskLevel) bool {
	switch investor {
	case catalog.Conservative:
		return fund == catalog.Conservative
	case catalog.Moderate:
		return fund == catalog.Conservative || fund == catalog.Moderate
	default:
		return true
	}
}

var riskFit = map[catalog.RiskLevel]string{
	catalog.Conservative: "안정적인 투자성향에 적합",
	catalog.Moderate:     "균형잡힌 투자성향에 적합",
	catalog.Aggressive:   "성장 중심의 투자성향에 적합",
}

func fundReason(rec *FundRecommendation, profile allocation.Profile) string {
	reasons := append([]string{}, rec.MatchReasons...)

	if rec.RiskLevel == profile.RiskTolerance && len(reasons) < maxReasons {
		reasons = append(reasons, riskFit[rec.RiskLevel])
	}

	if rec.ThreeYearReturn > 10 && len(reasons) < maxReasons {
		reasons = append(reasons, "최근 3년 우수한 수익률 ("+formatNumber(rec.ThreeYearReturn)+"%)")
	}

	if rec.ManagementFee < 0.7 && len(reasons) < maxReasons {
		reasons = append(reasons, "저렴한 운용보수 ("+formatNumber(rec.ManagementFee)+"%)")
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return strings.Join(reasons, ", ")
}

// formatNumber prints the shortest decimal form of x, so 9.5 is "9.5" and
// 12 is "12"
func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
