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
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/tax"
)

const defaultETFPrice = 10_000

// approximate unit prices (KRW) used to size ETF orders
var estimatedETFPrices = map[string]float64{
	"069500": 33000,
	"102110": 33200,
	"091180": 8500,
	"360750": 12500,
	"379800": 17000,
	"453810": 17500,
	"143850": 98000,
	"114260": 103500,
	"305720": 7500,
	"148070": 104000,
	"161510": 9800,
	"458730": 13000,
	"132030": 12000,
	"360140": 4500,
	"371460": 8000,
}

var isaStrategies = map[catalog.RiskLevel]string{
	catalog.Conservative: "안정적인 자산 배분으로 원금 보존을 최우선으로 하며, 채권 비중을 높여 변동성을 최소화합니다.",
	catalog.Moderate:     "주식과 채권을 균형있게 배분하여 적정 수준의 수익과 안정성을 동시에 추구합니다.",
	catalog.Aggressive:   "높은 성장 잠재력을 가진 주식 ETF 중심으로 배분하여 장기적인 자본 이득을 추구합니다.",
}

// ETFRecommendation is an ISA ETF with the amount to invest in it
type ETFRecommendation struct {
	catalog.ETF

	Allocation        float64 `json:"allocation"`
	RecommendedAmount int64   `json:"recommendedAmount"`
	Shares            int64   `json:"shares"`
	EstimatedPrice    float64 `json:"estimatedPrice"`
	Reason            string  `json:"reason"`
}

// ISAPlan splits an ISA deposit across ETFs
type ISAPlan struct {
	ETFs           []ETFRecommendation `json:"etfs"`
	TotalAmount    float64             `json:"totalAmount"`
	ExpectedReturn float64             `json:"expectedReturn"`
	TaxBenefit     tax.Benefit         `json:"taxBenefit"`
	Strategy       string              `json:"strategy"`
}

// bucketWeights is the fraction of the ISA deposit per ETF category
type bucketWeights struct {
	domesticEquity    float64
	overseasEquity    float64
	domesticBond      float64
	overseasBond      float64
	sectorDiversified float64
}

func (b bucketWeights) ordered() []struct {
	category string
	fraction float64
} {
	return []struct {
		category string
		fraction float64
	}{
		{catalog.CategoryDomesticEquity, b.domesticEquity},
		{catalog.CategoryOverseasEquity, b.overseasEquity},
		{catalog.CategoryDomesticBond, b.domesticBond},
		{catalog.CategoryOverseasBond, b.overseasBond},
		{catalog.CategorySectorDiversified, b.sectorDiversified},
	}
}

func baseBuckets(risk catalog.RiskLevel) bucketWeights {
	switch risk {
	case catalog.Conservative:
		return bucketWeights{domesticEquity: 0.2, overseasEquity: 0.1, domesticBond: 0.4, overseasBond: 0.3}
	case catalog.Moderate:
		return bucketWeights{domesticEquity: 0.3, overseasEquity: 0.3, domesticBond: 0.2, overseasBond: 0.2}
	default:
		return bucketWeights{domesticEquity: 0.3, overseasEquity: 0.5, domesticBond: 0.1, overseasBond: 0.1}
	}
}

// adjustBuckets tilts the base weights to fill the gaps of the analyzed
// portfolio
func adjustBuckets(b bucketWeights, analysis *Analysis) bucketWeights {
	chars := analysis.Characteristics

	if !chars.HasInternational {
		b.overseasEquity = math.Min(b.overseasEquity+0.2, 0.6)
		b.domesticEquity = math.Max(b.domesticEquity-0.1, 0.1)
	}

	// dividends are tax free inside an ISA, so favor dividend paying equity
	// over bonds
	if chars.IsHighDividend || analysis.AverageMetrics.DividendYield > 3 {
		const bondReduction = 0.1
		b.domesticBond = math.Max(b.domesticBond-bondReduction, 0.1)
		b.domesticEquity += bondReduction * 0.5
		b.overseasEquity += bondReduction * 0.5
	}

	if chars.IsGrowthFocused {
		const equityReduction = 0.15
		b.domesticEquity = math.Max(b.domesticEquity-equityReduction*0.4, 0.1)
		b.overseasEquity = math.Max(b.overseasEquity-equityReduction*0.6, 0.1)
		b.domesticBond += equityReduction * 0.5
		b.overseasBond += equityReduction * 0.5
	}

	if chars.IsHighTech {
		b.sectorDiversified = 0.15
		b.overseasEquity = math.Max(b.overseasEquity-0.15, 0.2)
	}

	return b
}

// EstimatedETFPrice returns the unit price used to size orders for ticker
func EstimatedETFPrice(ticker string) float64 {
	if price, ok := estimatedETFPrices[ticker]; ok {
		return price
	}
	return defaultETFPrice
}

// cheapestETF returns the ISA eligible ETF with the lowest expense ratio in
// category. Ties keep catalog order.
func cheapestETF(etfs []catalog.ETF, category string) (catalog.ETF, bool) {
	var best catalog.ETF
	found := false
	for _, etf := range etfs {
		if etf.Category != category || !etf.ISARecommended {
			continue
		}
		if !found || etf.ExpenseRatio < best.ExpenseRatio {
			best = etf
			found = true
		}
	}
	return best, found
}

// RecommendISAETFs builds an ETF plan for an ISA deposit of isaAmount. When
// analysis is set the category weights are adjusted to complement the
// portfolio.
func RecommendISAETFs(cat *catalog.Catalog, profile allocation.Profile, isaAmount float64, analysis *Analysis) ISAPlan {
	buckets := baseBuckets(profile.RiskTolerance)
	if analysis != nil {
		buckets = adjustBuckets(buckets, analysis)
	}

	etfs := cat.ISAETFs()
	picks := make([]ETFRecommendation, 0, 5)
	returns := make([]float64, 0, 5)
	fractions := make([]float64, 0, 5)

	for _, bucket := range buckets.ordered() {
		if bucket.fraction == 0 {
			continue
		}

		etf, ok := cheapestETF(etfs, bucket.category)
		if !ok {
			log.Debug().Str("Category", bucket.category).Msg("no ISA eligible ETF in category; skipping")
			continue
		}

		amount := int64(common.Round(isaAmount * bucket.fraction))
		price := EstimatedETFPrice(etf.Ticker)

		picks = append(picks, ETFRecommendation{
			ETF:               etf,
			Allocation:        bucket.fraction * 100,
			RecommendedAmount: amount,
			Shares:            int64(math.Floor(float64(amount) / price)),
			EstimatedPrice:    price,
			Reason:            etfReason(etf, bucket.category, analysis),
		})
		returns = append(returns, etf.ThreeYearReturn)
		fractions = append(fractions, bucket.fraction)
	}

	expectedReturn := 0.0
	if len(picks) > 0 {
		expectedReturn = common.RoundTo(floats.Dot(returns, fractions), 1)
	}

	strategy, ok := isaStrategies[profile.RiskTolerance]
	if !ok {
		strategy = isaStrategies[catalog.Moderate]
	}

	return ISAPlan{
		ETFs:           picks,
		TotalAmount:    isaAmount,
		ExpectedReturn: expectedReturn,
		TaxBenefit:     tax.CalculateISABenefit(isaAmount, expectedReturn),
		Strategy:       strategy,
	}
}

func etfReason(etf catalog.ETF, category string, analysis *Analysis) string {
	reasons := make([]string, 0, maxReasons+1)

	if analysis != nil {
		if !analysis.Characteristics.HasInternational && strings.Contains(category, "overseas") {
			reasons = append(reasons, "포트폴리오에 부족한 해외 자산 보완")
		}
		if analysis.Characteristics.IsGrowthFocused && strings.Contains(category, "bond") {
			reasons = append(reasons, "성장주 중심 포트폴리오의 안정성 강화")
		}
		if analysis.AverageMetrics.DividendYield > 3 && etf.DividendYield > 3 {
			reasons = append(reasons, "ISA 계좌의 배당 비과세 혜택 극대화")
		}
	}

	if strings.Contains(category, "domestic") {
		if len(reasons) < maxReasons {
			reasons = append(reasons, "국내 시장 노출")
		}
	} else if len(reasons) < maxReasons {
		reasons = append(reasons, "글로벌 분산 투자")
	}

	if etf.ExpenseRatio < 0.15 && len(reasons) < maxReasons {
		reasons = append(reasons, "초저비용 ("+formatNumber(etf.ExpenseRatio)+"%)")
	}

	if etf.DividendYield > 3 && len(reasons) < maxReasons {
		reasons = append(reasons, "높은 배당수익률 ("+formatNumber(etf.DividendYield)+"%)")
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return strings.Join(reasons, ", ")
}
