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
	"math"

	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/tax"
)

// ISARecommendation suggests an ISA account type and how to split holdings
// between the ISA and a regular account. TaxBenefit and EstimatedTaxSavings
// are in 10,000 KRW.
type ISARecommendation struct {
	ISAType             string `json:"isaType"`
	TaxBenefit          int    `json:"taxBenefit"`
	Recommendation      string `json:"recommendation"`
	AccountStructure    string `json:"accountStructure"`
	EstimatedTaxSavings int64  `json:"estimatedTaxSavings"`
}

// RecommendISA picks the account type from the income bracket and the
// ISA/regular account split from the risk tolerance
func RecommendISA(user UserProfile, risk catalog.RiskLevel) ISARecommendation {
	var rec ISARecommendation

	switch user.Income {
	case IncomeUnder5000:
		rec.ISAType = "ISA 서민형"
		rec.TaxBenefit = 400
		rec.Recommendation = "연 소득 5,000만원 이하로 서민형 ISA 자격이 있습니다. 수익금 400만원까지 비과세 혜택을 받을 수 있습니다."
	case Income5000To8000:
		rec.ISAType = "ISA 일반형"
		rec.TaxBenefit = 200
		rec.Recommendation = "일반형 ISA 계좌를 통해 수익금 200만원까지 비과세 혜택을 받을 수 있습니다."
	default:
		rec.ISAType = "ISA 일반형"
		rec.TaxBenefit = 200
		rec.Recommendation = "일반형 ISA 계좌를 개설하여 절세 혜택을 누리세요. 일반 계좌 대비 세율이 9.9%로 낮습니다."
	}

	switch risk {
	case catalog.Conservative:
		rec.AccountStructure = "ISA 계좌 80% (배당주 중심) + 일반계좌 20%"
	case catalog.Moderate:
		rec.AccountStructure = "ISA 계좌 60% (배당주 + 대형주) + 일반계좌 40% (성장주)"
	default:
		rec.AccountStructure = "ISA 계좌 40% (안정적 배당주) + 일반계좌 60% (성장주)"
	}

	rec.EstimatedTaxSavings = estimatedTaxSavings(float64(rec.TaxBenefit))
	return rec
}

// estimatedTaxSavings assumes a profit of twice the tax free threshold
func estimatedTaxSavings(threshold float64) int64 {
	profit := threshold * 2
	normalTax := profit * tax.NormalTaxRate
	isaTax := math.Max(0, (profit-threshold)*tax.ISATaxRate)
	return int64(common.Round(normalTax - isaTax))
}
