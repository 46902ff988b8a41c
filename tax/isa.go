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

// Package tax estimates the tax advantage of holding investments in an
// Individual Savings Account (ISA) instead of a regular brokerage account.
package tax

import (
	"github.com/penny-vault/pv-advisor/common"
)

const (
	// TaxFreeLimit is the annual ISA gain that is not taxed at all (KRW)
	TaxFreeLimit = 4_000_000

	// NormalTaxRate is the dividend income tax of a regular account
	NormalTaxRate = 0.154

	// ISATaxRate is the separate taxation rate applied above TaxFreeLimit
	ISATaxRate = 0.099

	// assumed annual dividend yield of the account
	dividendRate = 0.02

	// only half of the expected return is assumed to be realized each year
	realizedShare = 0.5
)

// Benefit compares the yearly tax bill of an ISA with a regular account.
// All amounts are KRW.
type Benefit struct {
	AnnualDividend       int64 `json:"annualDividend"`
	EstimatedCapitalGain int64 `json:"estimatedCapitalGain"`
	TotalGain            int64 `json:"totalGain"`
	NormalTax            int64 `json:"normalTax"`
	ISATax               int64 `json:"isaTax"`
	TaxSaving            int64 `json:"taxSaving"`
}

// CalculateISABenefit estimates one year of gains on investmentAmount given an
// expected return in percent and reports the tax saved by using an ISA.
// Every field is rounded on its own from unrounded intermediates.
func CalculateISABenefit(investmentAmount, expectedReturnRate float64) Benefit {
	dividend := investmentAmount * dividendRate
	capitalGain := investmentAmount * (expectedReturnRate / 100) * realizedShare
	totalGain := dividend + capitalGain

	normalTax := totalGain * NormalTaxRate
	isaTax := 0.0
	if totalGain > TaxFreeLimit {
		isaTax = (totalGain - TaxFreeLimit) * ISATaxRate
	}
	taxSaving := normalTax - isaTax

	return Benefit{
		AnnualDividend:       round(dividend),
		EstimatedCapitalGain: round(capitalGain),
		TotalGain:            round(totalGain),
		NormalTax:            round(normalTax),
		ISATax:               round(isaTax),
		TaxSaving:            round(taxSaving),
	}
}

func round(x float64) int64 {
	return int64(common.Round(x))
}
