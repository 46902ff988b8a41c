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

package catalog

// Fund categories
const (
	CategoryEquity = "equity"
	CategoryBond   = "bond"
	CategoryMixed  = "mixed"
	CategoryREIT   = "reit"
)

// ISA ETF categories
const (
	CategoryDomesticEquity    = "domestic_equity"
	CategoryDomesticSector    = "domestic_sector"
	CategoryDomesticBond      = "domestic_bond"
	CategoryDomesticDividend  = "domestic_dividend"
	CategoryOverseasEquity    = "overseas_equity"
	CategoryOverseasBond      = "overseas_bond"
	CategoryOverseasDividend  = "overseas_dividend"
	CategoryOverseasREIT      = "overseas_reit"
	CategoryOverseasSector    = "overseas_sector"
	CategoryCommodity         = "commodity"
	CategorySectorDiversified = "sector_diversified"
)

// Fund is a managed fund sold by the bank
type Fund struct {
	Code              string    `json:"code" toml:"code"`
	Name              string    `json:"name" toml:"name"`
	Category          string    `json:"category" toml:"category"`
	RiskLevel         RiskLevel `json:"riskLevel" toml:"risk_level"`
	ExpectedReturn    string    `json:"expectedReturn" toml:"expected_return"`
	MinimumInvestment int64     `json:"minimumInvestment" toml:"minimum_investment"`
	ManagementFee     float64   `json:"managementFee" toml:"management_fee"`
	Features          []string  `json:"features" toml:"features"`
	Recommended       bool      `json:"recommended" toml:"recommended"`
	Global            bool      `json:"isGlobal" toml:"global"`
	Description       string    `json:"description" toml:"description"`
	ThreeYearReturn   float64   `json:"threeYearReturn" toml:"three_year_return"`
	Sectors           []string  `json:"sector" toml:"sectors"`
}

// HasFeature returns true if the fund lists feature verbatim
func (f *Fund) HasFeature(feature string) bool {
	return contains(f.Features, feature)
}

// HasSector returns true if the fund is tagged with sector verbatim
func (f *Fund) HasSector(sector string) bool {
	return contains(f.Sectors, sector)
}

// ETF is an exchange traded fund that may be held in an ISA account
type ETF struct {
	Ticker          string    `json:"ticker" toml:"ticker"`
	Name            string    `json:"name" toml:"name"`
	Category        string    `json:"category" toml:"category"`
	Index           string    `json:"index" toml:"index"`
	RiskLevel       RiskLevel `json:"riskLevel" toml:"risk_level"`
	ExpenseRatio    float64   `json:"expenseRatio" toml:"expense_ratio"`
	DividendYield   float64   `json:"dividendYield" toml:"dividend_yield"`
	AUM             string    `json:"aum" toml:"aum"`
	Features        []string  `json:"features" toml:"features"`
	ISARecommended  bool      `json:"isaRecommended" toml:"isa_recommended"`
	Description     string    `json:"description" toml:"description"`
	ThreeYearReturn float64   `json:"threeYearReturn" toml:"three_year_return"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
