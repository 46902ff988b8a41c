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

// Sector groups instruments by industry
type Sector string

const (
	SectorTech       Sector = "tech"
	SectorFinance    Sector = "finance"
	SectorConsumer   Sector = "consumer"
	SectorHealthcare Sector = "healthcare"
	SectorEnergy     Sector = "energy"
	SectorMaterials  Sector = "materials"
	SectorIndustrial Sector = "industrial"
	SectorTelecom    Sector = "telecom"
	SectorETF        Sector = "etf"
	SectorOther      Sector = "other"
)

var knownSectors = map[Sector]bool{
	SectorTech:       true,
	SectorFinance:    true,
	SectorConsumer:   true,
	SectorHealthcare: true,
	SectorEnergy:     true,
	SectorMaterials:  true,
	SectorIndustrial: true,
	SectorTelecom:    true,
	SectorETF:        true,
	SectorOther:      true,
}

// Valid returns true if s is one of the known sectors
func (s Sector) Valid() bool {
	return knownSectors[s]
}

// InstrumentType is the registry an instrument was listed under
type InstrumentType string

const (
	TypeDividend InstrumentType = "dividend"
	TypeLargeCap InstrumentType = "largeCap"
	TypeGrowth   InstrumentType = "growth"
	TypeETF      InstrumentType = "etf"
	TypeBond     InstrumentType = "bond"
)

// RiskLevel is shared by investor profiles and products
type RiskLevel string

const (
	Conservative RiskLevel = "conservative"
	Moderate     RiskLevel = "moderate"
	Aggressive   RiskLevel = "aggressive"
)

// Valid returns true for the three supported risk levels
func (r RiskLevel) Valid() bool {
	switch r {
	case Conservative, Moderate, Aggressive:
		return true
	default:
		return false
	}
}

// Instrument is immutable reference data for a tradeable security. Numeric
// metrics are zero when unknown.
type Instrument struct {
	Ticker        string         `json:"ticker" toml:"ticker"`
	Name          string         `json:"name" toml:"name"`
	Sector        Sector         `json:"sector" toml:"sector"`
	Type          InstrumentType `json:"type" toml:"type"`
	Price         float64        `json:"price,omitempty" toml:"price"`
	DividendYield float64        `json:"dividendYield,omitempty" toml:"dividend_yield"`
	PER           float64        `json:"per,omitempty" toml:"per"`
	ROE           float64        `json:"roe,omitempty" toml:"roe"`
	MarketCap     float64        `json:"marketCap,omitempty" toml:"market_cap"`
	International bool           `json:"isInternational" toml:"international"`
	Description   string         `json:"description" toml:"description"`
}
