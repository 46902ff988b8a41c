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

	"github.com/penny-vault/pv-advisor/catalog"
)

// Investment horizons
const (
	PeriodShort  = "short"
	PeriodMedium = "medium"
	PeriodLong   = "long"
)

// Annual income brackets in 10,000 KRW
const (
	IncomeUnder5000  = "under5000"
	Income5000To8000 = "5000to8000"
	IncomeOver8000   = "over8000"
)

// Investable amount brackets in 10,000 KRW
const (
	AmountUnder1000  = "under1000"
	Amount1000To3000 = "1000to3000"
	Amount3000To5000 = "3000to5000"
	AmountOver5000   = "over5000"
)

// NoPreference disables sector filtering when present in PreferredSectors
const NoPreference = "nopreference"

// Profile is a completed investor survey
type Profile struct {
	InvestmentAmount string            `json:"investmentAmount"`
	RiskTolerance    catalog.RiskLevel `json:"riskTolerance"`
	InvestmentPeriod string            `json:"investmentPeriod"`
	PreferredSectors []string          `json:"preferredSectors"`
	UserProfile      UserProfile       `json:"userProfile"`
}

// UserProfile carries the details needed to pick an ISA account type
type UserProfile struct {
	Age    int    `json:"age"`
	Income string `json:"income"`
}

// Validate checks the fields that change the shape of a generated portfolio.
// Unknown periods and income brackets fall back to defaults and are accepted.
func (p Profile) Validate() error {
	if !p.RiskTolerance.Valid() {
		return fmt.Errorf("%w: unknown risk tolerance %q", ErrInvalidProfile, p.RiskTolerance)
	}
	return nil
}

// filtersSectors returns true when the profile restricts stock selection to
// specific sectors
func (p Profile) filtersSectors() bool {
	if len(p.PreferredSectors) == 0 {
		return false
	}
	for _, sector := range p.PreferredSectors {
		if sector == NoPreference {
			return false
		}
	}
	return true
}
