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

package tax

import "github.com/penny-vault/pv-advisor/common"

// Simulation is the outcome of a fixed monthly contribution plan
type Simulation struct {
	TotalInvested int64   `json:"totalInvested"`
	FutureValue   int64   `json:"futureValue"`
	TotalReturn   int64   `json:"totalReturn"`
	ReturnRate    float64 `json:"returnRate"`
}

// SimulateMonthlyInvestment contributes monthlyAmount at the start of every
// month for the given number of years and compounds monthly at
// expectedReturn/12 percent. ReturnRate is in percent with one decimal.
func SimulateMonthlyInvestment(monthlyAmount, expectedReturn float64, years int) Simulation {
	months := years * 12
	if months <= 0 {
		return Simulation{}
	}

	monthlyRate := expectedReturn / 100 / 12

	var invested, futureValue float64
	for month := 1; month <= months; month++ {
		invested += monthlyAmount
		futureValue = (futureValue + monthlyAmount) * (1 + monthlyRate)
	}

	totalReturn := futureValue - invested

	sim := Simulation{
		TotalInvested: round(invested),
		FutureValue:   round(futureValue),
		TotalReturn:   round(totalReturn),
	}
	if invested != 0 {
		sim.ReturnRate = common.RoundTo(totalReturn/invested*100, 1)
	}

	return sim
}
