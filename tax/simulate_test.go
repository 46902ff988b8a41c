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

package tax_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/tax"
)

var _ = Describe("Monthly investment simulation", func() {
	It("should compound monthly contributions", func() {
		sim := tax.SimulateMonthlyInvestment(100_000, 12, 1)
		Expect(sim.TotalInvested).To(Equal(int64(1_200_000)))
		Expect(sim.FutureValue).To(Equal(int64(1_280_933)))
		Expect(sim.TotalReturn).To(Equal(int64(80_933)))
		Expect(sim.ReturnRate).To(Equal(6.7))
	})

	It("should handle long horizons", func() {
		sim := tax.SimulateMonthlyInvestment(500_000, 6, 10)
		Expect(sim.TotalInvested).To(Equal(int64(60_000_000)))
		Expect(sim.FutureValue).To(Equal(int64(82_349_372)))
		Expect(sim.ReturnRate).To(Equal(37.2))
	})

	It("should not grow without a return", func() {
		sim := tax.SimulateMonthlyInvestment(100_000, 0, 2)
		Expect(sim.FutureValue).To(Equal(sim.TotalInvested))
		Expect(sim.TotalReturn).To(BeZero())
		Expect(sim.ReturnRate).To(BeZero())
	})

	It("should return zeros for an empty horizon", func() {
		Expect(tax.SimulateMonthlyInvestment(100_000, 5, 0)).To(Equal(tax.Simulation{}))
	})
})
