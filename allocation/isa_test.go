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

package allocation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
)

var _ = Describe("ISA recommendation", func() {
	DescribeTable("account type by income",
		func(income, isaType string, threshold int, savings int64) {
			rec := allocation.RecommendISA(allocation.UserProfile{Income: income}, catalog.Moderate)
			Expect(rec.ISAType).To(Equal(isaType))
			Expect(rec.TaxBenefit).To(Equal(threshold))
			Expect(rec.EstimatedTaxSavings).To(Equal(savings))
		},
		Entry("low income", allocation.IncomeUnder5000, "ISA 서민형", 400, int64(84)),
		Entry("middle income", allocation.Income5000To8000, "ISA 일반형", 200, int64(42)),
		Entry("high income", allocation.IncomeOver8000, "ISA 일반형", 200, int64(42)),
		Entry("unknown income", "", "ISA 일반형", 200, int64(42)),
	)

	DescribeTable("account structure by risk",
		func(risk catalog.RiskLevel, structure string) {
			rec := allocation.RecommendISA(allocation.UserProfile{Income: allocation.IncomeOver8000}, risk)
			Expect(rec.AccountStructure).To(Equal(structure))
		},
		Entry("conservative", catalog.Conservative, "ISA 계좌 80% (배당주 중심) + 일반계좌 20%"),
		Entry("moderate", catalog.Moderate, "ISA 계좌 60% (배당주 + 대형주) + 일반계좌 40% (성장주)"),
		Entry("aggressive", catalog.Aggressive, "ISA 계좌 40% (안정적 배당주) + 일반계좌 60% (성장주)"),
	)
})
