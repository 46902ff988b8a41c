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
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
)

func sumAllocations(entries []allocation.Entry) float64 {
	total := 0.0
	for _, entry := range entries {
		total += entry.Allocation
	}
	return total
}

func uniqueTickers(entries []allocation.Entry) bool {
	seen := make(map[string]bool)
	for _, entry := range entries {
		if seen[entry.Ticker] {
			return false
		}
		seen[entry.Ticker] = true
	}
	return true
}

var _ = Describe("Generator", func() {
	var (
		gen     *allocation.Generator
		profile allocation.Profile
	)

	BeforeEach(func() {
		gen = allocation.New(catalog.Default(), rand.NewSource(42))
		profile = allocation.Profile{
			InvestmentAmount: allocation.Amount1000To3000,
			RiskTolerance:    catalog.Conservative,
			InvestmentPeriod: allocation.PeriodMedium,
			PreferredSectors: []string{allocation.NoPreference},
			UserProfile:      allocation.UserProfile{Age: 35, Income: allocation.IncomeUnder5000},
		}
	})

	Context("with a conservative profile", func() {
		It("should hold five dividend stocks and the treasury ETF", func() {
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			Expect(res.Portfolio).To(HaveLen(6))
			Expect(res.Strategy).To(Equal("안정적인 배당 수익을 중심으로 한 보수적 포트폴리오"))

			for _, entry := range res.Portfolio[:5] {
				Expect(entry.Type).To(Equal(catalog.TypeDividend))
				Expect(entry.Allocation).To(BeNumerically("~", 14, 1e-9))
			}

			last := res.Portfolio[5]
			Expect(last.Ticker).To(Equal("148070"))
			Expect(last.Allocation).To(BeNumerically("~", 30, 1e-9))
			Expect(sumAllocations(res.Portfolio)).To(BeNumerically("~", 100, 1e-9))
			Expect(uniqueTickers(res.Portfolio)).To(BeTrue())
		})

		It("should honor preferred sectors when enough candidates match", func() {
			profile.PreferredSectors = []string{"finance"}
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			for _, entry := range res.Portfolio[:5] {
				Expect(entry.Sector).To(Equal(catalog.SectorFinance))
			}
		})

		It("should ignore preferred sectors that leave too few candidates", func() {
			profile.PreferredSectors = []string{"healthcare"}
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			Expect(res.Portfolio).To(HaveLen(6))
			for _, entry := range res.Portfolio[:5] {
				Expect(entry.Type).To(Equal(catalog.TypeDividend))
			}
		})

		It("should describe the portfolio", func() {
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			Expect(res.Summary).To(HavePrefix("총 6개 종목으로 구성된 포트폴리오입니다. 섹터 분산: "))
			Expect(res.Summary).To(ContainSubstring("ETF 1개"))
			Expect(res.Summary).To(HaveSuffix("배당 수익을 중심으로 안정적인 현금 흐름을 추구합니다."))
			Expect(res.RiskLevel).To(Equal(allocation.RiskLevel{Level: "낮음", Score: 3, Description: "안정적인 투자"}))
			Expect(res.ExpectedReturn).To(Equal(allocation.ReturnRange{Min: 3, Max: 6}))
			Expect(res.ISARecommendation.ISAType).To(Equal("ISA 서민형"))
		})
	})

	Context("with a moderate profile", func() {
		It("should hold large caps, growth stocks and the broad market ETF", func() {
			profile.RiskTolerance = catalog.Moderate
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			Expect(res.Portfolio).To(HaveLen(6))
			Expect(uniqueTickers(res.Portfolio)).To(BeTrue())

			for _, entry := range res.Portfolio[:3] {
				Expect(entry.Type).To(Equal(catalog.TypeLargeCap))
				Expect(entry.Allocation).To(BeNumerically("~", 50.0/3, 1e-9))
			}
			for _, entry := range res.Portfolio[3:5] {
				Expect(entry.Type).To(Equal(catalog.TypeGrowth))
				Expect(entry.Allocation).To(BeNumerically("~", 15, 1e-9))
			}
			Expect(res.Portfolio[5].Ticker).To(Equal("069500"))
			Expect(res.Portfolio[5].Allocation).To(BeNumerically("~", 20, 1e-9))
		})
	})

	Context("with an aggressive profile", func() {
		It("should hold eight unique names and no ETF", func() {
			profile.RiskTolerance = catalog.Aggressive
			res, err := gen.Generate(profile)
			Expect(err).To(BeNil())
			Expect(res.Portfolio).To(HaveLen(8))
			Expect(uniqueTickers(res.Portfolio)).To(BeTrue())
			Expect(sumAllocations(res.Portfolio)).To(BeNumerically("~", 100, 1e-9))

			for _, entry := range res.Portfolio {
				Expect(entry.Type).ToNot(Equal(catalog.TypeETF))
			}
			for _, entry := range res.Portfolio[:5] {
				Expect(entry.Allocation).To(BeNumerically("~", 12, 1e-9))
			}
		})

		It("should stay unique across many seeds", func() {
			profile.RiskTolerance = catalog.Aggressive
			for seed := int64(0); seed < 50; seed++ {
				res, err := allocation.New(catalog.Default(), rand.NewSource(seed)).Generate(profile)
				Expect(err).To(BeNil())
				Expect(uniqueTickers(res.Portfolio)).To(BeTrue())
			}
		})
	})

	It("should be reproducible for the same seed", func() {
		profile.RiskTolerance = catalog.Moderate
		a, err := allocation.New(catalog.Default(), rand.NewSource(7)).Generate(profile)
		Expect(err).To(BeNil())
		b, err := allocation.New(catalog.Default(), rand.NewSource(7)).Generate(profile)
		Expect(err).To(BeNil())
		Expect(allocation.Tickers(a.Portfolio)).To(Equal(allocation.Tickers(b.Portfolio)))
	})

	It("should reject an unknown risk tolerance", func() {
		profile.RiskTolerance = "yolo"
		res, err := gen.Generate(profile)
		Expect(res).To(BeNil())
		Expect(errors.Is(err, allocation.ErrInvalidProfile)).To(BeTrue())
	})

	DescribeTable("expected return by horizon",
		func(risk catalog.RiskLevel, period string, expected allocation.ReturnRange) {
			Expect(allocation.ExpectedReturnFor(risk, period)).To(Equal(expected))
		},
		Entry("conservative short", catalog.Conservative, allocation.PeriodShort, allocation.ReturnRange{Min: 2.4, Max: 4.8}),
		Entry("moderate medium", catalog.Moderate, allocation.PeriodMedium, allocation.ReturnRange{Min: 5, Max: 10}),
		Entry("aggressive long", catalog.Aggressive, allocation.PeriodLong, allocation.ReturnRange{Min: 9.6, Max: 24}),
		Entry("unknown period", catalog.Aggressive, "forever", allocation.ReturnRange{Min: 8, Max: 20}),
	)
})
