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

package catalog_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/catalog"
)

var _ = Describe("Catalog", func() {
	var cat *catalog.Catalog

	BeforeEach(func() {
		cat = catalog.Default()
	})

	Describe("When the embedded data is loaded", func() {
		It("should have the expected registry sizes", func() {
			Expect(cat.Dividend()).To(HaveLen(15))
			Expect(cat.LargeCap()).To(HaveLen(5))
			Expect(cat.Growth()).To(HaveLen(6))
			Expect(cat.ETFs()).To(HaveLen(3))
			Expect(cat.Funds()).To(HaveLen(10))
			Expect(cat.ISAETFs()).To(HaveLen(15))
		})

		It("should keep the ETF registry order", func() {
			etfs := cat.ETFs()
			Expect(etfs[0].Ticker).To(Equal("069500"))
			Expect(etfs[1].Ticker).To(Equal("360750"))
			Expect(etfs[2].Ticker).To(Equal("148070"))
		})

		It("should flag international instruments", func() {
			inst, err := cat.FindByTicker("360750")
			Expect(err).To(BeNil())
			Expect(inst.International).To(BeTrue())

			inst, err = cat.FindByTicker("069500")
			Expect(err).To(BeNil())
			Expect(inst.International).To(BeFalse())
		})

		It("should flag global funds", func() {
			global := make([]string, 0)
			for _, fund := range cat.Funds() {
				if fund.Global {
					global = append(global, fund.Code)
				}
			}
			Expect(global).To(ConsistOf("FUND001", "FUND003"))
		})

		It("should return copies from the accessors", func() {
			dividend := cat.Dividend()
			dividend[0].Name = "changed"
			Expect(cat.Dividend()[0].Name).To(Equal("삼성전자"))
		})
	})

	DescribeTable("Looking up an instrument by ticker",
		func(ticker string, expectedName string, expectedType catalog.InstrumentType) {
			inst, err := cat.FindByTicker(ticker)
			Expect(err).To(BeNil())
			Expect(inst.Name).To(Equal(expectedName))
			Expect(inst.Type).To(Equal(expectedType))
		},
		Entry("dividend listing wins over large-cap listing", "005930", "삼성전자", catalog.TypeDividend),
		Entry("large-cap listing wins over growth listing", "035420", "NAVER", catalog.TypeLargeCap),
		Entry("growth only", "247540", "에코프로비엠", catalog.TypeGrowth),
		Entry("etf", "148070", "KOSEF 국고채10년", catalog.TypeETF),
	)

	It("should return ErrNotFound for unknown tickers", func() {
		_, err := cat.FindByTicker("999999")
		Expect(err).To(MatchError(catalog.ErrNotFound))
	})

	Describe("When listing stocks by sector", func() {
		It("should list each ticker once and exclude ETFs", func() {
			tech := cat.BySector(catalog.SectorTech)
			tickers := make([]string, 0, len(tech))
			for _, inst := range tech {
				tickers = append(tickers, inst.Ticker)
			}
			Expect(tickers).To(Equal([]string{"005930", "000660", "035420", "035720"}))
			Expect(cat.BySector(catalog.SectorETF)).To(BeEmpty())
		})
	})

	It("should list unique tickers", func() {
		tickers := cat.Tickers()
		Expect(tickers).To(HaveLen(27))
		Expect(tickers[0]).To(Equal("005930"))
	})

	Describe("When looking up products", func() {
		It("should find funds by code", func() {
			fund, err := cat.FundByCode("FUND010")
			Expect(err).To(BeNil())
			Expect(fund.ManagementFee).To(Equal(0.3))
			Expect(fund.HasSector("채권")).To(BeTrue())

			_, err = cat.FundByCode("FUND999")
			Expect(err).To(MatchError(catalog.ErrNotFound))
		})

		It("should find ISA ETFs by ticker", func() {
			etf, err := cat.ETFByTicker("379800")
			Expect(err).To(BeNil())
			Expect(etf.ExpenseRatio).To(Equal(0.05))
			Expect(etf.ISARecommended).To(BeTrue())
		})

		It("should translate labels", func() {
			Expect(cat.RiskLabel(catalog.Moderate)).To(Equal("중립적"))
			Expect(cat.CategoryLabel(catalog.CategoryOverseasBond)).To(Equal("해외 채권"))
			Expect(cat.CategoryLabel("unknown")).To(Equal("unknown"))
		})
	})

	Describe("When loading custom data", func() {
		It("should reject unknown sectors", func() {
			_, err := catalog.Load([]byte(`
[[dividend]]
ticker = "000001"
name = "bad"
sector = "space"
type = "dividend"
`), []byte(""))
			Expect(err).To(MatchError(catalog.ErrInvalidData))
		})

		It("should reject duplicate fund codes", func() {
			_, err := catalog.Load([]byte(""), []byte(`
[[fund]]
code = "F1"
risk_level = "moderate"

[[fund]]
code = "F1"
risk_level = "moderate"
`))
			Expect(err).To(MatchError(catalog.ErrInvalidData))
		})

		It("should accept an empty document", func() {
			cat, err := catalog.Load([]byte(""), []byte(""))
			Expect(err).To(BeNil())
			Expect(cat.All()).To(BeEmpty())
		})
	})
})
