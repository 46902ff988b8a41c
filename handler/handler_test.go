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

package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/analytics"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/fetch"
	"github.com/penny-vault/pv-advisor/handler"
	"github.com/penny-vault/pv-advisor/middleware"
	"github.com/penny-vault/pv-advisor/quote"
	"github.com/penny-vault/pv-advisor/router"
)

const analyticsURL = "http://analytics.local"

type switchableSource struct {
	inner quote.Source
	err   error
}

func (s *switchableSource) Fetch(ctx context.Context, tickers []string) (map[string]*quote.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Fetch(ctx, tickers)
}

func send(app *fiber.App, method, target string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).To(BeNil())
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	Expect(err).To(BeNil())
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).To(BeNil())

	res := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		Expect(json.Unmarshal(raw, &res)).To(Succeed())
	} else if len(raw) > 0 {
		var list []interface{}
		Expect(json.Unmarshal(raw, &list)).To(Succeed())
		res["items"] = list
	}
	return resp.StatusCode, res
}

var _ = Describe("Handler", func() {
	var (
		app       *fiber.App
		now       time.Time
		src       *switchableSource
		transport *httpmock.MockTransport
		h         *handler.Handler
	)

	BeforeEach(func() {
		now = time.Date(2024, 7, 15, 12, 0, 0, 0, common.GetTimezone())
		clock := func() time.Time { return now }

		src = &switchableSource{inner: quote.NewSampleSource(rand.NewSource(7), clock)}
		cache := quote.NewCache(src, quote.WithClock(clock))

		transport = httpmock.NewMockTransport()
		fc := fetch.NewClient()
		fc.HTTP = &http.Client{Transport: transport}
		fc.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
		client, err := analytics.New(analyticsURL, fc, 8)
		Expect(err).To(BeNil())

		cat := catalog.Default()
		h = handler.New(cat, allocation.New(cat, rand.NewSource(42)), cache, client, clock)
		app = router.NewApp(h, "*")
	})

	It("should report health", func() {
		code, body := send(app, "GET", "/api/health", nil)
		Expect(code).To(Equal(200))
		Expect(body["status"]).To(Equal("OK"))
		Expect(body["timestamp"]).To(Equal("2024-07-15T03:00:00.000Z"))
	})

	Describe("quotes", func() {
		It("should require tickers", func() {
			code, body := send(app, "GET", "/api/stocks", nil)
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("tickers 파라미터가 필요합니다."))

			code, _ = send(app, "GET", "/api/stocks?tickers=,,", nil)
			Expect(code).To(Equal(400))
		})

		It("should fetch and then serve from the cache", func() {
			code, body := send(app, "GET", "/api/stocks?tickers=005930,%20000660", nil)
			Expect(code).To(Equal(200))
			Expect(body["cached"]).To(BeFalse())
			Expect(body["cacheAge"]).To(BeNumerically("==", 0))
			Expect(body["cacheTimestamp"]).To(BeNumerically("==", now.UnixMilli()))
			Expect(body).NotTo(HaveKey("offline"))
			Expect(body["data"]).To(HaveKey("005930"))
			Expect(body["data"]).To(HaveKey("000660"))

			now = now.Add(3*time.Hour + 10*time.Minute)
			code, body = send(app, "GET", "/api/stocks?tickers=005930,000660", nil)
			Expect(code).To(Equal(200))
			Expect(body["cached"]).To(BeTrue())
			Expect(body["cacheAge"]).To(BeNumerically("==", 3))
		})

		It("should refetch when forced", func() {
			send(app, "GET", "/api/stocks?tickers=005930", nil)
			now = now.Add(time.Hour)

			code, body := send(app, "GET", "/api/stocks?tickers=005930&forceRefresh=true", nil)
			Expect(code).To(Equal(200))
			Expect(body["cached"]).To(BeFalse())
			Expect(body["cacheTimestamp"]).To(BeNumerically("==", now.UnixMilli()))
		})

		It("should fail when the source is down and nothing is cached", func() {
			src.err = errors.New("connection refused")
			code, body := send(app, "GET", "/api/stocks?tickers=005930", nil)
			Expect(code).To(Equal(500))
			Expect(body["error"]).To(Equal("주식 데이터를 가져오는 중 오류가 발생했습니다."))
		})

		It("should serve stale data offline when the source is down", func() {
			send(app, "GET", "/api/stocks?tickers=005930", nil)
			now = now.Add(25 * time.Hour)
			src.err = errors.New("connection refused")

			code, body := send(app, "GET", "/api/stocks?tickers=005930", nil)
			Expect(code).To(Equal(200))
			Expect(body["offline"]).To(BeTrue())
			Expect(body["cached"]).To(BeTrue())
			Expect(body["cacheAge"]).To(BeNumerically("==", 25))
		})

		It("should describe an empty cache", func() {
			code, body := send(app, "GET", "/api/cache/status", nil)
			Expect(code).To(Equal(200))
			Expect(body).To(Equal(map[string]interface{}{
				"exists":     false,
				"timestamp":  nil,
				"age":        nil,
				"isExpired":  true,
				"stockCount": float64(0),
			}))
		})

		It("should describe a filled cache in Korean local time", func() {
			send(app, "GET", "/api/stocks?tickers=005930,000660,035420", nil)
			now = now.Add(2 * time.Hour)

			code, body := send(app, "GET", "/api/cache/status", nil)
			Expect(code).To(Equal(200))
			Expect(body["exists"]).To(BeTrue())
			Expect(body["timestamp"]).To(Equal("2024. 7. 15. 오후 12:00:00"))
			Expect(body["age"]).To(BeNumerically("==", 2))
			Expect(body["isExpired"]).To(BeFalse())
			Expect(body["stockCount"]).To(BeNumerically("==", 3))
		})

		It("should clear the cache", func() {
			send(app, "GET", "/api/stocks?tickers=005930", nil)

			code, body := send(app, "DELETE", "/api/cache", nil)
			Expect(code).To(Equal(200))
			Expect(body["message"]).To(Equal("캐시가 초기화되었습니다."))

			_, body = send(app, "GET", "/api/cache/status", nil)
			Expect(body["exists"]).To(BeFalse())
		})
	})

	Describe("portfolio", func() {
		profile := map[string]interface{}{
			"investmentAmount": "1000to3000",
			"riskTolerance":    "conservative",
			"investmentPeriod": "short",
			"preferredSectors": []string{"nopreference"},
			"userProfile":      map[string]interface{}{"age": 45, "income": "under5000"},
		}

		It("should generate a portfolio", func() {
			code, body := send(app, "POST", "/api/portfolio/generate", profile)
			Expect(code).To(Equal(200))
			Expect(body["portfolio"]).To(HaveLen(6))
			Expect(body["strategy"]).To(Equal("안정적인 배당 수익을 중심으로 한 보수적 포트폴리오"))
			Expect(body["isaRecommendation"]).To(HaveKeyWithValue("isaType", "ISA 서민형"))
		})

		It("should enrich a generated portfolio with quotes on request", func() {
			code, body := send(app, "POST", "/api/portfolio/generate?withQuotes=true", profile)
			Expect(code).To(Equal(200))

			entries := body["portfolio"].([]interface{})
			last := entries[len(entries)-1].(map[string]interface{})
			Expect(last["ticker"]).To(Equal("148070"))
			Expect(last["price"]).To(BeNumerically(">", 0))
		})

		It("should reject an unknown risk tolerance", func() {
			code, body := send(app, "POST", "/api/portfolio/generate", map[string]interface{}{"riskTolerance": "reckless"})
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("유효하지 않은 투자 성향입니다."))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest("POST", "/api/portfolio/generate", bytes.NewReader([]byte("{")))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			Expect(err).To(BeNil())
			Expect(resp.StatusCode).To(Equal(400))
		})

		It("should analyze a portfolio", func() {
			code, body := send(app, "POST", "/api/portfolio/analyze", map[string]interface{}{
				"portfolio": []map[string]interface{}{
					{"ticker": "005930", "sector": "tech", "type": "dividend", "allocation": 60},
					{"ticker": "055550", "sector": "finance", "type": "dividend", "allocation": 40},
				},
			})
			Expect(code).To(Equal(200))
			Expect(body["sectorWeights"]).To(HaveKeyWithValue("tech", BeNumerically("==", 60)))
			Expect(body["characteristics"]).To(HaveKeyWithValue("isHighTech", BeTrue()))
		})

		It("should treat a posted overseas ETF as international without the flag", func() {
			holdings := []map[string]interface{}{
				{"ticker": "360750", "name": "TIGER 미국S&P500", "sector": "etf", "type": "etf", "allocation": 30},
				{"ticker": "005930", "name": "삼성전자", "sector": "tech", "type": "dividend", "allocation": 70},
			}

			code, body := send(app, "POST", "/api/portfolio/analyze", map[string]interface{}{"portfolio": holdings})
			Expect(code).To(Equal(200))
			Expect(body["characteristics"]).To(HaveKeyWithValue("hasInternational", BeTrue()))

			code, body = send(app, "POST", "/api/recommendations/funds", map[string]interface{}{
				"profile":         map[string]interface{}{"riskTolerance": "moderate", "investmentPeriod": "long"},
				"totalInvestment": 10_000_000,
				"portfolio":       holdings,
			})
			Expect(code).To(Equal(200))
			for _, fund := range body["funds"].([]interface{}) {
				Expect(fund).To(HaveKeyWithValue("matchReasons", Not(ContainElement("글로벌 분산 투자"))))
			}
		})

		It("should require a portfolio to analyze", func() {
			code, body := send(app, "POST", "/api/portfolio/analyze", map[string]interface{}{})
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("portfolio 필드가 필요합니다."))
		})

		It("should suggest rebalancing trades", func() {
			code, body := send(app, "POST", "/api/portfolio/rebalance", map[string]interface{}{
				"holdings": []map[string]interface{}{
					{"ticker": "005930", "price": 100, "shares": 60, "buyPrice": 90, "allocation": 50},
					{"ticker": "055550", "price": 100, "shares": 40, "buyPrice": 90, "allocation": 50},
				},
			})
			Expect(code).To(Equal(200))

			lines := body["rebalance"].([]interface{})
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(HaveKeyWithValue("suggestion", allocation.SuggestSell))
			Expect(lines[1]).To(HaveKeyWithValue("suggestion", allocation.SuggestBuy))
			Expect(lines[1]).To(HaveKeyWithValue("requiredShares", BeNumerically("==", 10)))
		})
	})

	Describe("recommendations", func() {
		profile := map[string]interface{}{
			"riskTolerance":    "conservative",
			"investmentPeriod": "short",
		}

		It("should rank funds from the profile alone", func() {
			code, body := send(app, "POST", "/api/recommendations/funds", map[string]interface{}{
				"profile":         profile,
				"totalInvestment": 10_000_000,
			})
			Expect(code).To(Equal(200))

			funds := body["funds"].([]interface{})
			codes := make([]string, 0, len(funds))
			for _, fund := range funds {
				codes = append(codes, fund.(map[string]interface{})["code"].(string))
			}
			Expect(codes).To(Equal([]string{"FUND003", "FUND010", "FUND007"}))
		})

		It("should require a positive investment", func() {
			code, body := send(app, "POST", "/api/recommendations/funds", map[string]interface{}{"profile": profile})
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("totalInvestment는 0보다 커야 합니다."))
		})

		It("should split an ISA deposit", func() {
			code, body := send(app, "POST", "/api/recommendations/isa-etfs", map[string]interface{}{
				"profile":   profile,
				"isaAmount": 20_000_000,
			})
			Expect(code).To(Equal(200))
			Expect(body["etfs"]).To(HaveLen(4))
			Expect(body["totalAmount"]).To(BeNumerically("==", 20_000_000))
		})
	})

	Describe("tax", func() {
		It("should estimate the ISA benefit", func() {
			code, body := send(app, "GET", "/api/tax/isa?amount=10000000&expectedReturn=8", nil)
			Expect(code).To(Equal(200))
			Expect(body["totalGain"]).To(BeNumerically("==", 600_000))
			Expect(body["taxSaving"]).To(BeNumerically("==", 92_400))
		})

		It("should reject non numeric parameters", func() {
			code, body := send(app, "GET", "/api/tax/isa?amount=lots&expectedReturn=8", nil)
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("amount와 expectedReturn은 숫자여야 합니다."))
		})

		It("should simulate monthly savings", func() {
			code, body := send(app, "GET", "/api/tax/simulate?monthly=100000&expectedReturn=0&years=1", nil)
			Expect(code).To(Equal(200))
			Expect(body["totalInvested"]).To(BeNumerically("==", 1_200_000))
			Expect(body["futureValue"]).To(BeNumerically("==", 1_200_000))
		})

		It("should require a positive number of years", func() {
			code, _ := send(app, "GET", "/api/tax/simulate?monthly=100000&expectedReturn=5&years=0", nil)
			Expect(code).To(Equal(400))
		})
	})

	Describe("catalog", func() {
		It("should list every instrument once", func() {
			code, body := send(app, "GET", "/api/catalog/stocks", nil)
			Expect(code).To(Equal(200))
			Expect(body["items"]).To(HaveLen(27))
		})

		It("should filter by sector", func() {
			code, body := send(app, "GET", "/api/catalog/stocks?sector=finance", nil)
			Expect(code).To(Equal(200))
			Expect(body["items"]).To(HaveLen(5))

			code, body = send(app, "GET", "/api/catalog/stocks?sector=crypto", nil)
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("알 수 없는 섹터입니다."))
		})

		It("should look up a stock", func() {
			code, body := send(app, "GET", "/api/catalog/stocks/005930", nil)
			Expect(code).To(Equal(200))
			Expect(body["name"]).To(Equal("삼성전자"))

			code, body = send(app, "GET", "/api/catalog/stocks/999999", nil)
			Expect(code).To(Equal(404))
			Expect(body["error"]).To(Equal("종목을 찾을 수 없습니다."))
		})

		It("should list funds and ETFs", func() {
			_, body := send(app, "GET", "/api/catalog/funds", nil)
			Expect(body["items"]).To(HaveLen(10))

			_, body = send(app, "GET", "/api/catalog/etfs", nil)
			Expect(body["items"]).To(HaveLen(15))

			_, body = send(app, "GET", "/api/catalog/etfs?isa=true", nil)
			Expect(body["items"]).To(HaveLen(10))

			code, body := send(app, "GET", "/api/catalog/funds/FUND004", nil)
			Expect(code).To(Equal(200))
			Expect(body["name"]).To(Equal("우리 테크 혁신 펀드"))

			code, _ = send(app, "GET", "/api/catalog/etfs/000000", nil)
			Expect(code).To(Equal(404))
		})
	})

	Describe("analytics", func() {
		It("should reject invalid requests", func() {
			code, body := send(app, "POST", "/api/mpt/analyze", map[string]interface{}{"tickers": []string{"005930"}})
			Expect(code).To(Equal(400))
			Expect(body["error"]).To(Equal("최소 2개 이상의 종목이 필요합니다."))
			Expect(transport.GetTotalCallCount()).To(Equal(0))
		})

		It("should pass the service response through", func() {
			transport.RegisterResponder("POST", analyticsURL+analytics.BacktestPath,
				httpmock.NewStringResponder(200, `{"totalReturn":12.5,"mdd":-8.1}`))

			code, body := send(app, "POST", "/api/backtest", map[string]interface{}{
				"tickers": []string{"005930", "000660"},
				"weights": []float64{0.5, 0.5},
			})
			Expect(code).To(Equal(200))
			Expect(body["totalReturn"]).To(BeNumerically("==", 12.5))
		})

		It("should report a bad gateway when retries run out", func() {
			transport.RegisterResponder("POST", analyticsURL+analytics.NewsPath, httpmock.NewStringResponder(503, "starting"))

			code, body := send(app, "POST", "/api/news/sentiment", map[string]interface{}{"tickers": []string{"005930"}})
			Expect(code).To(Equal(502))
			Expect(body["error"]).To(ContainSubstring("4"))
			Expect(transport.GetTotalCallCount()).To(Equal(4))
		})

		It("should decode hybrid recommendations", func() {
			transport.RegisterResponder("POST", analyticsURL+analytics.HybridPath,
				httpmock.NewStringResponder(200, `{"recommendations":[{"ticker":"035420","score":0.91}]}`))

			code, body := send(app, "POST", "/api/recommendations/hybrid", map[string]interface{}{"portfolio": []string{"005930"}})
			Expect(code).To(Equal(200))
			Expect(body["recommendations"]).To(HaveLen(1))
		})

		It("should report an unconfigured service", func() {
			h.Analytics = nil
			code, body := send(app, "POST", "/api/backtest", map[string]interface{}{})
			Expect(code).To(Equal(503))
			Expect(body["error"]).To(Equal("분석 서비스가 설정되지 않았습니다."))
		})
	})

	It("should answer unknown routes with a JSON error", func() {
		code, body := send(app, "GET", "/api/nothing", nil)
		Expect(code).To(Equal(404))
		Expect(body).To(HaveKey("error"))
	})

	It("should echo a caller supplied request id", func() {
		req := httptest.NewRequest("GET", "/api/health", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		resp, err := app.Test(req, -1)
		Expect(err).To(BeNil())
		Expect(resp.Header.Get(middleware.RequestIDHeader)).To(Equal("req-123"))
	})

	It("should generate a request id when none is sent", func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil), -1)
		Expect(err).To(BeNil())
		Expect(resp.Header.Get(middleware.RequestIDHeader)).To(HaveLen(36))
	})
})
