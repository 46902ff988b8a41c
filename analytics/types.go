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

package analytics

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

const (
	DefaultInitialInvestment = 10_000_000
	DefaultMaxNews           = 10
	DefaultRiskTolerance     = "moderate"
	DefaultTopK              = 5

	weightTolerance = 0.01
)

// BacktestRequest asks the analytics service to replay a weighted basket.
// Dates are YYYYMMDD and default to the trailing year.
type BacktestRequest struct {
	Tickers           []string  `json:"tickers"`
	Weights           []float64 `json:"weights"`
	InitialInvestment float64   `json:"initialInvestment,omitempty"`
	StartDate         string    `json:"startDate,omitempty"`
	EndDate           string    `json:"endDate,omitempty"`
}

// Normalize fills defaults and validates the request
func (r *BacktestRequest) Normalize() error {
	if len(r.Tickers) == 0 || len(r.Weights) == 0 {
		return invalid("tickers와 weights 필드가 필요합니다.")
	}
	if len(r.Tickers) != len(r.Weights) {
		return invalid("tickers와 weights의 개수가 일치해야 합니다.")
	}

	sum := 0.0
	for _, w := range r.Weights {
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return invalid(fmt.Sprintf("비중의 합계는 1.0이어야 합니다. (현재: %g)", sum))
	}

	if r.InitialInvestment <= 0 {
		r.InitialInvestment = DefaultInitialInvestment
	}
	return nil
}

// MPTRequest asks for efficient frontier statistics of a basket
type MPTRequest struct {
	Tickers   []string `json:"tickers"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
}

func (r *MPTRequest) Normalize() error {
	if r.Tickers == nil {
		return invalid("tickers 필드가 필요합니다.")
	}
	if len(r.Tickers) < 2 {
		return invalid("최소 2개 이상의 종목이 필요합니다.")
	}
	return nil
}

// NewsRequest asks for headline sentiment per ticker
type NewsRequest struct {
	Tickers []string `json:"tickers"`
	MaxNews int      `json:"maxNews,omitempty"`
}

func (r *NewsRequest) Normalize() error {
	if r.Tickers == nil {
		return invalid("tickers 필드가 필요합니다.")
	}
	if len(r.Tickers) < 1 {
		return invalid("최소 1개 이상의 종목이 필요합니다.")
	}
	if r.MaxNews <= 0 {
		r.MaxNews = DefaultMaxNews
	}
	return nil
}

// HybridRequest asks for stocks that complement the tickers already held
type HybridRequest struct {
	Portfolio     []string `json:"portfolio"`
	RiskTolerance string   `json:"riskTolerance,omitempty"`
	TopK          int      `json:"topK,omitempty"`
}

func (r *HybridRequest) Normalize() error {
	if r.Portfolio == nil {
		r.Portfolio = []string{}
	}
	if r.RiskTolerance == "" {
		r.RiskTolerance = DefaultRiskTolerance
	}
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	return nil
}

// HybridResponse lists recommended tickers. Each item is passed through as
// returned by the service.
type HybridResponse struct {
	Recommendations []json.RawMessage `json:"recommendations"`
}
