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

package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/recommend"
)

const (
	msgInvestmentRequired = "totalInvestment는 0보다 커야 합니다."
	msgISAAmountRequired  = "isaAmount는 0보다 커야 합니다."
)

type fundsRequest struct {
	Profile         allocation.Profile `json:"profile"`
	TotalInvestment float64            `json:"totalInvestment"`
	Portfolio       []allocation.Entry `json:"portfolio"`
}

type isaETFRequest struct {
	Profile   allocation.Profile `json:"profile"`
	ISAAmount float64            `json:"isaAmount"`
	Portfolio []allocation.Entry `json:"portfolio"`
}

type fundsResponse struct {
	Funds []recommend.FundRecommendation `json:"funds"`
}

// analysisFor returns nil for an empty portfolio so recommenders fall back to
// their profile-only behavior
func (h *Handler) analysisFor(portfolio []allocation.Entry) *recommend.Analysis {
	if len(portfolio) == 0 {
		return nil
	}
	analysis := recommend.Analyze(allocation.Resolve(h.Catalog, portfolio))
	return &analysis
}

// RecommendFunds ranks bank funds for an investor
func (h *Handler) RecommendFunds(c *fiber.Ctx) error {
	var req fundsRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := req.Profile.Validate(); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidProfile)
	}
	if req.TotalInvestment <= 0 {
		return sendError(c, fiber.StatusBadRequest, msgInvestmentRequired)
	}

	funds := recommend.RecommendFunds(h.Catalog, req.Profile, req.TotalInvestment, h.analysisFor(req.Portfolio))
	return c.JSON(fundsResponse{Funds: funds})
}

// RecommendISAETFs splits an ISA deposit across ETFs
func (h *Handler) RecommendISAETFs(c *fiber.Ctx) error {
	var req isaETFRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if err := req.Profile.Validate(); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidProfile)
	}
	if req.ISAAmount <= 0 {
		return sendError(c, fiber.StatusBadRequest, msgISAAmountRequired)
	}

	plan := recommend.RecommendISAETFs(h.Catalog, req.Profile, req.ISAAmount, h.analysisFor(req.Portfolio))
	return c.JSON(plan)
}
