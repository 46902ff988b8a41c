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
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/recommend"
)

const (
	msgInvalidBody      = "요청 본문을 해석할 수 없습니다."
	msgInvalidProfile   = "유효하지 않은 투자 성향입니다."
	msgPortfolioMissing = "portfolio 필드가 필요합니다."
	msgHoldingsMissing  = "holdings 필드가 필요합니다."
)

type analyzeRequest struct {
	Portfolio []allocation.Entry `json:"portfolio"`
}

type rebalanceRequest struct {
	Holdings []allocation.Holding `json:"holdings"`
}

type rebalanceResponse struct {
	Lines []allocation.RebalanceLine `json:"rebalance"`
}

// GeneratePortfolio builds a model portfolio from a survey profile. When the
// withQuotes query flag is set the entries are enriched with cached quotes.
func (h *Handler) GeneratePortfolio(c *fiber.Ctx) error {
	var profile allocation.Profile
	if err := c.BodyParser(&profile); err != nil {
		log.Warn().Err(err).Msg("could not parse survey profile")
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.Generator.Generate(profile)
	if err != nil {
		if errors.Is(err, allocation.ErrInvalidProfile) {
			return sendError(c, fiber.StatusBadRequest, msgInvalidProfile)
		}
		return err
	}

	if parseFlag(c.Query("withQuotes")) && h.Quotes != nil {
		quotes, err := h.Quotes.Get(c.UserContext(), allocation.Tickers(res.Portfolio), false)
		if err != nil {
			log.Warn().Err(err).Msg("serving portfolio without quotes")
		} else {
			res.Portfolio = allocation.Enrich(res.Portfolio, quotes.Data)
		}
	}

	return c.JSON(res)
}

// AnalyzePortfolio reports the sector and style composition of a portfolio
func (h *Handler) AnalyzePortfolio(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if len(req.Portfolio) == 0 {
		return sendError(c, fiber.StatusBadRequest, msgPortfolioMissing)
	}

	return c.JSON(recommend.Analyze(allocation.Resolve(h.Catalog, req.Portfolio)))
}

// RebalancePortfolio compares current holdings with their target weights
func (h *Handler) RebalancePortfolio(c *fiber.Ctx) error {
	var req rebalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if len(req.Holdings) == 0 {
		return sendError(c, fiber.StatusBadRequest, msgHoldingsMissing)
	}

	return c.JSON(rebalanceResponse{Lines: allocation.Rebalance(req.Holdings)})
}
