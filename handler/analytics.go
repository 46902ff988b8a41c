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
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/analytics"
)

const (
	msgAnalyticsDisabled = "분석 서비스가 설정되지 않았습니다."
	msgAnalyticsFailure  = "분석 서비스 호출에 실패했습니다: "
)

// Backtest proxies a backtest request to the analytics service
func (h *Handler) Backtest(c *fiber.Ctx) error {
	var req analytics.BacktestRequest
	return h.proxy(c, &req, func(ctx context.Context) (interface{}, error) {
		return h.Analytics.Backtest(ctx, req)
	})
}

// AnalyzeMPT proxies a portfolio theory request to the analytics service
func (h *Handler) AnalyzeMPT(c *fiber.Ctx) error {
	var req analytics.MPTRequest
	return h.proxy(c, &req, func(ctx context.Context) (interface{}, error) {
		return h.Analytics.AnalyzeMPT(ctx, req)
	})
}

// NewsSentiment proxies a sentiment request to the analytics service
func (h *Handler) NewsSentiment(c *fiber.Ctx) error {
	var req analytics.NewsRequest
	return h.proxy(c, &req, func(ctx context.Context) (interface{}, error) {
		return h.Analytics.NewsSentiment(ctx, req)
	})
}

// HybridRecommendations proxies a stock recommendation request
func (h *Handler) HybridRecommendations(c *fiber.Ctx) error {
	var req analytics.HybridRequest
	return h.proxy(c, &req, func(ctx context.Context) (interface{}, error) {
		return h.Analytics.HybridRecommendations(ctx, req)
	})
}

func (h *Handler) proxy(c *fiber.Ctx, req interface{}, call func(context.Context) (interface{}, error)) error {
	if h.Analytics == nil {
		return sendError(c, fiber.StatusServiceUnavailable, msgAnalyticsDisabled)
	}

	if err := c.BodyParser(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	res, err := call(c.UserContext())
	if err != nil {
		var verr *analytics.ValidationError
		if errors.As(err, &verr) {
			return sendError(c, fiber.StatusBadRequest, verr.Message)
		}
		log.Error().Err(err).Str("Path", c.Path()).Msg("analytics service call failed")
		return sendError(c, fiber.StatusBadGateway, msgAnalyticsFailure+err.Error())
	}

	if raw, ok := res.(json.RawMessage); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}
	return c.JSON(res)
}
