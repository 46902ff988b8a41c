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
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/quote"
)

const (
	msgTickersRequired = "tickers 파라미터가 필요합니다."
	msgQuoteFailure    = "주식 데이터를 가져오는 중 오류가 발생했습니다."
	msgCacheCleared    = "캐시가 초기화되었습니다."
)

type stocksResponse struct {
	Data           map[string]*quote.Quote `json:"data"`
	Cached         bool                    `json:"cached"`
	Offline        bool                    `json:"offline,omitempty"`
	CacheTimestamp int64                   `json:"cacheTimestamp"`
	CacheAge       int                     `json:"cacheAge"`
}

type cacheStatusResponse struct {
	Exists     bool    `json:"exists"`
	Timestamp  *string `json:"timestamp"`
	Age        *int    `json:"age"`
	IsExpired  bool    `json:"isExpired"`
	StockCount int     `json:"stockCount"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// GetStocks returns quotes for the comma separated tickers query parameter
func (h *Handler) GetStocks(c *fiber.Ctx) error {
	tickers := quote.ParseTickers(c.Query("tickers"))
	if len(tickers) == 0 {
		return sendError(c, fiber.StatusBadRequest, msgTickersRequired)
	}

	forceRefresh := parseFlag(c.Query("forceRefresh"))

	res, err := h.Quotes.Get(c.UserContext(), tickers, forceRefresh)
	if err != nil {
		if errors.Is(err, quote.ErrNoTickers) {
			return sendError(c, fiber.StatusBadRequest, msgTickersRequired)
		}
		log.Error().Err(err).Strs("Tickers", tickers).Msg("could not get quotes")
		return sendError(c, fiber.StatusInternalServerError, msgQuoteFailure)
	}

	return c.JSON(stocksResponse{
		Data:           res.Data,
		Cached:         res.Cached,
		Offline:        res.Offline,
		CacheTimestamp: res.Timestamp.UnixMilli(),
		CacheAge:       res.AgeHours,
	})
}

// CacheStatus describes the quote cache slot
func (h *Handler) CacheStatus(c *fiber.Ctx) error {
	status := h.Quotes.Status()
	if !status.Exists {
		return c.JSON(cacheStatusResponse{
			Exists:    false,
			IsExpired: true,
		})
	}

	ts := koreanTimestamp(status.Timestamp)
	age := status.AgeHours
	return c.JSON(cacheStatusResponse{
		Exists:     true,
		Timestamp:  &ts,
		Age:        &age,
		IsExpired:  status.Expired,
		StockCount: status.Count,
	})
}

// ClearCache empties the quote cache
func (h *Handler) ClearCache(c *fiber.Ctx) error {
	h.Quotes.Invalidate(c.UserContext())
	return c.JSON(messageResponse{Message: msgCacheCleared})
}

// parseFlag accepts the spellings strconv.ParseBool does; anything else is false
func parseFlag(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}

// koreanTimestamp renders t in Asia/Seoul the way the ko-KR locale prints a
// date and time, e.g. "2024. 7. 15. 오후 3:04:05"
func koreanTimestamp(t time.Time) string {
	local := t.In(common.GetTimezone())

	meridiem := "오전"
	if local.Hour() >= 12 {
		meridiem = "오후"
	}

	hour := local.Hour() % 12
	if hour == 0 {
		hour = 12
	}

	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		local.Year(), int(local.Month()), local.Day(), meridiem, hour, local.Minute(), local.Second())
}
