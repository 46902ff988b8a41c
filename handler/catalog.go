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

	"github.com/penny-vault/pv-advisor/catalog"
)

const (
	msgUnknownSector   = "알 수 없는 섹터입니다."
	msgStockNotFound   = "종목을 찾을 수 없습니다."
	msgProductNotFound = "상품을 찾을 수 없습니다."
)

// ListStocks returns every catalog instrument once, optionally limited to the
// stocks of one sector
func (h *Handler) ListStocks(c *fiber.Ctx) error {
	if s := c.Query("sector"); s != "" {
		sector := catalog.Sector(s)
		if !sector.Valid() {
			return sendError(c, fiber.StatusBadRequest, msgUnknownSector)
		}
		return c.JSON(h.Catalog.BySector(sector))
	}

	tickers := h.Catalog.Tickers()
	stocks := make([]catalog.Instrument, 0, len(tickers))
	for _, ticker := range tickers {
		inst, err := h.Catalog.FindByTicker(ticker)
		if err != nil {
			return err
		}
		stocks = append(stocks, inst)
	}
	return c.JSON(stocks)
}

// GetStock looks up one instrument by ticker
func (h *Handler) GetStock(c *fiber.Ctx) error {
	inst, err := h.Catalog.FindByTicker(c.Params("ticker"))
	if errors.Is(err, catalog.ErrNotFound) {
		return sendError(c, fiber.StatusNotFound, msgStockNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(inst)
}

// ListFunds returns the bank fund line-up
func (h *Handler) ListFunds(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.Funds())
}

// GetFund looks up a fund by product code
func (h *Handler) GetFund(c *fiber.Ctx) error {
	fund, err := h.Catalog.FundByCode(c.Params("code"))
	if errors.Is(err, catalog.ErrNotFound) {
		return sendError(c, fiber.StatusNotFound, msgProductNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(fund)
}

// ListETFs returns the ETF line-up; isa=true keeps only ISA recommended ETFs
func (h *Handler) ListETFs(c *fiber.Ctx) error {
	etfs := h.Catalog.ISAETFs()
	if !parseFlag(c.Query("isa")) {
		return c.JSON(etfs)
	}

	filtered := make([]catalog.ETF, 0, len(etfs))
	for _, etf := range etfs {
		if etf.ISARecommended {
			filtered = append(filtered, etf)
		}
	}
	return c.JSON(filtered)
}

// GetETF looks up an ETF by ticker
func (h *Handler) GetETF(c *fiber.Ctx) error {
	etf, err := h.Catalog.ETFByTicker(c.Params("ticker"))
	if errors.Is(err, catalog.ErrNotFound) {
		return sendError(c, fiber.StatusNotFound, msgProductNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(etf)
}
