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
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/penny-vault/pv-advisor/tax"
)

const (
	msgTaxParams      = "amount와 expectedReturn은 숫자여야 합니다."
	msgSimulateParams = "monthly와 expectedReturn은 숫자, years는 양의 정수여야 합니다."
)

// ISABenefit estimates one year of ISA tax savings
func (h *Handler) ISABenefit(c *fiber.Ctx) error {
	amount, err1 := strconv.ParseFloat(c.Query("amount"), 64)
	expected, err2 := strconv.ParseFloat(c.Query("expectedReturn"), 64)
	if err1 != nil || err2 != nil || amount < 0 {
		return sendError(c, fiber.StatusBadRequest, msgTaxParams)
	}

	return c.JSON(tax.CalculateISABenefit(amount, expected))
}

// SimulateSavings projects a monthly contribution plan
func (h *Handler) SimulateSavings(c *fiber.Ctx) error {
	monthly, err1 := strconv.ParseFloat(c.Query("monthly"), 64)
	expected, err2 := strconv.ParseFloat(c.Query("expectedReturn"), 64)
	years, err3 := strconv.Atoi(c.Query("years"))
	if err1 != nil || err2 != nil || err3 != nil || years <= 0 || monthly < 0 {
		return sendError(c, fiber.StatusBadRequest, msgSimulateParams)
	}

	return c.JSON(tax.SimulateMonthlyInvestment(monthly, expected, years))
}
