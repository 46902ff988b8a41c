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

// Package handler implements the HTTP endpoints of the advisory service
package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/analytics"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/quote"
)

// Handler holds the collaborators shared by every endpoint
type Handler struct {
	Catalog   *catalog.Catalog
	Generator *allocation.Generator
	Quotes    *quote.Cache
	Analytics *analytics.Client

	now func() time.Time
}

// New creates a handler; now defaults to time.Now
func New(cat *catalog.Catalog, gen *allocation.Generator, quotes *quote.Cache, client *analytics.Client, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		Catalog:   cat,
		Generator: gen,
		Quotes:    quotes,
		Analytics: client,
		now:       now,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// ErrorHandler renders errors returned by handlers, including fiber's own
// routing errors, as an ErrorResponse
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "요청을 처리하는 중 오류가 발생했습니다."

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	} else {
		log.Error().Stack().Err(err).Str("Path", c.Path()).Msg("unhandled error")
	}

	return sendError(c, code, msg)
}
