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

package router

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/handler"
	"github.com/penny-vault/pv-advisor/middleware"
)

// NewApp creates the fiber application with middleware and every route
// installed. corsOrigins is a comma separated list; "*" allows any origin.
func NewApp(h *handler.Handler, corsOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               common.ProgramName,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          handler.ErrorHandler,
		DisableStartupMessage: true,
	})

	if corsOrigins == "" {
		corsOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowHeaders: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(middleware.NewLogger())
	app.Use(recover.New())
	app.Use(middleware.NewTracer())

	SetupRoutes(app, h)
	return app
}

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App, h *handler.Handler) {
	api := app.Group("/api")
	api.Get("/health", h.Health)

	// Quotes
	api.Get("/stocks", h.GetStocks)
	api.Get("/cache/status", h.CacheStatus)
	api.Delete("/cache", h.ClearCache)

	// Portfolio
	portfolio := api.Group("/portfolio")
	portfolio.Post("/generate", h.GeneratePortfolio)
	portfolio.Post("/analyze", h.AnalyzePortfolio)
	portfolio.Post("/rebalance", h.RebalancePortfolio)

	// Recommendations
	recommendations := api.Group("/recommendations")
	recommendations.Post("/funds", h.RecommendFunds)
	recommendations.Post("/isa-etfs", h.RecommendISAETFs)
	recommendations.Post("/hybrid", h.HybridRecommendations)

	// Tax
	tax := api.Group("/tax")
	tax.Get("/isa", h.ISABenefit)
	tax.Get("/simulate", h.SimulateSavings)

	// Catalog
	cat := api.Group("/catalog")
	cat.Get("/stocks", h.ListStocks)
	cat.Get("/stocks/:ticker", h.GetStock)
	cat.Get("/funds", h.ListFunds)
	cat.Get("/funds/:code", h.GetFund)
	cat.Get("/etfs", h.ListETFs)
	cat.Get("/etfs/:ticker", h.GetETF)

	// Analytics service
	api.Post("/backtest", h.Backtest)
	api.Post("/mpt/analyze", h.AnalyzeMPT)
	api.Post("/news/sentiment", h.NewsSentiment)
}
