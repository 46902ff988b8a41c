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

// Package catalog holds the static reference data used to build and
// complement portfolios: listed stocks grouped by investment style, bank
// funds, and ISA eligible ETFs.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

var (
	//go:embed data/stocks.toml
	stocksTOML []byte

	//go:embed data/products.toml
	productsTOML []byte
)

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

type stockFile struct {
	Dividend []Instrument `toml:"dividend"`
	LargeCap []Instrument `toml:"large_cap"`
	Growth   []Instrument `toml:"growth"`
	ETF      []Instrument `toml:"etf"`
}

type productFile struct {
	RiskLabels     map[string]string `toml:"risk_labels"`
	CategoryLabels map[string]string `toml:"category_labels"`
	Funds          []Fund            `toml:"fund"`
	ETFs           []ETF             `toml:"etf"`
}

// Catalog is read-only after Load returns and is safe for concurrent use.
// Accessors hand out copies so callers may modify what they receive.
type Catalog struct {
	dividend []Instrument
	largeCap []Instrument
	growth   []Instrument
	etfs     []Instrument

	funds   []Fund
	isaETFs []ETF

	riskLabels     map[string]string
	categoryLabels map[string]string

	byTicker map[string]Instrument
	fundIdx  map[string]int
	etfIdx   map[string]int
}

// Default returns the catalog compiled into the binary
func Default() *Catalog {
	defaultOnce.Do(func() {
		var err error
		defaultCatalog, err = Load(stocksTOML, productsTOML)
		if err != nil {
			log.Panic().Err(err).Msg("embedded catalog data is invalid")
		}
	})
	return defaultCatalog
}

// Load parses stock and product registries from TOML documents
func Load(stocks, products []byte) (*Catalog, error) {
	var sf stockFile
	if err := toml.Unmarshal(stocks, &sf); err != nil {
		return nil, fmt.Errorf("%w: stocks: %s", ErrInvalidData, err)
	}

	var pf productFile
	if err := toml.Unmarshal(products, &pf); err != nil {
		return nil, fmt.Errorf("%w: products: %s", ErrInvalidData, err)
	}

	cat := &Catalog{
		dividend:       sf.Dividend,
		largeCap:       sf.LargeCap,
		growth:         sf.Growth,
		etfs:           sf.ETF,
		funds:          pf.Funds,
		isaETFs:        pf.ETFs,
		riskLabels:     pf.RiskLabels,
		categoryLabels: pf.CategoryLabels,
		byTicker:       make(map[string]Instrument),
		fundIdx:        make(map[string]int, len(pf.Funds)),
		etfIdx:         make(map[string]int, len(pf.ETFs)),
	}

	// first registration wins, search order is dividend, large cap, growth, etf
	for _, registry := range [][]Instrument{cat.dividend, cat.largeCap, cat.growth, cat.etfs} {
		for _, inst := range registry {
			if inst.Ticker == "" {
				return nil, fmt.Errorf("%w: instrument %q has no ticker", ErrInvalidData, inst.Name)
			}
			if !inst.Sector.Valid() {
				return nil, fmt.Errorf("%w: instrument %s has unknown sector %q", ErrInvalidData, inst.Ticker, inst.Sector)
			}
			if _, ok := cat.byTicker[inst.Ticker]; !ok {
				cat.byTicker[inst.Ticker] = inst
			}
		}
	}

	for idx, fund := range cat.funds {
		if !fund.RiskLevel.Valid() {
			return nil, fmt.Errorf("%w: fund %s has unknown risk level %q", ErrInvalidData, fund.Code, fund.RiskLevel)
		}
		if _, ok := cat.fundIdx[fund.Code]; ok {
			return nil, fmt.Errorf("%w: duplicate fund code %s", ErrInvalidData, fund.Code)
		}
		cat.fundIdx[fund.Code] = idx
	}

	for idx, etf := range cat.isaETFs {
		if !etf.RiskLevel.Valid() {
			return nil, fmt.Errorf("%w: etf %s has unknown risk level %q", ErrInvalidData, etf.Ticker, etf.RiskLevel)
		}
		if _, ok := cat.etfIdx[etf.Ticker]; ok {
			return nil, fmt.Errorf("%w: duplicate etf ticker %s", ErrInvalidData, etf.Ticker)
		}
		cat.etfIdx[etf.Ticker] = idx
	}

	log.Debug().Int("NumStocks", len(cat.byTicker)).Int("NumFunds", len(cat.funds)).Int("NumETFs", len(cat.isaETFs)).Msg("loaded catalog")

	return cat, nil
}

// Dividend returns the dividend stock registry
func (cat *Catalog) Dividend() []Instrument {
	return copyInstruments(cat.dividend)
}

// LargeCap returns the large-cap stock registry
func (cat *Catalog) LargeCap() []Instrument {
	return copyInstruments(cat.largeCap)
}

// Growth returns the growth stock registry
func (cat *Catalog) Growth() []Instrument {
	return copyInstruments(cat.growth)
}

// ETFs returns the ETF registry in declaration order
func (cat *Catalog) ETFs() []Instrument {
	return copyInstruments(cat.etfs)
}

// All returns every registry entry, duplicates included
func (cat *Catalog) All() []Instrument {
	all := make([]Instrument, 0, len(cat.dividend)+len(cat.largeCap)+len(cat.growth)+len(cat.etfs))
	all = append(all, cat.dividend...)
	all = append(all, cat.largeCap...)
	all = append(all, cat.growth...)
	all = append(all, cat.etfs...)
	return all
}

// Tickers returns each ticker once, in registry order
func (cat *Catalog) Tickers() []string {
	seen := make(map[string]bool, len(cat.byTicker))
	tickers := make([]string, 0, len(cat.byTicker))
	for _, inst := range cat.All() {
		if !seen[inst.Ticker] {
			seen[inst.Ticker] = true
			tickers = append(tickers, inst.Ticker)
		}
	}
	return tickers
}

// FindByTicker looks up an instrument; dividend listings take precedence over
// large-cap, then growth, then ETF listings
func (cat *Catalog) FindByTicker(ticker string) (Instrument, error) {
	if inst, ok := cat.byTicker[ticker]; ok {
		return inst, nil
	}
	return Instrument{}, ErrNotFound
}

// BySector returns the stocks (not ETFs) in sector, each ticker at most once
func (cat *Catalog) BySector(sector Sector) []Instrument {
	seen := make(map[string]bool)
	res := make([]Instrument, 0)
	for _, registry := range [][]Instrument{cat.dividend, cat.largeCap, cat.growth} {
		for _, inst := range registry {
			if inst.Sector == sector && !seen[inst.Ticker] {
				seen[inst.Ticker] = true
				res = append(res, inst)
			}
		}
	}
	return res
}

// Funds returns the bank fund list
func (cat *Catalog) Funds() []Fund {
	res := make([]Fund, len(cat.funds))
	copy(res, cat.funds)
	return res
}

// FundByCode looks up a fund by its product code
func (cat *Catalog) FundByCode(code string) (Fund, error) {
	if idx, ok := cat.fundIdx[code]; ok {
		return cat.funds[idx], nil
	}
	return Fund{}, ErrNotFound
}

// ISAETFs returns the ISA ETF list
func (cat *Catalog) ISAETFs() []ETF {
	res := make([]ETF, len(cat.isaETFs))
	copy(res, cat.isaETFs)
	return res
}

// ETFByTicker looks up an ISA ETF by ticker
func (cat *Catalog) ETFByTicker(ticker string) (ETF, error) {
	if idx, ok := cat.etfIdx[ticker]; ok {
		return cat.isaETFs[idx], nil
	}
	return ETF{}, ErrNotFound
}

// RiskLabel returns the display label for a risk level, or the raw value
func (cat *Catalog) RiskLabel(risk RiskLevel) string {
	if label, ok := cat.riskLabels[string(risk)]; ok {
		return label
	}
	return string(risk)
}

// CategoryLabel returns the display label for a fund or ETF category, or the
// raw value
func (cat *Catalog) CategoryLabel(category string) string {
	if label, ok := cat.categoryLabels[category]; ok {
		return label
	}
	return category
}

func copyInstruments(in []Instrument) []Instrument {
	out := make([]Instrument, len(in))
	copy(out, in)
	return out
}
