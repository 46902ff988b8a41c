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

package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/recommend"
)

var portfolioOpts struct {
	risk    string
	period  string
	sectors string
	income  string
	age     int
	amount  string
	seed    int64
	funds   float64
	isa     float64
	json    bool
}

func init() {
	f := portfolioCmd.Flags()
	f.StringVar(&portfolioOpts.risk, "risk", string(catalog.Moderate), "Risk tolerance: conservative, moderate or aggressive")
	f.StringVar(&portfolioOpts.period, "period", allocation.PeriodMedium, "Investment period: short, medium or long")
	f.StringVar(&portfolioOpts.sectors, "sectors", allocation.NoPreference, "Comma separated preferred sectors")
	f.StringVar(&portfolioOpts.income, "income", allocation.Income5000To8000, "Annual income bracket: under5000, 5000to8000 or over8000")
	f.IntVar(&portfolioOpts.age, "age", 35, "Investor age")
	f.StringVar(&portfolioOpts.amount, "amount", allocation.Amount1000To3000, "Investable amount bracket")
	f.Int64Var(&portfolioOpts.seed, "seed", 0, "Seed for stock selection, 0 seeds from the clock")
	f.Float64Var(&portfolioOpts.funds, "funds", 0, "Recommend bank funds for this total investment in KRW")
	f.Float64Var(&portfolioOpts.isa, "isa", 0, "Recommend ISA ETFs for this deposit in KRW")
	f.BoolVar(&portfolioOpts.json, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(portfolioCmd)
}

type portfolioOutput struct {
	*allocation.Result
	Analysis recommend.Analysis             `json:"analysis"`
	Funds    []recommend.FundRecommendation `json:"funds,omitempty"`
	ISA      *recommend.ISAPlan             `json:"isaPlan,omitempty"`
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Generate a model portfolio from survey answers",
	Long:  `Generate a model portfolio from survey answers and optionally recommend bank funds and ISA ETFs for it`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := allocation.Profile{
			InvestmentAmount: portfolioOpts.amount,
			RiskTolerance:    catalog.RiskLevel(portfolioOpts.risk),
			InvestmentPeriod: portfolioOpts.period,
			PreferredSectors: splitList(portfolioOpts.sectors),
			UserProfile: allocation.UserProfile{
				Age:    portfolioOpts.age,
				Income: portfolioOpts.income,
			},
		}

		var src rand.Source
		if portfolioOpts.seed != 0 {
			src = rand.NewSource(portfolioOpts.seed)
		}

		cat := catalog.Default()
		res, err := allocation.New(cat, src).Generate(profile)
		if err != nil {
			return err
		}

		out := portfolioOutput{
			Result:   res,
			Analysis: recommend.Analyze(res.Portfolio),
		}
		if portfolioOpts.funds > 0 {
			out.Funds = recommend.RecommendFunds(cat, profile, portfolioOpts.funds, &out.Analysis)
		}
		if portfolioOpts.isa > 0 {
			plan := recommend.RecommendISAETFs(cat, profile, portfolioOpts.isa, &out.Analysis)
			out.ISA = &plan
		}

		log.Debug().Int("NumEntries", len(res.Portfolio)).Int("NumFunds", len(out.Funds)).Msg("generated portfolio")

		if portfolioOpts.json {
			return printJSON(os.Stdout, out)
		}
		printPortfolio(cat, out)
		return nil
	},
}

func splitList(csv string) []string {
	var res []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

func printPortfolio(cat *catalog.Catalog, out portfolioOutput) {
	fmt.Printf("%s (%s)\n\n", out.Strategy, out.RiskLevel.Level)

	table := newTable("Ticker", "Name", "Sector", "Allocation")
	for _, entry := range out.Portfolio {
		table.Append([]string{entry.Ticker, entry.Name, string(entry.Sector), percent(entry.Allocation)})
	}
	table.Render()

	fmt.Printf("\n%s\n", out.Summary)
	fmt.Printf("Expected return: %s ~ %s\n", percent(out.ExpectedReturn.Min), percent(out.ExpectedReturn.Max))
	fmt.Printf("ISA: %s (%s)\n", out.ISARecommendation.ISAType, out.ISARecommendation.Recommendation)

	if len(out.Funds) > 0 {
		fmt.Println()
		table := newTable("#", "Code", "Fund", "Risk", "Score", "Amount")
		for _, fund := range out.Funds {
			table.Append([]string{
				strconv.Itoa(fund.Priority),
				fund.Code,
				fund.Name,
				cat.RiskLabel(fund.RiskLevel),
				strconv.Itoa(fund.Score),
				krw(float64(fund.RecommendedAmount)),
			})
		}
		table.Render()
	}

	if out.ISA != nil {
		fmt.Printf("\n%s\n\n", out.ISA.Strategy)
		table := newTable("Ticker", "ETF", "Category", "Allocation", "Amount", "Shares")
		for _, etf := range out.ISA.ETFs {
			table.Append([]string{
				etf.Ticker,
				etf.Name,
				cat.CategoryLabel(etf.Category),
				percent(etf.Allocation),
				krw(float64(etf.RecommendedAmount)),
				strconv.FormatInt(etf.Shares, 10),
			})
		}
		table.Render()
		fmt.Printf("Expected return: %s, yearly tax saving: %s\n", percent(out.ISA.ExpectedReturn), krw(float64(out.ISA.TaxBenefit.TaxSaving)))
	}
}
