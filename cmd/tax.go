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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/penny-vault/pv-advisor/tax"
)

var taxOpts struct {
	amount         float64
	expectedReturn float64
	monthly        float64
	years          int
	json           bool
}

func init() {
	f := taxCmd.Flags()
	f.Float64Var(&taxOpts.amount, "amount", 0, "Amount held in the ISA in KRW")
	f.Float64Var(&taxOpts.expectedReturn, "return", 8, "Expected annual return in percent")
	f.Float64Var(&taxOpts.monthly, "monthly", 0, "Also simulate this monthly contribution in KRW")
	f.IntVar(&taxOpts.years, "years", 5, "Number of years to simulate monthly contributions")
	f.BoolVar(&taxOpts.json, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(taxCmd)
}

type taxOutput struct {
	Benefit    *tax.Benefit    `json:"benefit,omitempty"`
	Simulation *tax.Simulation `json:"simulation,omitempty"`
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Estimate ISA tax savings",
	Long:  `Compare the yearly tax of an ISA with a regular account and project a monthly savings plan`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if taxOpts.amount <= 0 && taxOpts.monthly <= 0 {
			return errors.New("one of --amount or --monthly is required")
		}

		var out taxOutput
		if taxOpts.amount > 0 {
			benefit := tax.CalculateISABenefit(taxOpts.amount, taxOpts.expectedReturn)
			out.Benefit = &benefit
		}
		if taxOpts.monthly > 0 {
			if taxOpts.years <= 0 {
				return errors.New("--years must be positive")
			}
			sim := tax.SimulateMonthlyInvestment(taxOpts.monthly, taxOpts.expectedReturn, taxOpts.years)
			out.Simulation = &sim
		}

		if taxOpts.json {
			return printJSON(os.Stdout, out)
		}

		if b := out.Benefit; b != nil {
			table := newTable("", "KRW")
			table.Append([]string{"Dividend", krw(float64(b.AnnualDividend))})
			table.Append([]string{"Capital gain", krw(float64(b.EstimatedCapitalGain))})
			table.Append([]string{"Total gain", krw(float64(b.TotalGain))})
			table.Append([]string{"Regular account tax", krw(float64(b.NormalTax))})
			table.Append([]string{"ISA tax", krw(float64(b.ISATax))})
			table.Append([]string{"Tax saving", krw(float64(b.TaxSaving))})
			table.Render()
		}

		if s := out.Simulation; s != nil {
			fmt.Printf("\n%d years of %s per month at %s\n\n", taxOpts.years, krw(taxOpts.monthly), percent(taxOpts.expectedReturn))
			table := newTable("Invested", "Future value", "Return", "Return rate")
			table.Append([]string{krw(float64(s.TotalInvested)), krw(float64(s.FutureValue)), krw(float64(s.TotalReturn)), percent(s.ReturnRate)})
			table.Render()
		}
		return nil
	},
}
