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

package tradecron

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// krxHolidays lists weekdays the Korea Exchange is closed, including
// substitute holidays, election days and the year-end closing day
var krxHolidays = []string{
	// 2024
	"2024-01-01", "2024-02-09", "2024-02-12", "2024-03-01", "2024-04-10",
	"2024-05-01", "2024-05-06", "2024-05-15", "2024-06-06", "2024-08-15",
	"2024-09-16", "2024-09-17", "2024-09-18", "2024-10-01", "2024-10-03",
	"2024-10-09", "2024-12-25", "2024-12-31",

	// 2025
	"2025-01-01", "2025-01-27", "2025-01-28", "2025-01-29", "2025-01-30",
	"2025-03-03", "2025-05-01", "2025-05-05", "2025-05-06", "2025-06-03",
	"2025-06-06", "2025-08-15", "2025-10-03", "2025-10-06", "2025-10-07",
	"2025-10-08", "2025-10-09", "2025-12-25", "2025-12-31",

	// 2026
	"2026-01-01", "2026-02-16", "2026-02-17", "2026-02-18", "2026-03-02",
	"2026-05-01", "2026-05-05", "2026-05-25", "2026-06-03", "2026-08-17",
	"2026-09-24", "2026-09-25", "2026-10-05", "2026-10-09", "2026-12-25",
	"2026-12-31",
}

var (
	holidays     = loadHolidays(krxHolidays)
	holidaysThru = lastHolidayYear(krxHolidays)

	// years past the table that have already been warned about
	warnedYears sync.Map
)

// HolidaysKnownThrough is the last year covered by the holiday table
func HolidaysKnownThrough() int {
	return holidaysThru
}

func lastHolidayYear(dates []string) int {
	last := 0
	for _, d := range dates {
		if t, err := time.Parse("2006-01-02", d); err == nil && t.Year() > last {
			last = t.Year()
		}
	}
	return last
}

// warnUncovered logs once per year when a date falls past the holiday table;
// such dates are treated as regular weekdays
func warnUncovered(year int) {
	if year <= holidaysThru {
		return
	}
	if _, seen := warnedYears.LoadOrStore(year, struct{}{}); seen {
		return
	}
	log.Warn().Int("Year", year).Int("KnownThrough", holidaysThru).Msg("KRX holiday table does not cover this year; holidays will be treated as trading days")
}

func loadHolidays(dates []string) map[string]struct{} {
	res := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			log.Panic().Err(err).Str("Date", d).Msg("malformed entry in market holiday table")
		}
		res[d] = struct{}{}
	}
	return res
}
