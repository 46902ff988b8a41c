// Copyright 2021-2023
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
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	AtOpen       = "@open"
	AtClose      = "@close"
	AtWeekBegin  = "@weekbegin"
	AtWeekEnd    = "@weekend"
	AtMonthBegin = "@monthbegin"
	AtMonthEnd   = "@monthend"
)

type MarketHours struct {
	Open  int
	Close int
}

type TradeCron struct {
	Schedule       cron.Schedule
	ScheduleString string
	TimeSpec       string
	TimeFlag       string
	DateFlag       string
	marketStatus   *MarketStatus
}

var (
	// RegularHours is the KRX regular session in Asia/Seoul
	RegularHours = MarketHours{
		Open:  900,
		Close: 1530,
	}
	// ExtendedHours adds the pre-market and after-hours single price sessions
	ExtendedHours = MarketHours{
		Open:  830,
		Close: 1800,
	}
)

// timeModifiers and dateModifiers list the tokens that replace the minute
// and hour fields or constrain the trading day
var (
	timeModifiers = map[string]bool{AtOpen: true, AtClose: true}
	dateModifiers = map[string]bool{AtWeekBegin: true, AtWeekEnd: true, AtMonthBegin: true, AtMonthEnd: true}
)

// maxSearch bounds the number of schedule steps Next takes before giving up
const maxSearch = 5000

// New parses a market aware cron spec. The base format is the standard five
// field cron spec (minute hour day-of-month month day-of-week). Fields left
// off the end default to "*".
//
// Modifiers:
//
//	@open, @close          anchor the minute and hour fields to the session
//	                       open or close; the fields become an offset
//	@weekbegin, @weekend   first or last trading day of the week
//	@monthbegin, @monthend first or last trading day of the month
//
// Plain specs only fire while the market is open. Specs anchored with @open or
// @close fire on any trading day, so "10 @close" runs ten minutes after the
// close.
//
//	"*/5 * * * *"        every 5 minutes during the session
//	"15 @open * * *"     15 minutes after the open
//	"@close @monthend"   at the close on the last trading day of the month
func New(cronSpec string, hours MarketHours) (*TradeCron, error) {
	tokens := strings.Fields(expandBriefFormat(strings.TrimSpace(cronSpec)))

	fields := make([]string, 0, 5)
	var timeFlag, dateFlag string
	for _, token := range tokens {
		switch {
		case !strings.HasPrefix(token, "@"):
			fields = append(fields, token)
		case timeModifiers[token]:
			if timeFlag != "" {
				return nil, ErrConflictingModifiers
			}
			timeFlag = token
		case dateModifiers[token]:
			if dateFlag != "" {
				return nil, ErrConflictingModifiers
			}
			dateFlag = token
		default:
			log.Error().Str("Modifier", token).Str("TradeCronSpec", cronSpec).Msg("unknown tradecron modifier")
			return nil, ErrUnknownModifier
		}
	}

	timeSpec := strings.Join(fields, " ")
	if timeFlag != "" {
		if len(fields) != 5 {
			return nil, ErrMalformedTimeSpec
		}

		anchor := hours.Open
		if timeFlag == AtClose {
			anchor = hours.Close
		}

		var err error
		if timeSpec, err = parseTimeRelativeTo(fields, anchor/100, anchor%100); err != nil {
			return nil, err
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(timeSpec)
	if err != nil {
		log.Error().Err(err).Str("TimeSpec", timeSpec).Str("TradeCronSpec", cronSpec).Msg("could not parse timespec")
		return nil, err
	}

	return &TradeCron{
		Schedule:       schedule,
		ScheduleString: cronSpec,
		TimeSpec:       timeSpec,
		DateFlag:       dateFlag,
		TimeFlag:       timeFlag,
		marketStatus:   NewMarketStatus(&hours),
	}, nil
}

// IsTradeDay reports whether the schedule fires at some point on the day of
// forDate. The time of day of forDate is ignored.
func (tc *TradeCron) IsTradeDay(forDate time.Time) bool {
	day := tc.marketStatus.midnight(forDate)
	next := tc.Next(day.Add(-time.Nanosecond))
	return tc.marketStatus.midnight(next).Equal(day)
}

// Next returns the first time after forDate that matches the schedule and
// falls in the market session (or on a trading day for anchored schedules).
// The schedule is evaluated in exchange time whatever the location of
// forDate. A schedule that never matches a trading time yields the zero
// time.
func (tc *TradeCron) Next(forDate time.Time) time.Time {
	checkDate := tc.startFrom(forDate.In(tc.marketStatus.tz))

	for step := 0; step <= maxSearch; step++ {
		checkDate = tc.Schedule.Next(checkDate)
		if tc.fires(checkDate) {
			return checkDate
		}
	}

	log.Error().Str("TimeSpec", tc.TimeSpec).Str("DateFlag", tc.DateFlag).Msg("tradecron schedule never matches a trading time")
	return time.Time{}
}

func (tc *TradeCron) fires(t time.Time) bool {
	if tc.TimeFlag == "" {
		return tc.marketStatus.IsMarketOpen(t)
	}
	return tc.marketStatus.IsMarketDay(t)
}

// startFrom fast-forwards the search to the trading day the date modifier
// allows. Without a date modifier the search starts at forDate.
func (tc *TradeCron) startFrom(forDate time.Time) time.Time {
	ms := tc.marketStatus
	next := tc.Schedule.Next(forDate)
	nextDay := ms.midnight(next)

	// pick returns forDate when the schedule already lands on target,
	// target when it lands before it and later otherwise
	pick := func(target time.Time, later func() time.Time) time.Time {
		switch {
		case nextDay.Before(target):
			return target
		case nextDay.Equal(target):
			return forDate
		default:
			return later()
		}
	}

	switch tc.DateFlag {
	case AtWeekBegin:
		return pick(ms.NextFirstTradingDayOfWeek(forDate), func() time.Time {
			return ms.NextFirstTradingDayOfWeek(nextDay)
		})
	case AtWeekEnd:
		return pick(ms.NextLastTradingDayOfWeek(forDate), func() time.Time {
			return ms.NextLastTradingDayOfWeek(nextDay)
		})
	case AtMonthEnd:
		nextMonth := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, 0)
		return pick(ms.LastTradingDayOfMonth(next), func() time.Time {
			return ms.LastTradingDayOfMonth(nextMonth)
		})
	case AtMonthBegin:
		endOfLastMonth := time.Date(forDate.Year(), forDate.Month(), 1, 23, 59, 59, 999_999_999, ms.tz).AddDate(0, 0, -1)
		thisMonth := ms.NextFirstTradingDayOfMonth(endOfLastMonth)
		nextMonth := ms.NextFirstTradingDayOfMonth(forDate)
		if nextDay.Equal(thisMonth) || nextDay.Equal(nextMonth) {
			return forDate
		}

		// the schedule's time of day on the first trading day of next month
		candidate := time.Date(nextMonth.Year(), nextMonth.Month(), nextMonth.Day(), next.Hour(), next.Minute(), next.Second(), next.Nanosecond(), next.Location())
		if next.After(candidate) {
			return ms.NextFirstTradingDayOfMonth(next)
		}
		return nextMonth
	}

	return forDate
}
