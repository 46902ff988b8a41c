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
	"time"

	"github.com/penny-vault/pv-advisor/common"
)

type MarketStatus struct {
	marketHours *MarketHours
	tz          *time.Location
}

// NewMarketStatus evaluates market days and hours in the exchange timezone
func NewMarketStatus(hours *MarketHours) *MarketStatus {
	return &MarketStatus{
		marketHours: hours,
		tz:          common.GetTimezone(),
	}
}

// IsMarketHoliday returns true if the specified date is a market holiday
func (ms *MarketStatus) IsMarketHoliday(t time.Time) bool {
	local := t.In(ms.tz)
	warnUncovered(local.Year())
	_, ok := holidays[local.Format("2006-01-02")]
	return ok
}

// IsMarketOpen returns true if the specified time is during market hours
// (i.e. not a market holiday or weekend)
func (ms *MarketStatus) IsMarketOpen(t time.Time) bool {
	if !ms.IsMarketDay(t) {
		return false
	}

	local := t.In(ms.tz)
	timeOfDay := local.Hour()*100 + local.Minute()
	return timeOfDay >= ms.marketHours.Open && timeOfDay <= ms.marketHours.Close
}

// IsMarketDay returns true if the specified date is a valid trading day
// (i.e. not a market holiday or weekend)
func (ms *MarketStatus) IsMarketDay(t time.Time) bool {
	local := t.In(ms.tz)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return !ms.IsMarketHoliday(local)
}

func (ms *MarketStatus) midnight(t time.Time) time.Time {
	local := t.In(ms.tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ms.tz)
}

// NextFirstTradingDayOfMonth returns the first trading day of the next month
func (ms *MarketStatus) NextFirstTradingDayOfMonth(t time.Time) time.Time {
	local := t.In(ms.tz)
	d := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, 0)
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// NextFirstTradingDayOfWeek returns the first trading day of the week that
// begins on or after t
func (ms *MarketStatus) NextFirstTradingDayOfWeek(t time.Time) time.Time {
	d := ms.midnight(t)
	daysToWeekBegin := (8 - d.Weekday()) % 7
	d = d.AddDate(0, 0, int(daysToWeekBegin))
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// LastTradingDayOfMonth returns the last trading day of the month containing t
func (ms *MarketStatus) LastTradingDayOfMonth(t time.Time) time.Time {
	local := t.In(ms.tz)
	d := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, ms.tz).AddDate(0, 1, -1)
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextLastTradingDayOfWeek returns the last trading day of the week containing t
func (ms *MarketStatus) NextLastTradingDayOfWeek(t time.Time) time.Time {
	d := ms.midnight(t)
	d = d.AddDate(0, 0, int(time.Friday-d.Weekday()))
	for !ms.IsMarketDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
