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

package common

import (
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

// SetupLogging configures the global zerolog logger from the log.* keys.
// Unknown levels fall back to warn.
func SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log.level")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Info().Str("Level", level.String()).Msg("log level set")

	out, color := logOutput(viper.GetString("log.output"))
	if viper.GetBool("log.pretty") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: !color, TimeFormat: time.RFC3339})
	} else {
		log.Logger = log.Output(out)
	}

	if viper.GetBool("log.report_caller") {
		log.Logger = log.With().Caller().Logger()
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// logOutput resolves log.output to a writer. Anything other than stdout or
// stderr is a file path that stays open for the life of the process.
func logOutput(output string) (io.Writer, bool) {
	switch output {
	case "", "stdout":
		return os.Stdout, true
	case "stderr":
		return os.Stderr, true
	}

	fh, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		log.Panic().Err(err).Str("Path", output).Msg("could not open log file")
	}
	return fh, false
}

// GetTimezone returns the Korea Exchange reference timezone
func GetTimezone() *time.Location {
	tz, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Panic().Err(err).Msg("could not load timezone")
	}
	return tz
}

// Round rounds halves toward positive infinity (2.5 -> 3, -2.5 -> -2)
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundTo rounds x to the given number of decimal places using Round
func RoundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return Round(x*scale) / scale
}
