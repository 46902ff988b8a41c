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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-advisor/analytics"
	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/fetch"
)

var cfgFile string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is pvadvisor.toml in /etc/pvadvisor, $HOME/.config/pvadvisor or .)")

	// Logging configuration
	bindPersistent("log.level", "PVADVISOR_LOG_LEVEL", "log-level", "warning", "Logging level")
	bindPersistent("log.output", "PVADVISOR_LOG_OUTPUT", "log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")

	viper.BindEnv("log.pretty", "PVADVISOR_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Write human readable logs instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	viper.BindEnv("log.report_caller", "PVADVISOR_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	// Analytics service
	bindPersistent("analytics.url", "PVADVISOR_ANALYTICS_URL", "analytics-url", "http://localhost:5001", "Base URL of the analytics service")

	viper.BindEnv("analytics.memo_size", "PVADVISOR_ANALYTICS_MEMO_SIZE")
	rootCmd.PersistentFlags().Int("analytics-memo-size", 128, "Number of analytics responses to memoize, 0 disables the memo")
	viper.BindPFlag("analytics.memo_size", rootCmd.PersistentFlags().Lookup("analytics-memo-size"))

	viper.BindEnv("analytics.memo_ttl", "PVADVISOR_ANALYTICS_MEMO_TTL")
	rootCmd.PersistentFlags().Duration("analytics-memo-ttl", analytics.DefaultMemoTTL, "How long a memoized analytics response is reused")
	viper.BindPFlag("analytics.memo_ttl", rootCmd.PersistentFlags().Lookup("analytics-memo-ttl"))

	viper.BindEnv("analytics.rate_limit", "PVADVISOR_ANALYTICS_RATE_LIMIT")
	rootCmd.PersistentFlags().Float64("analytics-rate-limit", 5, "Maximum analytics requests per second, 0 disables the limit")
	viper.BindPFlag("analytics.rate_limit", rootCmd.PersistentFlags().Lookup("analytics-rate-limit"))

	// Outbound retries
	viper.BindEnv("retry.max", "PVADVISOR_RETRY_MAX")
	rootCmd.PersistentFlags().Int("retry-max", 3, "Number of retries after a failed outbound request")
	viper.BindPFlag("retry.max", rootCmd.PersistentFlags().Lookup("retry-max"))

	viper.BindEnv("retry.timeout", "PVADVISOR_RETRY_TIMEOUT")
	rootCmd.PersistentFlags().Duration("retry-timeout", fetch.DefaultTimeout, "Timeout of a single outbound request attempt")
	viper.BindPFlag("retry.timeout", rootCmd.PersistentFlags().Lookup("retry-timeout"))

	// Tracing
	bindPersistent("otlp.endpoint", "PVADVISOR_OTLP_ENDPOINT", "otlp-endpoint", "", "OTLP collector endpoint, tracing is disabled when empty")
	bindPersistent("otlp.headers", "PVADVISOR_OTLP_HEADERS", "otlp-headers", "", "Comma separated key=value headers sent to the OTLP collector")

	viper.BindEnv("otlp.http", "PVADVISOR_OTLP_HTTP")
	rootCmd.PersistentFlags().Bool("otlp-http", false, "Export traces over HTTP instead of gRPC")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))

	viper.BindEnv("otlp.sample_ratio", "PVADVISOR_OTLP_SAMPLE_RATIO")
	rootCmd.PersistentFlags().Float64("otlp-sample-ratio", 1, "Fraction of root spans that are sampled")
	viper.BindPFlag("otlp.sample_ratio", rootCmd.PersistentFlags().Lookup("otlp-sample-ratio"))
}

func bindPersistent(key, env, flag, value, usage string) {
	viper.BindEnv(key, env)
	rootCmd.PersistentFlags().String(flag, value, usage)
	viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}

var rootCmd = &cobra.Command{
	Use:     common.ProgramName,
	Version: common.CurrentVersion.String(),
	Short:   "Investment portfolio advisor",
	Long:    `Builds model portfolios from an investor survey, recommends bank funds and ISA ETFs, and serves cached market quotes.`,
}

// initConfig reads .env, then the config file, then configures logging
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(common.ProgramName)
		viper.SetConfigType("toml")
		viper.AddConfigPath("/etc/pvadvisor/")
		viper.AddConfigPath("$HOME/.config/pvadvisor")
		viper.AddConfigPath(".")
	}

	err := viper.ReadInConfig()
	common.SetupLogging()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Info().Str("ConfigFile", viper.ConfigFileUsed()).Msg("loaded config file")
	case errors.As(err, &notFound):
		log.Debug().Msg("no config file found; using defaults")
	default:
		log.Fatal().Err(err).Str("ConfigFile", viper.ConfigFileUsed()).Msg("could not read config file")
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
