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
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-advisor/allocation"
	"github.com/penny-vault/pv-advisor/analytics"
	"github.com/penny-vault/pv-advisor/catalog"
	"github.com/penny-vault/pv-advisor/common"
	"github.com/penny-vault/pv-advisor/fetch"
	"github.com/penny-vault/pv-advisor/handler"
	"github.com/penny-vault/pv-advisor/observability/opentelemetry"
	"github.com/penny-vault/pv-advisor/quote"
	"github.com/penny-vault/pv-advisor/router"
	"github.com/penny-vault/pv-advisor/tradecron"
)

const redisSnapshotKey = "pvadvisor:quotes"

func init() {
	viper.BindEnv("server.port", "PVADVISOR_PORT", "PORT")
	serveCmd.Flags().IntP("port", "p", 3001, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.cors_origins", "PVADVISOR_CORS_ORIGINS")
	serveCmd.Flags().String("cors-origins", "*", "Comma separated list of origins allowed by CORS")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	// Quote cache
	viper.BindEnv("quote.ttl", "PVADVISOR_QUOTE_TTL")
	serveCmd.Flags().Duration("quote-ttl", quote.DefaultTTL, "How long a batch of quotes is served before it is refreshed")
	viper.BindPFlag("quote.ttl", serveCmd.Flags().Lookup("quote-ttl"))

	viper.BindEnv("quote.snapshot", "PVADVISOR_QUOTE_SNAPSHOT")
	serveCmd.Flags().String("quote-snapshot", "", "File the quote cache is persisted to, empty disables file snapshots")
	viper.BindPFlag("quote.snapshot", serveCmd.Flags().Lookup("quote-snapshot"))

	viper.BindEnv("quote.warm_schedule", "PVADVISOR_QUOTE_WARM_SCHEDULE")
	serveCmd.Flags().String("quote-warm-schedule", "10 @close * * *", "Market aware schedule for refreshing the quote cache, empty disables warm up")
	viper.BindPFlag("quote.warm_schedule", serveCmd.Flags().Lookup("quote-warm-schedule"))

	viper.BindEnv("quote.seed", "PVADVISOR_QUOTE_SEED")
	serveCmd.Flags().Int64("quote-seed", 0, "Seed for sample quotes and stock selection, 0 seeds from the clock")
	viper.BindPFlag("quote.seed", serveCmd.Flags().Lookup("quote-seed"))

	// Redis snapshots
	viper.BindEnv("cache.redis", "PVADVISOR_REDIS")
	serveCmd.Flags().Bool("redis", false, "Persist the quote cache to redis instead of a file")
	viper.BindPFlag("cache.redis", serveCmd.Flags().Lookup("redis"))

	viper.BindEnv("cache.redis_url", "PVADVISOR_REDIS_URL", "REDIS_URL")
	serveCmd.Flags().String("redis-url", "redis://localhost:6379/0", "Redis connection URL")
	viper.BindPFlag("cache.redis_url", serveCmd.Flags().Lookup("redis-url"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the advisory API server",
	Long:  `Run HTTP server that generates portfolios, recommends products and serves cached quotes`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not setup tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("could not flush traces")
			}
		}()

		cat := catalog.Default()
		gen := allocation.New(cat, seedSource())

		cache, err := newQuoteCache(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create quote cache")
		}

		client, err := newAnalyticsClient()
		if err != nil {
			log.Fatal().Err(err).Msg("could not create analytics client")
		}

		scheduler := startWarmer(ctx, cache)

		app := router.NewApp(handler.New(cat, gen, cache, client, nil), viper.GetString("server.cors_origins"))

		go func() {
			<-ctx.Done()
			log.Info().Msg("received signal; shutting down")
			if scheduler != nil {
				scheduler.Stop()
			}
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("could not shutdown server")
			}
		}()

		port := viper.GetString("server.port")
		log.Info().Str("Port", port).Str("Version", common.CurrentVersion.String()).Msg("starting server")
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	},
}

// seedSource returns a deterministic source when quote.seed is set
func seedSource() rand.Source {
	if seed := viper.GetInt64("quote.seed"); seed != 0 {
		return rand.NewSource(seed)
	}
	return nil
}

func newFetchClient() *fetch.Client {
	fc := fetch.NewClient()
	fc.MaxRetries = viper.GetInt("retry.max")
	fc.Timeout = viper.GetDuration("retry.timeout")
	fc.OnRetry = func(attempt int, err error) {
		log.Info().Int("Attempt", attempt).Int("MaxRetries", fc.MaxRetries).Err(err).Msg("retrying analytics request")
	}
	return fc
}

// newAnalyticsClient returns nil when analytics.url is empty; the analytics
// routes then answer 503
func newAnalyticsClient() (*analytics.Client, error) {
	baseURL := viper.GetString("analytics.url")
	if baseURL == "" {
		log.Warn().Msg("analytics.url is not set; analytics routes are disabled")
		return nil, nil
	}
	return analytics.New(baseURL, newFetchClient(), viper.GetInt("analytics.memo_size"),
		analytics.WithMemoTTL(viper.GetDuration("analytics.memo_ttl")),
		analytics.WithRateLimit(viper.GetFloat64("analytics.rate_limit"), 1))
}

// newQuoteCache creates the quote cache and restores the last snapshot. Redis
// takes precedence over a snapshot file.
func newQuoteCache(ctx context.Context) (*quote.Cache, error) {
	ttl := viper.GetDuration("quote.ttl")
	opts := []quote.Option{quote.WithTTL(ttl)}

	rdb, err := common.RedisClient(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case rdb != nil:
		// keep snapshots around past expiry so they can back offline responses
		opts = append(opts, quote.WithSnapshot(quote.NewRedisStore(rdb, redisSnapshotKey, 7*ttl)))
	case viper.GetString("quote.snapshot") != "":
		opts = append(opts, quote.WithSnapshot(quote.NewFileStore(viper.GetString("quote.snapshot"))))
	}

	var src rand.Source
	if seed := viper.GetInt64("quote.seed"); seed != 0 {
		src = rand.NewSource(seed + 1)
	}

	cache := quote.NewCache(quote.NewSampleSource(src, nil), opts...)
	if err := cache.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("starting with an empty quote cache")
	}
	return cache, nil
}

// startWarmer refreshes the quote cache on the quote.warm_schedule tradecron
// schedule. gocron checks the schedule every minute.
func startWarmer(ctx context.Context, cache *quote.Cache) *gocron.Scheduler {
	spec := viper.GetString("quote.warm_schedule")
	if spec == "" {
		log.Info().Msg("quote cache warm up disabled")
		return nil
	}

	schedule, err := tradecron.New(spec, tradecron.RegularHours)
	if err != nil {
		log.Error().Err(err).Str("Schedule", spec).Msg("invalid quote warm up schedule; warm up disabled")
		return nil
	}

	warmer := quote.NewWarmer(cache, schedule, nil)
	if warmer.Next().IsZero() {
		log.Error().Str("Schedule", spec).Msg("quote warm up schedule never falls on a trading time; warm up disabled")
		return nil
	}
	log.Info().Str("Schedule", spec).Time("NextRun", warmer.Next()).Msg("scheduled quote cache warm up")

	scheduler := gocron.NewScheduler(common.GetTimezone())
	if _, err := scheduler.Every(1).Minute().Do(func() {
		warmer.Tick(ctx)
	}); err != nil {
		log.Error().Err(err).Msg("could not schedule quote cache warm up")
		return nil
	}
	scheduler.StartAsync()
	return scheduler
}
