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
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// RedisClient connects to the redis instance configured by cache.redis_url.
// It returns nil when cache.redis is disabled.
func RedisClient(ctx context.Context) (*redis.Client, error) {
	if !viper.GetBool("cache.redis") {
		return nil, nil
	}

	opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
	if err != nil {
		log.Error().Err(err).Msg("could not parse redis URL")
		return nil, err
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("Addr", opt.Addr).Msg("redis is not reachable; snapshots will be retried on each save")
	}

	return rdb, nil
}
