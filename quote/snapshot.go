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

package quote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"github.com/penny-vault/pv-advisor/common"
)

// Snapshot is the persisted form of the cache slot
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Tickers   []string          `json:"tickers"`
	Data      map[string]*Quote `json:"data"`
}

// Store persists snapshots between restarts. Load returns ErrNoSnapshot when
// nothing has been saved.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
}

func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return common.Compress(raw)
}

func decodeSnapshot(payload []byte) (*Snapshot, error) {
	raw, err := common.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return snap, nil
}

// FileStore keeps the snapshot in a single lz4 compressed JSON file
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (fs *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	payload, err := os.ReadFile(fs.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(payload)
}

// Save writes to a temporary file in the same directory and renames it over
// the old snapshot
func (fs *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fs.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, fs.Path)
}

func (fs *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(fs.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisCmdable is the subset of *redis.Client used by RedisStore
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps the snapshot under a single key that expires after TTL
type RedisStore struct {
	rdb RedisCmdable
	key string
	ttl time.Duration
}

func NewRedisStore(rdb RedisCmdable, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

func (rs *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	payload, err := rs.rdb.Get(ctx, rs.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(payload)
}

func (rs *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	return rs.rdb.Set(ctx, rs.key, payload, rs.ttl).Err()
}

func (rs *RedisStore) Clear(ctx context.Context) error {
	return rs.rdb.Del(ctx, rs.key).Err()
}
