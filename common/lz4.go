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
	"bytes"
	"errors"
	"io"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrNotCompressed = errors.New("payload is not an lz4 frame")
)

// lz4 frame magic number, little endian
var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// Compress wraps in with an lz4 frame
func Compress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
		return nil, err
	}

	if _, err := io.Copy(zw, bytes.NewReader(in)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decompress reads a single lz4 frame produced by Compress
func Decompress(in []byte) ([]byte, error) {
	if !IsCompressed(in) {
		return nil, ErrNotCompressed
	}

	w := &bytes.Buffer{}
	zr := lz4.NewReader(bytes.NewReader(in))
	if _, err := io.Copy(w, zr); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// IsCompressed reports whether in starts with the lz4 frame magic number
func IsCompressed(in []byte) bool {
	return bytes.HasPrefix(in, lz4Magic)
}
