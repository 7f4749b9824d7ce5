// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	b := NewWithOptions(
		WithDataDir("/tmp/combined"),
		WithBlockCacheSize(1000000),
		WithIndexCacheSize(2000000),
		WithLogger(logger),
		WithPromRegistry(registry),
		WithGcInterval(time.Second),
		WithValueThreshold(64),
	)
	require.Equal(t, "/tmp/combined", b.dataDir)
	require.Equal(t, uint64(1000000), b.blockCacheSize)
	require.Equal(t, uint64(2000000), b.indexCacheSize)
	require.Same(t, logger, b.logger)
	require.Equal(t, prometheus.Registerer(registry), b.promRegistry)
	require.Equal(t, time.Second, b.gcInterval)
	require.Equal(t, int64(64), b.valueThreshold)
	require.Equal(t, int64(DefaultMemTableSize), b.memTableSize)
	require.Nil(t, b.DB(), "NewWithOptions must not open the database")
}

func TestWithGc(t *testing.T) {
	b := NewWithOptions()
	require.True(t, b.gcEnabled)
	WithGc(false)(b)
	require.False(t, b.gcEnabled)
	WithGc(true)(b)
	require.True(t, b.gcEnabled)
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]options.CompressionType{
		"":       options.None,
		"none":   options.None,
		"Snappy": options.Snappy,
		" zstd ": options.ZSTD,
	} {
		got, err := ParseCompression(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := ParseCompression("lz4")
	require.ErrorContains(t, err, "unknown badger compression")
}

func TestCompressionAndSyncWrites(t *testing.T) {
	b := NewWithOptions()
	require.Equal(t, options.ZSTD, b.compression)
	require.False(t, b.syncWrites)
	b = NewWithOptions(WithCompression(options.Snappy), WithSyncWrites(true))
	require.Equal(t, options.Snappy, b.compression)
	require.True(t, b.syncWrites)
}
