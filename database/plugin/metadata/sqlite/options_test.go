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

package sqlite

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	d, err := NewWithOptions(
		WithDataDir("/var/lib/ajnadex"),
		WithLogger(logger),
		WithPromRegistry(reg),
	)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ajnadex", d.dataDir)
	assert.Same(t, logger, d.logger)
	assert.Equal(t, prometheus.Registerer(reg), d.promRegistry)
	assert.Equal(t, DefaultMaxConnections, d.maxConnections)

	d, err = NewWithOptions(WithMaxConnections(10))
	require.NoError(t, err)
	assert.Equal(t, 10, d.maxConnections)
}

func TestStartCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "metadata")
	d, err := New(dataDir, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = os.Stat(filepath.Join(dataDir, "metadata.sqlite"))
	require.NoError(t, err)
	require.NoError(t, d.runVacuum())
}
