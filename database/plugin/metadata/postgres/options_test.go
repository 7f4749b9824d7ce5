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

package postgres

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

func TestConnOptions(t *testing.T) {
	m := &MetadataStorePostgres{}
	for _, opt := range []PostgresOptionFunc{
		WithHost("db.local"),
		WithPort(5432),
		WithUser("indexer"),
		WithPassword("secret"),
		WithDatabase("ajnadex"),
		WithSSLMode("require"),
		WithTimeZone("Europe/Berlin"),
		WithDSN("host=localhost dbname=ajnadex"),
		WithPoolLimits(20, 5, time.Minute),
	} {
		opt(m)
	}
	assert.Equal(
		t,
		gormstore.Conn{
			Host:            "db.local",
			Port:            5432,
			User:            "indexer",
			Password:        "secret",
			Database:        "ajnadex",
			SSLMode:         "require",
			TimeZone:        "Europe/Berlin",
			DSN:             "host=localhost dbname=ajnadex",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
		m.conn,
	)
}

func TestWithConnReplacesSettings(t *testing.T) {
	m := &MetadataStorePostgres{}
	WithHost("ignored")(m)
	WithConn(gormstore.Conn{User: "only"})(m)
	assert.Equal(t, gormstore.Conn{User: "only"}, m.conn)
}

func TestLoggerAndRegistryOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := &MetadataStorePostgres{}
	WithLogger(logger)(m)
	WithPromRegistry(reg)(m)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
}
