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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

type PostgresOptionFunc func(*MetadataStorePostgres)

func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.promRegistry = registry
	}
}

// WithConn replaces all connection settings at once
func WithConn(conn gormstore.Conn) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn = conn
	}
}

func WithHost(host string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Host = host }
}

func WithPort(port uint) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Port = port }
}

func WithUser(user string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.User = user }
}

func WithPassword(password string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Password = password }
}

func WithDatabase(database string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.Database = database }
}

// WithSSLMode sets the libpq sslmode (disable, require, verify-full, ...)
func WithSSLMode(sslMode string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.SSLMode = sslMode }
}

func WithTimeZone(timeZone string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.TimeZone = timeZone }
}

// WithDSN sets a full connection string that overrides the individual settings
func WithDSN(dsn string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) { m.conn.DSN = dsn }
}

// WithPoolLimits bounds the connection pool. Zero values keep the defaults
func WithPoolLimits(maxOpen int, maxIdle int, maxLifetime time.Duration) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.MaxOpenConns = maxOpen
		m.conn.MaxIdleConns = maxIdle
		m.conn.ConnMaxLifetime = maxLifetime
	}
}
