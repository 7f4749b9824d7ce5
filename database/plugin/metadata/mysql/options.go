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

package mysql

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

type MysqlOptionFunc func(*MetadataStoreMysql)

func WithLogger(logger *slog.Logger) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.promRegistry = registry
	}
}

// WithConn replaces all connection settings at once
func WithConn(conn gormstore.Conn) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn = conn
	}
}

func WithHost(host string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Host = host }
}

func WithPort(port uint) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Port = port }
}

func WithUser(user string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.User = user }
}

func WithPassword(password string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Password = password }
}

// WithDatabase sets the schema, which is created on Start if missing
func WithDatabase(database string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.Database = database }
}

// WithSSLMode sets the driver tls parameter (true, skip-verify, preferred or a
// registered config name)
func WithSSLMode(sslMode string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.SSLMode = sslMode }
}

// WithTimeZone sets the location used to parse DATETIME values
func WithTimeZone(timeZone string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.TimeZone = timeZone }
}

// WithDSN sets a full connection string that overrides the individual settings
func WithDSN(dsn string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) { m.conn.DSN = dsn }
}

// WithPoolLimits bounds the connection pool. Zero values keep the defaults
func WithPoolLimits(maxOpen int, maxIdle int, maxLifetime time.Duration) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.MaxOpenConns = maxOpen
		m.conn.MaxIdleConns = maxIdle
		m.conn.ConnMaxLifetime = maxLifetime
	}
}
