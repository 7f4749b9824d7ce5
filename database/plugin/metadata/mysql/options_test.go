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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

func TestConnOptions(t *testing.T) {
	m := &MetadataStoreMysql{}
	for _, opt := range []MysqlOptionFunc{
		WithHost("db.local"),
		WithPort(3306),
		WithUser("indexer"),
		WithPassword("secret"),
		WithDatabase("ajnadex"),
		WithSSLMode("require"),
		WithTimeZone("Europe/Berlin"),
		WithDSN("root:secret@tcp(localhost:3306)/ajnadex?parseTime=true"),
		WithPoolLimits(20, 5, time.Minute),
	} {
		opt(m)
	}
	assert.Equal(
		t,
		gormstore.Conn{
			Host:            "db.local",
			Port:            3306,
			User:            "indexer",
			Password:        "secret",
			Database:        "ajnadex",
			SSLMode:         "require",
			TimeZone:        "Europe/Berlin",
			DSN:             "root:secret@tcp(localhost:3306)/ajnadex?parseTime=true",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
		m.conn,
	)
}

func TestWithConnReplacesSettings(t *testing.T) {
	m := &MetadataStoreMysql{}
	WithHost("ignored")(m)
	WithConn(gormstore.Conn{User: "only"})(m)
	assert.Equal(t, gormstore.Conn{User: "only"}, m.conn)
}

func TestLoggerAndRegistryOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := &MetadataStoreMysql{}
	WithLogger(logger)(m)
	WithPromRegistry(reg)(m)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
}
