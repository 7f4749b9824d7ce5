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
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

// MetadataStorePostgres stores metadata in Postgres.
type MetadataStorePostgres struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	conn         gormstore.Conn
}

// New creates a Postgres metadata store from individual connection settings
func New(
	conn gormstore.Conn,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStorePostgres, error) {
	return NewWithOptions(
		WithConn(conn),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a Postgres metadata store without connecting to it
func NewWithOptions(opts ...PostgresOptionFunc) (*MetadataStorePostgres, error) {
	db := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(db)
	}
	db.conn.FillDefaults("localhost", 5432, "postgres", "postgres")
	if db.conn.SSLMode == "" {
		db.conn.SSLMode = "disable"
	}
	return db, nil
}

func (d *MetadataStorePostgres) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *MetadataStorePostgres) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// buildDSN returns the configured DSN, or a keyword/value string assembled
// from the non-empty connection settings
func (d *MetadataStorePostgres) buildDSN() string {
	if dsn, ok := d.conn.ExplicitDSN(); ok {
		return dsn
	}
	c := d.conn
	var sb strings.Builder
	for _, kv := range [][2]string{
		{"host", c.Host},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.Database},
		{"port", strconv.FormatUint(uint64(c.Port), 10)},
		{"sslmode", c.SSLMode},
		{"TimeZone", c.TimeZone},
	} {
		if kv[1] == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(kv[0] + "=" + kv[1])
	}
	return sb.String()
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDb, err := gormstore.Open(postgres.Open(d.buildDSN()), d.conn)
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to postgres metadata store",
		"host", d.conn.Host,
		"port", d.conn.Port,
		"database", d.conn.Database,
		"max_open_conns", d.conn.MaxOpenConns,
	)
	store, err := gormstore.New(metadataDb, d.logger)
	if store != nil {
		d.Store = store
	}
	return err
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// Close closes the connection pool. It is a no-op before Start
func (d *MetadataStorePostgres) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
