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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/gormstore"
)

// errUnknownDatabase is the MySQL error number for a missing schema
const errUnknownDatabase = 1049

// MetadataStoreMysql stores metadata in MySQL.
type MetadataStoreMysql struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	conn         gormstore.Conn
}

// New creates a MySQL metadata store from individual connection settings
func New(
	conn gormstore.Conn,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStoreMysql, error) {
	return NewWithOptions(
		WithConn(conn),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// NewWithOptions creates a MySQL metadata store without connecting to it
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	db := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(db)
	}
	db.conn.FillDefaults("localhost", 3306, "root", "ajnadex")
	return db, nil
}

func (d *MetadataStoreMysql) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *MetadataStoreMysql) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// buildDSN returns the DSN to connect with and the database name it selects
func (d *MetadataStoreMysql) buildDSN() (string, string) {
	c := d.conn
	if dsn, ok := c.ExplicitDSN(); ok {
		if parsedDB, ok := parseMysqlDatabaseFromDSN(dsn); ok {
			return dsn, parsedDB
		}
		return dsn, c.Database
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	if c.TimeZone != "" {
		if loc, err := time.LoadLocation(c.TimeZone); err == nil {
			cfg.Loc = loc
		}
	}
	if c.SSLMode != "" {
		cfg.Params = map[string]string{"tls": c.SSLMode}
	}
	return cfg.FormatDSN(), c.Database
}

// Start implements the plugin.Plugin interface. A missing database is
// created once and the connection retried
func (d *MetadataStoreMysql) Start() error {
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn, dbName := d.buildDSN()
	metadataDb, err := gormstore.Open(gormmysql.Open(dsn), d.conn)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errUnknownDatabase {
		created, createErr := d.ensureDatabaseExists(dsn, dbName)
		if createErr != nil {
			return fmt.Errorf("create database %q: %w", dbName, createErr)
		}
		if created {
			metadataDb, err = gormstore.Open(gormmysql.Open(dsn), d.conn)
		}
	}
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"host", d.conn.Host,
		"port", d.conn.Port,
		"database", dbName,
		"max_open_conns", d.conn.MaxOpenConns,
	)
	store, err := gormstore.New(metadataDb, d.logger)
	if store != nil {
		d.Store = store
	}
	return err
}

func (d *MetadataStoreMysql) ensureDatabaseExists(
	dsn string,
	dbName string,
) (bool, error) {
	if dbName == "" {
		return false, nil
	}
	adminDsn, ok := stripDatabaseFromDSN(dsn)
	if !ok {
		return false, nil
	}
	adminDb, err := gorm.Open(gormmysql.Open(adminDsn), gormstore.GormConfig())
	if err != nil {
		return false, err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return false, err
	}
	defer sqlAdminDb.Close()
	d.logger.Info(
		"creating mysql database",
		"database", dbName,
	)
	if result := adminDb.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); result.Error != nil {
		return false, result.Error
	}
	return true, nil
}

func parseMysqlDatabaseFromDSN(dsn string) (string, bool) {
	base := dsn
	if idx := strings.Index(base, "?"); idx >= 0 {
		base = base[:idx]
	}
	slash := strings.LastIndex(base, "/")
	if slash < 0 || slash == len(base)-1 {
		return "", false
	}
	return base[slash+1:], true
}

func stripDatabaseFromDSN(dsn string) (string, bool) {
	base := dsn
	params := ""
	if idx := strings.Index(dsn, "?"); idx >= 0 {
		base = dsn[:idx]
		params = dsn[idx+1:]
	}
	slash := strings.LastIndex(base, "/")
	if slash < 0 {
		return "", false
	}
	base = base[:slash+1]
	if params == "" {
		return base, true
	}
	return base + "?" + params, true
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// Close closes the connection pool. It is a no-op before Start
func (d *MetadataStoreMysql) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
