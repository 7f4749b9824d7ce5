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

package gormstore

import (
	"strings"
	"time"

	"github.com/blinklabs-io/ajnadex/database/plugin"
)

// ConnFlags is the plugin option form of Conn, shared by the server backed
// metadata plugins
type ConnFlags struct {
	DataDir         string
	Host            string
	Port            uint64
	User            string
	Password        string
	Database        string
	SSLMode         string
	TimeZone        string
	DSN             string
	MaxOpenConns    uint64
	MaxIdleConns    uint64
	ConnMaxLifetime uint64 // seconds
}

// Reset restores the flag values to the given defaults
func (f *ConnFlags) Reset(defaults Conn) {
	*f = ConnFlags{
		Host:            defaults.Host,
		Port:            uint64(defaults.Port),
		User:            defaults.User,
		Database:        defaults.Database,
		SSLMode:         defaults.SSLMode,
		TimeZone:        defaults.TimeZone,
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: uint64(DefaultConnMaxLifetime / time.Second),
	}
}

// Conn converts the flag values into connection settings
func (f *ConnFlags) Conn() Conn {
	return Conn{
		Host:            f.Host,
		Port:            uint(f.Port),
		User:            f.User,
		Password:        f.Password,
		Database:        f.Database,
		SSLMode:         f.SSLMode,
		TimeZone:        f.TimeZone,
		DSN:             f.DSN,
		MaxOpenConns:    int(f.MaxOpenConns),
		MaxIdleConns:    int(f.MaxIdleConns),
		ConnMaxLifetime: time.Duration(f.ConnMaxLifetime) * time.Second,
	}
}

// PluginOptions describes the flags for an engine, pointing each option at f.
// With a non-empty envPrefix the connection options also read <envPrefix>_<NAME>,
// such as MYSQL_HOST or MYSQL_SSLMODE
func (f *ConnFlags) PluginOptions(
	engine string,
	defaults Conn,
	sslModeDesc string,
	envPrefix string,
) []plugin.PluginOption {
	customEnv := func(name string) string {
		if envPrefix == "" {
			return ""
		}
		return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", ""))
	}
	str := func(name string, desc string, def string, dest *string) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeString,
			Description:  desc,
			DefaultValue: def,
			Dest:         dest,
			CustomEnvVar: customEnv(name),
		}
	}
	num := func(name string, desc string, def uint64, dest *uint64) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeUint,
			Description:  desc,
			DefaultValue: def,
			Dest:         dest,
			CustomEnvVar: customEnv(name),
		}
	}
	pool := func(name string, desc string, def uint64, dest *uint64) plugin.PluginOption {
		opt := num(name, desc, def, dest)
		opt.CustomEnvVar = ""
		return opt
	}
	dataDir := str("data-dir", "Metadata data directory (unused for "+engine+")", "", &f.DataDir)
	dataDir.CustomEnvVar = ""
	return []plugin.PluginOption{
		dataDir,
		str("host", engine+" host", defaults.Host, &f.Host),
		num("port", engine+" port", uint64(defaults.Port), &f.Port),
		str("user", engine+" user", defaults.User, &f.User),
		str("password", engine+" password (required)", "", &f.Password),
		str("database", engine+" database name", defaults.Database, &f.Database),
		str("ssl-mode", sslModeDesc, defaults.SSLMode, &f.SSLMode),
		str("timezone", engine+" time zone", defaults.TimeZone, &f.TimeZone),
		str("dsn", "Full "+engine+" DSN (overrides other options when set)", "", &f.DSN),
		pool("max-open-conns", "Maximum open connections", DefaultMaxOpenConns, &f.MaxOpenConns),
		pool("max-idle-conns", "Maximum idle connections", DefaultMaxIdleConns, &f.MaxIdleConns),
		pool(
			"conn-max-lifetime",
			"Maximum connection lifetime in seconds",
			uint64(DefaultConnMaxLifetime/time.Second),
			&f.ConnMaxLifetime,
		),
	}
}
