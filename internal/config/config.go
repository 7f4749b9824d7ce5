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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/ajnadex/database/plugin"
)

type ctxKey string

const configContextKey ctxKey = "ajnadex.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultPollInterval    = "10s"
	DefaultRPCTimeout      = "30s"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   *yaml.Node                `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	MetadataPlugin  string   `yaml:"metadataPlugin"  envconfig:"DATABASE_METADATA_PLUGIN"`
	BlobPlugin      string   `yaml:"blobPlugin"      envconfig:"DATABASE_BLOB_PLUGIN"`
	DatabasePath    string   `yaml:"databasePath"                                      split_words:"true"`
	RPCURL          string   `yaml:"rpcUrl"          envconfig:"RPC_URL"`
	RPCTimeout      string   `yaml:"rpcTimeout"      envconfig:"RPC_TIMEOUT"`
	PoolInfoUtils   string   `yaml:"poolInfoUtils"                                     split_words:"true"`
	OracleCacheSize int      `yaml:"oracleCacheSize"                                   split_words:"true"`
	Inputs          []string `yaml:"inputs"`
	WatchDir        string   `yaml:"watchDir"                                          split_words:"true"`
	PollInterval    string   `yaml:"pollInterval"                                      split_words:"true"`
	BindAddr        string   `yaml:"bindAddr"                                          split_words:"true"`
	MetricsPort     uint     `yaml:"metricsPort"                                       split_words:"true"`
	LogFile         string   `yaml:"logFile"                                           split_words:"true"`
	LogMaxSize      int      `yaml:"logMaxSize"                                        split_words:"true"`
	LogMaxBackups   int      `yaml:"logMaxBackups"                                     split_words:"true"`
	LogMaxAge       int      `yaml:"logMaxAge"                                         split_words:"true"`
	Tracing         bool     `yaml:"tracing"`
	TracingStdout   bool     `yaml:"tracingStdout"                                     split_words:"true"`
	ShutdownTimeout string   `yaml:"shutdownTimeout"                                   split_words:"true"`
}

// PoolInfoUtilsAddress parses the PoolInfoUtils contract address
func (c *Config) PoolInfoUtilsAddress() (common.Address, error) {
	if c.PoolInfoUtils == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(c.PoolInfoUtils) {
		return common.Address{}, fmt.Errorf("invalid poolInfoUtils address: %q", c.PoolInfoUtils)
	}
	return common.HexToAddress(c.PoolInfoUtils), nil
}

// Durations parses the RPC timeout, poll interval and shutdown timeout
func (c *Config) Durations() (rpcTimeout, pollInterval, shutdownTimeout time.Duration, err error) {
	parse := func(name, value, def string) (time.Duration, error) {
		if value == "" {
			value = def
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	}
	if rpcTimeout, err = parse("rpcTimeout", c.RPCTimeout, DefaultRPCTimeout); err != nil {
		return
	}
	if pollInterval, err = parse("pollInterval", c.PollInterval, DefaultPollInterval); err != nil {
		return
	}
	shutdownTimeout, err = parse("shutdownTimeout", c.ShutdownTimeout, DefaultShutdownTimeout)
	return
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".ajnadex",
		RPCTimeout:      DefaultRPCTimeout,
		OracleCacheSize: 16384,
		PollInterval:    DefaultPollInterval,
		BindAddr:        "0.0.0.0",
		MetricsPort:     12798,
		LogMaxSize:      100,
		LogMaxBackups:   5,
		LogMaxAge:       30,
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// pluginSection converts a database.blob or database.metadata section into a
// plugin option map. The "plugin" key selects the plugin and is returned
// separately
func pluginSection(kind string, section map[string]any) (string, map[string]map[string]any) {
	var pluginName string
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			pluginName = name
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			// Log skipped non-map config entries
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", kind, k, v)
		}
	}
	return pluginName, ret
}

func mergePluginConfig(dst map[string]map[string]map[string]any, kind string, src map[string]map[string]any) {
	if dst[kind] == nil {
		dst[kind] = src
		return
	}
	maps.Copy(dst[kind], src)
}

func findConfigFile() string {
	// Check for config file in this path: ~/.ajnadex/ajnadex.yaml
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".ajnadex", "ajnadex.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	// Try to check for /etc/ajnadex/ajnadex.yaml if still not found
	systemPath := "/etc/ajnadex/ajnadex.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// A config section overlays only the keys it sets onto the defaults
	if tempCfg.Config != nil {
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
		// Otherwise the whole file is the main config
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section := pluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				globalConfig.BlobPlugin = name
			}
			mergePluginConfig(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section := pluginSection("metadata", tempCfg.Database.Metadata)
			if name != "" {
				globalConfig.MetadataPlugin = name
			}
			mergePluginConfig(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process("ajnadex", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if _, err := globalConfig.PoolInfoUtilsAddress(); err != nil {
		return nil, err
	}
	if _, _, _, err := globalConfig.Durations(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
