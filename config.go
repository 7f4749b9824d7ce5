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

package ajnadex

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/ajnadex/oracle"
)

const (
	DefaultOracleCacheSize = 16384
	DefaultPollInterval    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	oracle          oracle.Oracle
	dataDir         string
	blobPlugin      string
	metadataPlugin  string
	rpcURL          string
	rpcTimeout      time.Duration
	poolInfoUtils   common.Address
	inputs          []string
	watchDir        string
	oracleCacheSize int
	pollInterval    time.Duration
	tracing         bool
	tracingStdout   bool
	shutdownTimeout time.Duration
}

func (c *Config) validate() error {
	if c.oracle == nil {
		if c.rpcURL == "" {
			return errors.New("no oracle or RPC URL configured")
		}
		if c.poolInfoUtils == (common.Address{}) {
			return errors.New("PoolInfoUtils address required with an RPC oracle")
		}
	}
	if c.oracleCacheSize < 0 {
		return errors.New("oracle cache size must not be negative")
	}
	if c.pollInterval < 0 {
		return errors.New("poll interval must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the indexer config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new indexer config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		oracleCacheSize: DefaultOracleCacheSize,
		pollInterval:    DefaultPollInterval,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithOracle specifies the pool state oracle to use. This overrides any RPC settings
func WithOracle(o oracle.Oracle) ConfigOptionFunc {
	return func(c *Config) {
		c.oracle = o
	}
}

// WithRPCURL specifies the Ethereum JSON-RPC endpoint used to query pool state at each event block
func WithRPCURL(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcURL = url
	}
}

// WithRPCTimeout specifies the per-call timeout for oracle contract calls
func WithRPCTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcTimeout = timeout
	}
}

// WithPoolInfoUtils specifies the address of the PoolInfoUtils contract
func WithPoolInfoUtils(addr common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.poolInfoUtils = addr
	}
}

// WithOracleCacheSize specifies the number of oracle responses to keep in the LRU cache. A size of 0 disables the cache
func WithOracleCacheSize(size int) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleCacheSize = size
	}
}

// WithInputs specifies event files to load, in order, when the indexer starts
func WithInputs(paths ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.inputs = append(c.inputs, paths...)
	}
}

// WithWatchDir specifies a directory polled for new event files. Files are loaded in name order
func WithWatchDir(dir string) ConfigOptionFunc {
	return func(c *Config) {
		c.watchDir = dir
	}
}

// WithPollInterval specifies how often the watch directory is scanned. The default is 10 seconds
func WithPollInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.pollInterval = interval
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
