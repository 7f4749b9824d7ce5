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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/ajnadex"
	"github.com/blinklabs-io/ajnadex/internal/config"
)

// indexerOptions translates the loaded config into indexer options
func indexerOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]ajnadex.ConfigOptionFunc, time.Duration, error) {
	poolInfoUtils, err := cfg.PoolInfoUtilsAddress()
	if err != nil {
		return nil, 0, err
	}
	rpcTimeout, pollInterval, shutdownTimeout, err := cfg.Durations()
	if err != nil {
		return nil, 0, err
	}
	opts := []ajnadex.ConfigOptionFunc{
		ajnadex.WithLogger(logger),
		ajnadex.WithDatabasePath(cfg.DatabasePath),
		ajnadex.WithBlobPlugin(cfg.BlobPlugin),
		ajnadex.WithMetadataPlugin(cfg.MetadataPlugin),
		ajnadex.WithRPCURL(cfg.RPCURL),
		ajnadex.WithRPCTimeout(rpcTimeout),
		ajnadex.WithPoolInfoUtils(poolInfoUtils),
		ajnadex.WithOracleCacheSize(cfg.OracleCacheSize),
		ajnadex.WithPollInterval(pollInterval),
		ajnadex.WithTracing(cfg.Tracing),
		ajnadex.WithTracingStdout(cfg.TracingStdout),
		ajnadex.WithShutdownTimeout(shutdownTimeout),
	}
	return opts, shutdownTimeout, nil
}

// Run loads the configured inputs and then serves the watch directory and
// the metrics endpoint until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, shutdownTimeout, err := indexerOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(
		opts,
		ajnadex.WithInputs(cfg.Inputs...),
		ajnadex.WithWatchDir(cfg.WatchDir),
		// Enable metrics with default prometheus registry
		ajnadex.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	idx, err := ajnadex.New(ajnadex.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	logger.Info(
		"serving prometheus metrics on "+metricsAddr,
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	stop := func() error {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
		if err := idx.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil
	}

	// Run indexer in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- idx.Run(signalCtx)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		return stop()
	case err := <-errChan:
		if err != nil {
			logger.Error("indexer error", "error", err)
			signalCtxStop()
			if stopErr := stop(); stopErr != nil {
				logger.Error(
					"shutdown errors occurred during error cleanup",
					"error",
					stopErr,
				)
			}
			return err
		}
		// Inputs are loaded and nothing is watched, keep serving metrics
		logger.Info("indexer idle, waiting for signal", "component", "node")
		<-signalCtx.Done()
		return stop()
	}
}
