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

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/ajnadex/internal/config"
	"github.com/blinklabs-io/ajnadex/internal/node"
)

func loadRun(ctx context.Context, args []string, cfg *config.Config) {
	paths := args
	// CLI arguments take priority over config
	if len(paths) == 0 {
		paths = cfg.Inputs
	}
	if len(paths) == 0 {
		slog.Error(
			"event files required (via arguments or inputs config)",
		)
		os.Exit(1)
	}

	logger := commonRun(cfg)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := node.Load(ctx, cfg, logger, paths); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func loadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [event-file...]",
		Short: "Load pool event files (.jsonl, .gz or .zst) and exit",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			loadRun(cmd.Context(), args, cfg)
		},
	}
	return cmd
}
