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
	"time"

	"github.com/blinklabs-io/ajnadex"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/internal/config"
)

// Load applies the given event files in order and exits
func Load(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	paths []string,
) error {
	if len(paths) == 0 {
		return errors.New("no event files given")
	}
	opts, _, err := indexerOptions(cfg, logger)
	if err != nil {
		return err
	}
	idx, err := ajnadex.New(ajnadex.NewConfig(opts...))
	if err != nil {
		return err
	}
	defer func() {
		if err := idx.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	// Report progress from the applied transaction notifications
	var lastReport time.Time
	idx.EventBus().SubscribeFunc(
		event.TransactionAppliedEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(event.TransactionAppliedEvent)
			if !ok || time.Since(lastReport) < 10*time.Second {
				return
			}
			lastReport = time.Now()
			logger.Info(
				fmt.Sprintf("applied through block %d", data.BlockNumber),
				"component", "node",
			)
		},
	)
	if err := idx.Start(ctx); err != nil {
		return err
	}
	var total ajnadex.LoadStats
	start := time.Now()
	for _, path := range paths {
		stats, err := idx.LoadFile(ctx, path)
		total.Transactions += stats.Transactions
		total.Applied += stats.Applied
		total.Skipped += stats.Skipped
		if err != nil {
			return err
		}
	}
	logger.Info(
		fmt.Sprintf("finished loading %d file(s)", len(paths)),
		"component", "node",
		"transactions", total.Transactions,
		"applied", total.Applied,
		"skipped", total.Skipped,
		"duration", time.Since(start).String(),
	)
	return nil
}
