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

package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PrintfLogger adapts a slog.Logger to the printf style logger interface
// expected by badger and used by the cloud blob stores
type PrintfLogger struct {
	logger *slog.Logger
	store  string
}

// NewPrintfLogger returns a PrintfLogger tagging each message with the store name.
// A nil logger discards all output.
func NewPrintfLogger(logger *slog.Logger, store string) *PrintfLogger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &PrintfLogger{logger: logger, store: store}
}

func (p *PrintfLogger) log(level slog.Level, msg string, args ...any) {
	p.logger.Log(
		context.Background(),
		level,
		strings.TrimSpace(fmt.Sprintf(msg, args...)),
		"component", "database",
		"store", p.store,
	)
}

func (p *PrintfLogger) Infof(msg string, args ...any) {
	p.log(slog.LevelInfo, msg, args...)
}

func (p *PrintfLogger) Warningf(msg string, args ...any) {
	p.log(slog.LevelWarn, msg, args...)
}

func (p *PrintfLogger) Debugf(msg string, args ...any) {
	p.log(slog.LevelDebug, msg, args...)
}

func (p *PrintfLogger) Errorf(msg string, args ...any) {
	p.log(slog.LevelError, msg, args...)
}
