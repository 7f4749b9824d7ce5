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
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/internal/config"
)

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins(config.DefaultBlobPlugin, config.DefaultMetadataPlugin)
	require.False(t, shouldExit)
	require.Empty(t, output)

	shouldExit, output = listPlugins("list", "list")
	require.True(t, shouldExit)
	require.Contains(t, output, "Available blob plugins:")
	require.Contains(t, output, "  badger: ")
	require.Contains(t, output, "Available metadata plugins:")
	require.Contains(t, output, "  sqlite: ")

	require.Contains(t, listAllPlugins(), "Metadata Storage Plugins:")
}

func TestLogOutput(t *testing.T) {
	require.Equal(t, os.Stdout, logOutput(nil))
	require.Equal(t, os.Stdout, logOutput(&config.Config{}))
	require.NotEqual(t, os.Stdout, logOutput(&config.Config{LogFile: t.TempDir() + "/ajnadex.log"}))
}
