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

package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/plugin"
	_ "github.com/blinklabs-io/ajnadex/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/ajnadex/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/ajnadex/internal/config"
)

// Mutates the registered plugin options, so must not run in parallel.
func TestSetPluginOption(t *testing.T) {
	tests := []struct {
		name       string
		pluginType plugin.PluginType
		plugin     string
		option     string
		value      any
		wantErr    bool
	}{
		{"sqlite in-memory", plugin.PluginTypeMetadata, config.DefaultMetadataPlugin, "data-dir", "", false},
		{"sqlite wrong type", plugin.PluginTypeMetadata, config.DefaultMetadataPlugin, "data-dir", 123, true},
		{"unknown option", plugin.PluginTypeMetadata, config.DefaultMetadataPlugin, "does-not-exist", "x", true},
		{"badger data dir", plugin.PluginTypeBlob, config.DefaultBlobPlugin, "data-dir", t.TempDir(), false},
		{"badger uint", plugin.PluginTypeBlob, config.DefaultBlobPlugin, "block-cache-size", uint64(100000000), false},
		{"badger bool", plugin.PluginTypeBlob, config.DefaultBlobPlugin, "gc", true, false},
		{"missing plugin", plugin.PluginTypeMetadata, "nonexistent", "data-dir", t.TempDir(), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := plugin.SetPluginOption(tc.pluginType, tc.plugin, tc.option, tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
	err := plugin.SetPluginOption(plugin.PluginTypeMetadata, config.DefaultMetadataPlugin, "max-conections", 4)
	require.ErrorContains(t, err, "unknown option max-conections for plugin sqlite")
	// Restore the in-memory default for other tests in this binary
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, config.DefaultBlobPlugin, "data-dir", ""))
}
