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
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/blinklabs-io/ajnadex/oracle"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultOracleCacheSize, cfg.oracleCacheSize)
	assert.Equal(t, DefaultPollInterval, cfg.pollInterval)
	assert.False(t, cfg.tracing)
}

func TestConfigOptions(t *testing.T) {
	utils := common.HexToAddress("0x3333333333333333333333333333333333333333")
	cfg := NewConfig(
		WithDatabasePath("/tmp/ajnadex"),
		WithBlobPlugin("gcs"),
		WithMetadataPlugin("postgres"),
		WithRPCURL("http://localhost:8545"),
		WithRPCTimeout(5*time.Second),
		WithPoolInfoUtils(utils),
		WithOracleCacheSize(0),
		WithInputs("a.jsonl"),
		WithInputs("b.jsonl.gz"),
		WithWatchDir("/var/spool/ajnadex"),
		WithPollInterval(time.Minute),
		WithTracing(true),
		WithTracingStdout(true),
		WithShutdownTimeout(time.Second),
	)
	assert.Equal(t, "/tmp/ajnadex", cfg.dataDir)
	assert.Equal(t, "gcs", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.Equal(t, "http://localhost:8545", cfg.rpcURL)
	assert.Equal(t, 5*time.Second, cfg.rpcTimeout)
	assert.Equal(t, utils, cfg.poolInfoUtils)
	assert.Equal(t, 0, cfg.oracleCacheSize)
	assert.Equal(t, []string{"a.jsonl", "b.jsonl.gz"}, cfg.inputs)
	assert.Equal(t, "/var/spool/ajnadex", cfg.watchDir)
	assert.Equal(t, time.Minute, cfg.pollInterval)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	assert.Equal(t, time.Second, cfg.shutdownTimeout)
	assert.NoError(t, cfg.validate())
}

func TestConfigValidate(t *testing.T) {
	testDefs := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{
			name: "no oracle",
			cfg:  NewConfig(),
		},
		{
			name: "rpc without utils",
			cfg:  NewConfig(WithRPCURL("http://localhost:8545")),
		},
		{
			name:  "static oracle",
			cfg:   NewConfig(WithOracle(oracle.NewStatic())),
			valid: true,
		},
		{
			name: "negative cache",
			cfg: NewConfig(
				WithOracle(oracle.NewStatic()),
				WithOracleCacheSize(-1),
			),
		},
		{
			name: "negative poll interval",
			cfg: NewConfig(
				WithOracle(oracle.NewStatic()),
				WithPollInterval(-time.Second),
			),
		},
	}
	for _, testDef := range testDefs {
		err := testDef.cfg.validate()
		if testDef.valid {
			assert.NoError(t, err, testDef.name)
		} else {
			assert.Error(t, err, testDef.name)
		}
	}
}
