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

package gcs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/plugin/blob/gcs"
)

func TestValidateCredentials(t *testing.T) {
	dir := t.TempDir()
	credsFile := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credsFile, []byte("{}"), 0o600))

	testDefs := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "unset", path: ""},
		{name: "existing file", path: credsFile},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.json"),
			wantErr: "GCS credentials file does not exist",
		},
		{
			name:    "directory",
			path:    dir,
			wantErr: "GCS credentials file is a directory",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := gcs.ValidateCredentials(testDef.path)
			if testDef.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, testDef.wantErr)
		})
	}
}
