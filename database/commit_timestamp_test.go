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

package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCommitTimestampMismatch(t *testing.T) {
	db, err := New(&Config{})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	require.NoError(t, db.checkCommitTimestamp())
	require.NoError(t, db.Metadata().SetCommitTimestamp(1234, nil))
	err = db.checkCommitTimestamp()
	var tsErr CommitTimestampError
	require.True(t, errors.As(err, &tsErr))
	require.Equal(t, int64(1234), tsErr.MetadataTimestamp)
	require.Equal(t, int64(0), tsErr.BlobTimestamp)
}

func TestCommitTimestampErrorBehind(t *testing.T) {
	require.Equal(t, "blob", CommitTimestampError{MetadataTimestamp: 2, BlobTimestamp: 1}.Behind())
	require.Equal(t, "metadata", CommitTimestampError{MetadataTimestamp: 1, BlobTimestamp: 2}.Behind())
}
