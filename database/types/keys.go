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

package types

import (
	"fmt"
	"strings"
)

const (
	EventBlobKeyPrefix = "event/"
	CommitTimestampKey = "metadata/commit_timestamp"
)

// EventBlobKey returns the archive key of an event record. The block number
// is zero padded so keys sort in chain order in every backend
func EventBlobKey(blockNumber uint64, eventID string) []byte {
	return fmt.Appendf(
		nil,
		"%s%020d/%s",
		EventBlobKeyPrefix,
		blockNumber,
		strings.ToLower(eventID),
	)
}

// EventBlobBlockPrefix returns the key prefix shared by all events of a block
func EventBlobBlockPrefix(blockNumber uint64) []byte {
	return fmt.Appendf(nil, "%s%020d/", EventBlobKeyPrefix, blockNumber)
}
