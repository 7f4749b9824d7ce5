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
	"github.com/blinklabs-io/ajnadex/database/models"
)

// GetCursor returns the position of the last applied transaction, or nil
// when nothing has been applied yet
func (d *Database) GetCursor(txn *Txn) (*models.Cursor, error) {
	return d.metadata.GetCursor(metadataTxn(txn))
}

// SetCursor saves the position of the last applied transaction
func (d *Database) SetCursor(cursor *models.Cursor, txn *Txn) error {
	return d.metadata.SetCursor(cursor, metadataTxn(txn))
}
