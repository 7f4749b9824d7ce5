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
	"github.com/blinklabs-io/ajnadex/database/types"
)

// metadataTxn returns the metadata handle of txn. A nil txn queries the
// connection directly
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetPool returns the pool with the given address, or nil if it is not indexed
func (d *Database) GetPool(id string, txn *Txn) (*models.Pool, error) {
	return d.metadata.GetPool(id, metadataTxn(txn))
}

func (d *Database) SetPool(pool *models.Pool, txn *Txn) error {
	return d.metadata.SetPool(pool, metadataTxn(txn))
}

// GetPools returns every indexed pool ordered by address
func (d *Database) GetPools(txn *Txn) ([]models.Pool, error) {
	return d.metadata.GetPools(metadataTxn(txn))
}
