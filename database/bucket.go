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

func (d *Database) GetBucket(id string, txn *Txn) (*models.Bucket, error) {
	return d.metadata.GetBucket(id, metadataTxn(txn))
}

func (d *Database) SetBucket(bucket *models.Bucket, txn *Txn) error {
	return d.metadata.SetBucket(bucket, metadataTxn(txn))
}

// GetBucketsByPool returns the buckets of a pool that have seen activity
func (d *Database) GetBucketsByPool(
	poolID string,
	txn *Txn,
) ([]models.Bucket, error) {
	return d.metadata.GetBucketsByPool(poolID, metadataTxn(txn))
}

func (d *Database) GetLend(id string, txn *Txn) (*models.Lend, error) {
	return d.metadata.GetLend(id, metadataTxn(txn))
}

func (d *Database) SetLend(lend *models.Lend, txn *Txn) error {
	return d.metadata.SetLend(lend, metadataTxn(txn))
}

func (d *Database) GetLendsByBucket(
	bucketID string,
	txn *Txn,
) ([]models.Lend, error) {
	return d.metadata.GetLendsByBucket(bucketID, metadataTxn(txn))
}
