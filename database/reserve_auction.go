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

func (d *Database) GetReserveAuction(
	id string,
	txn *Txn,
) (*models.ReserveAuction, error) {
	return d.metadata.GetReserveAuction(id, metadataTxn(txn))
}

func (d *Database) SetReserveAuction(
	auction *models.ReserveAuction,
	txn *Txn,
) error {
	return d.metadata.SetReserveAuction(auction, metadataTxn(txn))
}

func (d *Database) GetReserveAuctionsByPool(
	poolID string,
	txn *Txn,
) ([]models.ReserveAuction, error) {
	return d.metadata.GetReserveAuctionsByPool(poolID, metadataTxn(txn))
}

func (d *Database) GetReserveAuctionTake(
	id string,
	txn *Txn,
) (*models.ReserveAuctionTake, error) {
	return d.metadata.GetReserveAuctionTake(id, metadataTxn(txn))
}

func (d *Database) SetReserveAuctionTake(
	take *models.ReserveAuctionTake,
	txn *Txn,
) error {
	return d.metadata.SetReserveAuctionTake(take, metadataTxn(txn))
}
