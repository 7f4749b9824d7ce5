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

func (d *Database) GetKick(id string, txn *Txn) (*models.Kick, error) {
	return d.metadata.GetKick(id, metadataTxn(txn))
}

func (d *Database) SetKick(kick *models.Kick, txn *Txn) error {
	return d.metadata.SetKick(kick, metadataTxn(txn))
}

func (d *Database) GetKicksByPool(
	poolID string,
	txn *Txn,
) ([]models.Kick, error) {
	return d.metadata.GetKicksByPool(poolID, metadataTxn(txn))
}

func (d *Database) GetLiquidationAuction(
	id string,
	txn *Txn,
) (*models.LiquidationAuction, error) {
	return d.metadata.GetLiquidationAuction(id, metadataTxn(txn))
}

func (d *Database) SetLiquidationAuction(
	auction *models.LiquidationAuction,
	txn *Txn,
) error {
	return d.metadata.SetLiquidationAuction(auction, metadataTxn(txn))
}

// GetLiquidationAuctionsByPool returns settled and open auctions of a pool
func (d *Database) GetLiquidationAuctionsByPool(
	poolID string,
	txn *Txn,
) ([]models.LiquidationAuction, error) {
	return d.metadata.GetLiquidationAuctionsByPool(poolID, metadataTxn(txn))
}
