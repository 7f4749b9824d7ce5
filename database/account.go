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

func (d *Database) GetAccount(id string, txn *Txn) (*models.Account, error) {
	return d.metadata.GetAccount(id, metadataTxn(txn))
}

func (d *Database) SetAccount(account *models.Account, txn *Txn) error {
	return d.metadata.SetAccount(account, metadataTxn(txn))
}

func (d *Database) GetLPTransferors(
	id string,
	txn *Txn,
) (*models.LPTransferors, error) {
	return d.metadata.GetLPTransferors(id, metadataTxn(txn))
}

func (d *Database) SetLPTransferors(
	transferors *models.LPTransferors,
	txn *Txn,
) error {
	return d.metadata.SetLPTransferors(transferors, metadataTxn(txn))
}

func (d *Database) GetLPAllowance(
	id string,
	txn *Txn,
) (*models.LPAllowance, error) {
	return d.metadata.GetLPAllowance(id, metadataTxn(txn))
}

func (d *Database) SetLPAllowance(
	allowance *models.LPAllowance,
	txn *Txn,
) error {
	return d.metadata.SetLPAllowance(allowance, metadataTxn(txn))
}
