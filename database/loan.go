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

func (d *Database) GetLoan(id string, txn *Txn) (*models.Loan, error) {
	return d.metadata.GetLoan(id, metadataTxn(txn))
}

func (d *Database) SetLoan(loan *models.Loan, txn *Txn) error {
	return d.metadata.SetLoan(loan, metadataTxn(txn))
}

func (d *Database) GetLoansByPool(
	poolID string,
	txn *Txn,
) ([]models.Loan, error) {
	return d.metadata.GetLoansByPool(poolID, metadataTxn(txn))
}
