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

package gormstore

import (
	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/database/types"
)

func (s *Store) GetPool(id string, txn types.Txn) (*models.Pool, error) {
	return getByID[models.Pool](s, id, txn)
}

func (s *Store) SetPool(value *models.Pool, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetBucket(id string, txn types.Txn) (*models.Bucket, error) {
	return getByID[models.Bucket](s, id, txn)
}

func (s *Store) SetBucket(value *models.Bucket, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetLend(id string, txn types.Txn) (*models.Lend, error) {
	return getByID[models.Lend](s, id, txn)
}

func (s *Store) SetLend(value *models.Lend, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetLoan(id string, txn types.Txn) (*models.Loan, error) {
	return getByID[models.Loan](s, id, txn)
}

func (s *Store) SetLoan(value *models.Loan, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetKick(id string, txn types.Txn) (*models.Kick, error) {
	return getByID[models.Kick](s, id, txn)
}

func (s *Store) SetKick(value *models.Kick, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetLiquidationAuction(id string, txn types.Txn) (*models.LiquidationAuction, error) {
	return getByID[models.LiquidationAuction](s, id, txn)
}

func (s *Store) SetLiquidationAuction(value *models.LiquidationAuction, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetReserveAuction(id string, txn types.Txn) (*models.ReserveAuction, error) {
	return getByID[models.ReserveAuction](s, id, txn)
}

func (s *Store) SetReserveAuction(value *models.ReserveAuction, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetReserveAuctionTake(id string, txn types.Txn) (*models.ReserveAuctionTake, error) {
	return getByID[models.ReserveAuctionTake](s, id, txn)
}

func (s *Store) SetReserveAuctionTake(value *models.ReserveAuctionTake, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetAccount(id string, txn types.Txn) (*models.Account, error) {
	return getByID[models.Account](s, id, txn)
}

func (s *Store) SetAccount(value *models.Account, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetLPTransferors(id string, txn types.Txn) (*models.LPTransferors, error) {
	return getByID[models.LPTransferors](s, id, txn)
}

func (s *Store) SetLPTransferors(value *models.LPTransferors, txn types.Txn) error {
	return s.upsert(value, txn)
}

func (s *Store) GetLPAllowance(id string, txn types.Txn) (*models.LPAllowance, error) {
	return getByID[models.LPAllowance](s, id, txn)
}

func (s *Store) SetLPAllowance(value *models.LPAllowance, txn types.Txn) error {
	return s.upsert(value, txn)
}

// GetCursor returns the last applied position, or nil before the first commit
func (s *Store) GetCursor(txn types.Txn) (*models.Cursor, error) {
	return getByID[models.Cursor](s, models.CursorID, txn)
}

func (s *Store) SetCursor(cursor *models.Cursor, txn types.Txn) error {
	cursor.ID = models.CursorID
	return s.upsert(cursor, txn)
}

func (s *Store) GetPools(txn types.Txn) ([]models.Pool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Pool
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) GetBucketsByPool(poolID string, txn types.Txn) ([]models.Bucket, error) {
	return listWhere[models.Bucket](s, txn, "pool_id = ?", poolID)
}

func (s *Store) GetLendsByBucket(bucketID string, txn types.Txn) ([]models.Lend, error) {
	return listWhere[models.Lend](s, txn, "bucket_id = ?", bucketID)
}

func (s *Store) GetLoansByPool(poolID string, txn types.Txn) ([]models.Loan, error) {
	return listWhere[models.Loan](s, txn, "pool_id = ?", poolID)
}

func (s *Store) GetKicksByPool(poolID string, txn types.Txn) ([]models.Kick, error) {
	return listWhere[models.Kick](s, txn, "pool_id = ?", poolID)
}

func (s *Store) GetLiquidationAuctionsByPool(poolID string, txn types.Txn) ([]models.LiquidationAuction, error) {
	return listWhere[models.LiquidationAuction](s, txn, "pool_id = ?", poolID)
}

func (s *Store) GetReserveAuctionsByPool(poolID string, txn types.Txn) ([]models.ReserveAuction, error) {
	return listWhere[models.ReserveAuction](s, txn, "pool_id = ?", poolID)
}
