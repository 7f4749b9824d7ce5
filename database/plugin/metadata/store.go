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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/database/plugin"
	"github.com/blinklabs-io/ajnadex/database/types"
)

// MetadataStore holds the derived entities. Get methods return nil, nil for
// a missing row
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Entities
	GetPool(string, types.Txn) (*models.Pool, error)
	SetPool(*models.Pool, types.Txn) error
	GetBucket(string, types.Txn) (*models.Bucket, error)
	SetBucket(*models.Bucket, types.Txn) error
	GetLend(string, types.Txn) (*models.Lend, error)
	SetLend(*models.Lend, types.Txn) error
	GetLoan(string, types.Txn) (*models.Loan, error)
	SetLoan(*models.Loan, types.Txn) error
	GetKick(string, types.Txn) (*models.Kick, error)
	SetKick(*models.Kick, types.Txn) error
	GetLiquidationAuction(string, types.Txn) (*models.LiquidationAuction, error)
	SetLiquidationAuction(*models.LiquidationAuction, types.Txn) error
	GetReserveAuction(string, types.Txn) (*models.ReserveAuction, error)
	SetReserveAuction(*models.ReserveAuction, types.Txn) error
	GetReserveAuctionTake(string, types.Txn) (*models.ReserveAuctionTake, error)
	SetReserveAuctionTake(*models.ReserveAuctionTake, types.Txn) error
	GetAccount(string, types.Txn) (*models.Account, error)
	SetAccount(*models.Account, types.Txn) error
	GetLPTransferors(string, types.Txn) (*models.LPTransferors, error)
	SetLPTransferors(*models.LPTransferors, types.Txn) error
	GetLPAllowance(string, types.Txn) (*models.LPAllowance, error)
	SetLPAllowance(*models.LPAllowance, types.Txn) error
	GetCursor(types.Txn) (*models.Cursor, error)
	SetCursor(*models.Cursor, types.Txn) error

	// Queries
	GetPools(types.Txn) ([]models.Pool, error)
	GetBucketsByPool(string, types.Txn) ([]models.Bucket, error)
	GetLendsByBucket(string, types.Txn) ([]models.Lend, error)
	GetLoansByPool(string, types.Txn) ([]models.Loan, error)
	GetKicksByPool(string, types.Txn) ([]models.Kick, error)
	GetLiquidationAuctionsByPool(string, types.Txn) ([]models.LiquidationAuction, error)
	GetReserveAuctionsByPool(string, types.Txn) ([]models.ReserveAuction, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
