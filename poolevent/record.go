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

package poolevent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownEvent = errors.New("unknown event name")

// Record is the JSON envelope of a single decoded pool log
type Record struct {
	Event          Name            `json:"event"`
	Pool           common.Address  `json:"pool"`
	BlockNumber    uint64          `json:"block_number"`
	BlockTimestamp uint64          `json:"block_timestamp"`
	TxHash         common.Hash     `json:"tx_hash"`
	TxFrom         common.Address  `json:"tx_from"`
	LogIndex       uint32          `json:"log_index"`
	Args           json.RawMessage `json:"args"`
}

func (r Record) Meta() Meta {
	return Meta{
		Pool:        r.Pool,
		BlockNumber: r.BlockNumber,
		BlockTime:   r.BlockTimestamp,
		TxHash:      r.TxHash,
		TxFrom:      r.TxFrom,
		LogIndex:    r.LogIndex,
	}
}

type decodeFunc func(Meta, json.RawMessage) (Event, error)

var decoders = map[Name]decodeFunc{
	NamePoolCreated:          decodeArgs[PoolCreated],
	NameAddCollateral:        decodeArgs[AddCollateral],
	NameAddQuoteToken:        decodeArgs[AddQuoteToken],
	NameRemoveCollateral:     decodeArgs[RemoveCollateral],
	NameRemoveQuoteToken:     decodeArgs[RemoveQuoteToken],
	NameMoveQuoteToken:       decodeArgs[MoveQuoteToken],
	NameDrawDebt:             decodeArgs[DrawDebt],
	NameRepayDebt:            decodeArgs[RepayDebt],
	NameKick:                 decodeArgs[Kick],
	NameTake:                 decodeArgs[Take],
	NameBucketTake:           decodeArgs[BucketTake],
	NameBucketTakeLPAwarded:  decodeArgs[BucketTakeLPAwarded],
	NameSettle:               decodeArgs[Settle],
	NameAuctionSettle:        decodeArgs[AuctionSettle],
	NameAuctionNFTSettle:     decodeArgs[AuctionNFTSettle],
	NameBucketBankruptcy:     decodeArgs[BucketBankruptcy],
	NameReserveAuction:       decodeReserveAuction,
	NameUpdateInterestRate:   decodeArgs[UpdateInterestRate],
	NameBondWithdrawn:        decodeArgs[BondWithdrawn],
	NameTransferLPs:          decodeArgs[TransferLPs],
	NameLoanStamped:          decodeArgs[LoanStamped],
	NameApproveLPTransferors: decodeArgs[ApproveLPTransferors],
	NameRevokeLPTransferors:  decodeArgs[RevokeLPTransferors],
	NameSetLPAllowance:       decodeSetLPAllowance,
	NameRevokeLPAllowance:    decodeArgs[RevokeLPAllowance],
}

// eventPtr constrains T so that *T carries the embedded Meta
type eventPtr[T Event] interface {
	*T
	Event
	setMeta(Meta)
}

func (m *Meta) setMeta(meta Meta) {
	*m = meta
}

func decodeArgs[T Event, PT eventPtr[T]](meta Meta, args json.RawMessage) (Event, error) {
	var evt T
	if len(args) > 0 {
		if err := json.Unmarshal(args, &evt); err != nil {
			return nil, err
		}
	}
	PT(&evt).setMeta(meta)
	return evt, nil
}

func decodeReserveAuction(meta Meta, args json.RawMessage) (Event, error) {
	ret, err := decodeArgs[ReserveAuction](meta, args)
	if err != nil {
		return nil, err
	}
	evt := ret.(ReserveAuction)
	if !evt.Outcome.Valid() {
		return nil, fmt.Errorf("invalid reserve auction outcome %q", evt.Outcome)
	}
	return evt, nil
}

func decodeSetLPAllowance(meta Meta, args json.RawMessage) (Event, error) {
	ret, err := decodeArgs[SetLPAllowance](meta, args)
	if err != nil {
		return nil, err
	}
	evt := ret.(SetLPAllowance)
	if len(evt.Indexes) != len(evt.Amounts) {
		return nil, fmt.Errorf(
			"mismatched allowance lists: %d indexes, %d amounts",
			len(evt.Indexes),
			len(evt.Amounts),
		)
	}
	return evt, nil
}

// Decode converts a Record into its typed event
func (r Record) Decode() (Event, error) {
	fn, ok := decoders[r.Event]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, r.Event)
	}
	evt, err := fn(r.Meta(), r.Args)
	if err != nil {
		return nil, fmt.Errorf(
			"decode %s at block %d log %d: %w",
			r.Event,
			r.BlockNumber,
			r.LogIndex,
			err,
		)
	}
	return evt, nil
}

// NewRecord builds the envelope for an event, the inverse of Decode
func NewRecord(evt Event) (Record, error) {
	args, err := json.Marshal(evt)
	if err != nil {
		return Record{}, err
	}
	meta := evt.Metadata()
	return Record{
		Event:          evt.EventName(),
		Pool:           meta.Pool,
		BlockNumber:    meta.BlockNumber,
		BlockTimestamp: meta.BlockTime,
		TxHash:         meta.TxHash,
		TxFrom:         meta.TxFrom,
		LogIndex:       meta.LogIndex,
		Args:           args,
	}, nil
}
