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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// StringList is an ordered list of entity ids stored as a JSON array
//
//nolint:recvcheck
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(val any) error {
	var data []byte
	switch v := val.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	var tmp []string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*l = StringList(tmp)
	return nil
}

func (StringList) GormDataType() string {
	return "text"
}

// Add appends id unless already present, returning whether it was added
func (l *StringList) Add(id string) bool {
	if slices.Contains(*l, id) {
		return false
	}
	*l = append(*l, id)
	return true
}

// Remove drops every occurrence of id, returning whether any was found
func (l *StringList) Remove(id string) bool {
	before := len(*l)
	*l = slices.DeleteFunc(*l, func(s string) bool { return s == id })
	return len(*l) != before
}

func (l StringList) Contains(id string) bool {
	return slices.Contains(l, id)
}

// IndexAmounts maps bucket indexes to amounts, stored as a JSON object
//
//nolint:recvcheck
type IndexAmounts map[int32]decimal.Decimal

func (m IndexAmounts) Value() (driver.Value, error) {
	tmp := make(map[string]string, len(m))
	for k, v := range m {
		tmp[strconv.FormatInt(int64(k), 10)] = v.String()
	}
	data, err := json.Marshal(tmp)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *IndexAmounts) Scan(val any) error {
	var data []byte
	switch v := val.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	var tmp map[string]string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	ret := make(IndexAmounts, len(tmp))
	for k, v := range tmp {
		idx, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid bucket index %q: %w", k, err)
		}
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", v, err)
		}
		ret[int32(idx)] = amount
	}
	*m = ret
	return nil
}

func (IndexAmounts) GormDataType() string {
	return "text"
}

// Indexes returns the map keys in ascending order
func (m IndexAmounts) Indexes() []int32 {
	ret := make([]int32, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	v, ok := val.(string)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}

// ErrBlobKeyNotFound is returned by blob operations when a key is missing
var ErrBlobKeyNotFound = errors.New("blob key not found")

// ErrTxnWrongType is returned when a transaction has the wrong type
var ErrTxnWrongType = errors.New("invalid transaction type")

// ErrNilTxn is returned when a nil transaction is provided where a valid transaction is required
var ErrNilTxn = errors.New("nil transaction")

// ErrNoStoreAvailable is returned when no blob or metadata store is available
var ErrNoStoreAvailable = errors.New("no store available")

// ErrBlobStoreUnavailable is returned when blob store cannot be accessed
var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

// ErrReadOnlyTxn is returned on a write through a read-only transaction
var ErrReadOnlyTxn = errors.New("write in read-only transaction")

// Txn is a simple transaction handle for commit/rollback only.
// Database layer (Txn) coordinates metadata and blob operations separately.
type Txn interface {
	Commit() error
	Rollback() error
}

// BlobIteratorOptions selects the keys a BlobIterator visits
type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

// BlobItem is a single key/value pair yielded by a BlobIterator
type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator walks the keys of a blob store in lexical order
type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}
