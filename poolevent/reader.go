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
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const maxLineSize = 4 * 1024 * 1024

// OutOfOrderError is returned when the input does not follow block and log
// index order
type OutOfOrderError struct {
	Previous Position
	Current  Position
}

func (e OutOfOrderError) Error() string {
	return fmt.Sprintf(
		"event at block %d log %d follows block %d log %d",
		e.Current.BlockNumber,
		e.Current.LogIndex,
		e.Previous.BlockNumber,
		e.Previous.LogIndex,
	)
}

// Transaction is the ordered list of pool events emitted by one transaction
type Transaction struct {
	Hash        common.Hash
	BlockNumber uint64
	Events      []Event
}

// Last returns the position of the final event in the transaction
func (t Transaction) Last() Position {
	if len(t.Events) == 0 {
		return Position{BlockNumber: t.BlockNumber}
	}
	return t.Events[len(t.Events)-1].Metadata().Position()
}

// Reader decodes newline delimited event records
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	last    *Position
	pending Event
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Open opens an event file, decompressing it based on its extension
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var src io.Reader = f
	closers := []io.Closer{f}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		rc := zr.IOReadCloser()
		src = rc
		closers = append([]io.Closer{rc}, closers...)
	}
	ret := NewReader(src)
	ret.closer = multiCloser(closers)
	return ret, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next event, or io.EOF at the end of the input
func (r *Reader) Next() (Event, error) {
	if r.pending != nil {
		evt := r.pending
		r.pending = nil
		return evt, nil
	}
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		evt, err := rec.Decode()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		pos := evt.Metadata().Position()
		if r.last != nil && !r.last.Less(pos) {
			return nil, fmt.Errorf(
				"line %d: %w",
				r.line,
				OutOfOrderError{Previous: *r.last, Current: pos},
			)
		}
		r.last = &pos
		return evt, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// NextTransaction returns the events of the next transaction, in log order
func (r *Reader) NextTransaction() (Transaction, error) {
	first, err := r.Next()
	if err != nil {
		return Transaction{}, err
	}
	meta := first.Metadata()
	ret := Transaction{
		Hash:        meta.TxHash,
		BlockNumber: meta.BlockNumber,
		Events:      []Event{first},
	}
	for {
		evt, err := r.Next()
		if errors.Is(err, io.EOF) {
			return ret, nil
		}
		if err != nil {
			return Transaction{}, err
		}
		m := evt.Metadata()
		if m.TxHash != ret.Hash || m.BlockNumber != ret.BlockNumber {
			r.pending = evt
			return ret, nil
		}
		ret.Events = append(ret.Events, evt)
	}
}

// GroupTransactions splits an ordered event list into transactions
func GroupTransactions(events []Event) []Transaction {
	var ret []Transaction
	for _, evt := range events {
		meta := evt.Metadata()
		if n := len(ret); n > 0 &&
			ret[n-1].Hash == meta.TxHash &&
			ret[n-1].BlockNumber == meta.BlockNumber {
			ret[n-1].Events = append(ret[n-1].Events, evt)
			continue
		}
		ret = append(ret, Transaction{
			Hash:        meta.TxHash,
			BlockNumber: meta.BlockNumber,
			Events:      []Event{evt},
		})
	}
	return ret
}
