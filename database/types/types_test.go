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

package types_test

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/types"
)

func TestTypesScanValue(t *testing.T) {
	testDefs := []struct {
		origValue     any
		expectedValue any
	}{
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(123),
			),
			expectedValue: "123",
		},
		{
			origValue: func(v types.StringList) *types.StringList { return &v }(
				types.StringList{"a-1", "b-2"},
			),
			expectedValue: `["a-1","b-2"]`,
		},
		{
			origValue: func(v types.IndexAmounts) *types.IndexAmounts { return &v }(
				types.IndexAmounts{
					-5:   decimal.RequireFromString("1.5"),
					2550: decimal.NewFromInt(7),
				},
			),
			expectedValue: `{"-5":"1.5","2550":"7"}`,
		},
	}
	var ok bool
	var tmpScanner sql.Scanner
	var tmpValuer driver.Valuer
	for _, testDef := range testDefs {
		tmpValuer, ok = testDef.origValue.(driver.Valuer)
		if !ok {
			t.Fatalf("test original value does not implement driver.Valuer")
		}
		valueOut, err := tmpValuer.Value()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(valueOut, testDef.expectedValue) {
			t.Fatalf(
				"did not get expected value from Value(): got %#v, expected %#v",
				valueOut,
				testDef.expectedValue,
			)
		}
		tmpScanner, ok = testDef.origValue.(sql.Scanner)
		if !ok {
			t.Fatalf(
				"test original value does not implement sql.Scanner (it must be a pointer)",
			)
		}
		if err := tmpScanner.Scan(valueOut); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(tmpScanner, testDef.origValue) {
			t.Fatalf(
				"did not get expected value after Scan(): got %#v, expected %#v",
				tmpScanner,
				testDef.origValue,
			)
		}
	}
}

func TestStringListSet(t *testing.T) {
	var l types.StringList
	if !l.Add("x") || !l.Add("y") {
		t.Fatalf("expected new ids to be added")
	}
	if l.Add("x") {
		t.Fatalf("duplicate id was added")
	}
	if !reflect.DeepEqual(l, types.StringList{"x", "y"}) {
		t.Fatalf("unexpected order: %v", l)
	}
	if !l.Remove("x") || l.Contains("x") {
		t.Fatalf("remove failed: %v", l)
	}
	if l.Remove("z") {
		t.Fatalf("removed missing id")
	}
	empty, err := types.StringList(nil).Value()
	if err != nil || empty != "[]" {
		t.Fatalf("unexpected empty value %#v (%v)", empty, err)
	}
}

func TestEventBlobKeyOrdering(t *testing.T) {
	k1 := types.EventBlobKey(9, "0xAB-1")
	k2 := types.EventBlobKey(10, "0xab-0")
	if bytes.Compare(k1, k2) >= 0 {
		t.Fatalf("keys out of order: %s >= %s", k1, k2)
	}
	if !bytes.HasPrefix(k2, types.EventBlobBlockPrefix(10)) {
		t.Fatalf("key %s lacks block prefix", k2)
	}
	if string(k1) != "event/00000000000000000009/0xab-1" {
		t.Fatalf("unexpected key %s", k1)
	}
}
