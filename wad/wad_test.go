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

package wad_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/wad"
)

func TestValueDecimal(t *testing.T) {
	testDefs := []struct {
		raw      string
		expected string
	}{
		{raw: "0", expected: "0"},
		{raw: "1", expected: "0.000000000000000001"},
		{raw: "1000000000000000000", expected: "1"},
		{raw: "1500000000000000000", expected: "1.5"},
		{raw: "0xde0b6b3a7640000", expected: "1"},
		{
			raw:      "1004968987606512354182109771",
			expected: "1004968987.606512354182109771",
		},
	}
	for _, testDef := range testDefs {
		v, err := wad.Parse(testDef.raw)
		require.NoError(t, err, testDef.raw)
		require.True(
			t,
			decimal.RequireFromString(testDef.expected).Equal(v.Decimal()),
			"%s: got %s",
			testDef.raw,
			v.Decimal(),
		)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "-1", "abc", "1.5"} {
		_, err := wad.Parse(s)
		require.Error(t, err, s)
	}
}

func TestFromBig(t *testing.T) {
	v, err := wad.FromBig(big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, "42", v.String())
	_, err = wad.FromBig(big.NewInt(-1))
	require.ErrorIs(t, err, wad.ErrNegative)
	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = wad.FromBig(huge)
	require.ErrorIs(t, err, wad.ErrOverflow)
}

func TestFromDecimal(t *testing.T) {
	v := wad.Must("100")
	require.Equal(t, "100000000000000000000", v.String())
	_, err := wad.FromDecimal(decimal.RequireFromString("0.0000000000000000001"))
	require.ErrorIs(t, err, wad.ErrFraction)
}

func TestValueJSON(t *testing.T) {
	var args struct {
		Amount wad.Value `json:"amount"`
		Bond   wad.Value `json:"bond"`
		Lup    wad.Value `json:"lup"`
	}
	err := json.Unmarshal(
		[]byte(`{"amount":"2000000000000000000","bond":"0x0de0b6b3a7640000","lup":5}`),
		&args,
	)
	require.NoError(t, err)
	require.Equal(t, "2", args.Amount.Decimal().String())
	require.Equal(t, "1", args.Bond.Decimal().String())
	require.Equal(t, "5", args.Lup.String())
	out, err := json.Marshal(args.Amount)
	require.NoError(t, err)
	require.JSONEq(t, `"2000000000000000000"`, string(out))
}

func TestRounding(t *testing.T) {
	// 1/3 truncates at the 18th digit
	third := wad.Div(decimal.NewFromInt(1), decimal.NewFromInt(3))
	require.Equal(t, "0.333333333333333333", third.String())
	// 2/3 rounds up at the 18th digit
	twoThirds := wad.Div(decimal.NewFromInt(2), decimal.NewFromInt(3))
	require.Equal(t, "0.666666666666666667", twoThirds.String())
	// ties go away from zero
	half := decimal.RequireFromString("0.0000000000000000005")
	require.Equal(
		t,
		"0.000000000000000001",
		wad.Mul(half, decimal.NewFromInt(1)).String(),
	)
	require.True(t, wad.Div(decimal.NewFromInt(1), decimal.Zero).IsZero())
}
