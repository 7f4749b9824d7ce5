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

// Package wad converts the 18-decimal fixed point integers emitted by pool
// contracts into decimal values.
//
// Conversion from a WAD integer is exact: the integer becomes the coefficient
// of a decimal with exponent -18. Derived values (products and quotients of
// converted amounts) are rounded to 18 fractional digits, half away from zero.
package wad

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits carried by a WAD integer
const Precision = 18

var (
	ErrNegative = errors.New("wad: negative value")
	ErrOverflow = errors.New("wad: value exceeds 256 bits")
	ErrFraction = errors.New("wad: value has more than 18 fractional digits")
)

// Value is an unsigned 256-bit integer scaled by 10^18
type Value struct {
	uint256.Int
}

// New returns a Value holding the raw (already scaled) integer v
func New(v uint64) Value {
	var ret Value
	ret.SetUint64(v)
	return ret
}

// FromBig converts a raw big integer, as returned by an ABI decoder
func FromBig(b *big.Int) (Value, error) {
	var ret Value
	if b == nil {
		return ret, nil
	}
	if b.Sign() < 0 {
		return ret, ErrNegative
	}
	tmp, overflow := uint256.FromBig(b)
	if overflow {
		return ret, ErrOverflow
	}
	ret.Int = *tmp
	return ret, nil
}

// Parse reads a raw integer in decimal or 0x-prefixed hex notation
func Parse(s string) (Value, error) {
	var ret Value
	s = strings.TrimSpace(s)
	if s == "" {
		return ret, errors.New("wad: empty value")
	}
	var tmp *uint256.Int
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		// FromHex rejects leading zero digits, which ABI encoders emit freely
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			digits = "0"
		}
		tmp, err = uint256.FromHex("0x" + digits)
	} else {
		tmp, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return ret, fmt.Errorf("wad: invalid value %q: %w", s, err)
	}
	ret.Int = *tmp
	return ret, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests
func MustParse(s string) Value {
	ret, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// FromDecimal scales a human readable amount such as "1.5" into a Value
func FromDecimal(d decimal.Decimal) (Value, error) {
	if d.IsNegative() {
		return Value{}, ErrNegative
	}
	scaled := d.Shift(Precision)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Value{}, ErrFraction
	}
	return FromBig(scaled.BigInt())
}

// Must is like FromDecimal but takes a string and panics on error
func Must(s string) Value {
	ret, err := FromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return ret
}

// Decimal returns the exact decimal representation of v
func (v Value) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(v.ToBig(), -Precision)
}

// IsZero reports whether v is zero
func (v Value) IsZero() bool {
	return v.Int.IsZero()
}

// String returns the raw integer in decimal notation
func (v Value) String() string {
	return v.Dec()
}

// Uint64 returns the raw integer as a uint64, reporting whether it fit
func (v Value) Uint64() (uint64, bool) {
	if !v.IsUint64() {
		return 0, false
	}
	return v.Int.Uint64(), true
}

func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.Dec())), nil
}

// UnmarshalJSON accepts a quoted decimal or hex string, or a bare JSON number
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("wad: invalid JSON string: %w", err)
		}
		s = unquoted
	}
	tmp, err := Parse(s)
	if err != nil {
		return err
	}
	*v = tmp
	return nil
}

// Mul returns a*b rounded to Precision fractional digits
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Precision)
}

// Div returns a/b rounded to Precision fractional digits, or zero when b is zero
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, Precision)
}
