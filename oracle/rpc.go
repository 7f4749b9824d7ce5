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

package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/ajnadex/poolevent"
	"github.com/blinklabs-io/ajnadex/wad"
)

const poolInfoUtilsABI = `[
{"type":"function","name":"bucketInfo","stateMutability":"view","inputs":[{"name":"ajnaPool_","type":"address"},{"name":"index_","type":"uint256"}],"outputs":[{"name":"price_","type":"uint256"},{"name":"quoteTokens_","type":"uint256"},{"name":"collateral_","type":"uint256"},{"name":"bucketLP_","type":"uint256"},{"name":"scale_","type":"uint256"},{"name":"exchangeRate_","type":"uint256"}]},
{"type":"function","name":"poolPricesInfo","stateMutability":"view","inputs":[{"name":"ajnaPool_","type":"address"}],"outputs":[{"name":"hpb_","type":"uint256"},{"name":"hpbIndex_","type":"uint256"},{"name":"htp_","type":"uint256"},{"name":"htpIndex_","type":"uint256"},{"name":"lup_","type":"uint256"},{"name":"lupIndex_","type":"uint256"}]},
{"type":"function","name":"poolLoansInfo","stateMutability":"view","inputs":[{"name":"ajnaPool_","type":"address"}],"outputs":[{"name":"poolSize_","type":"uint256"},{"name":"loansCount_","type":"uint256"},{"name":"maxBorrower_","type":"address"},{"name":"pendingInflator_","type":"uint256"},{"name":"pendingInterestFactor_","type":"uint256"}]},
{"type":"function","name":"poolReservesInfo","stateMutability":"view","inputs":[{"name":"ajnaPool_","type":"address"}],"outputs":[{"name":"reserves_","type":"uint256"},{"name":"claimableReserves_","type":"uint256"},{"name":"claimableReservesRemaining_","type":"uint256"},{"name":"auctionPrice_","type":"uint256"},{"name":"timeRemaining_","type":"uint256"}]}
]`

const poolABI = `[
{"type":"function","name":"auctionInfo","stateMutability":"view","inputs":[{"name":"borrower_","type":"address"}],"outputs":[{"name":"kicker_","type":"address"},{"name":"bondFactor_","type":"uint256"},{"name":"bondSize_","type":"uint256"},{"name":"kickTime_","type":"uint256"},{"name":"kickMomp_","type":"uint256"},{"name":"neutralPrice_","type":"uint256"},{"name":"head_","type":"address"},{"name":"next_","type":"address"},{"name":"prev_","type":"address"},{"name":"alreadyTaken_","type":"bool"}]},
{"type":"function","name":"burnInfo","stateMutability":"view","inputs":[{"name":"burnEventEpoch_","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"uint256"}]},
{"type":"function","name":"currentBurnEpoch","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"interestRateInfo","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}]}
]`

// PoolInfoUtils deployments by network name
var PoolInfoUtilsAddresses = map[string]common.Address{
	"mainnet":      common.HexToAddress("0x30c5eF2997d6a882DE52c4ec01B6D0a5e5B4fAAE"),
	"arbitrum-one": common.HexToAddress("0x8a7F5aFb7E3c3fD1f3Cc9D874b454b6De11EBbC9"),
	"base":         common.HexToAddress("0x97fa9b0909C238D170C1ab3B5c728A3a45BBEcBa"),
	"matic":        common.HexToAddress("0x519021054846cd3D9883359B593B5ED3058Fbe9f"),
	"optimism":     common.HexToAddress("0xdE6C8171b5b971F71C405631f4e0568ed8491aaC"),
	"gnosis":       common.HexToAddress("0x2baB4c287cF33a6eC373CFE152FdbA299B653F7D"),
	"blast":        common.HexToAddress("0x6aF0363e5d2ddab4471f31Fe2834145Aea1E55Ee"),
	"goerli":       common.HexToAddress("0xdE8D83e069F552fbf3EE5bF04E8C4fa53a097ee5"),
	"ganache":      common.HexToAddress("0x6c5c7fD98415168ada1930d44447790959097482"),
	"filecoin":     common.HexToAddress("0xCF7e3DABBaD8F0F3fdf1AE8a13C4be3872d06d56"),
}

var (
	parsedPoolInfoUtilsABI = mustParseABI(poolInfoUtilsABI)
	parsedPoolABI          = mustParseABI(poolABI)
)

func mustParseABI(def string) abi.ABI {
	ret, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return ret
}

// ContractCaller is the subset of the Ethereum RPC used by the oracle
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type RPCConfig struct {
	Logger        *slog.Logger
	PromRegistry  prometheus.Registerer
	PoolInfoUtils common.Address
	Timeout       time.Duration
}

type RPC struct {
	caller  ContractCaller
	config  RPCConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *rpcMetrics
	closer  io.Closer
}

type rpcMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Dial connects to an Ethereum RPC endpoint
func Dial(ctx context.Context, endpoint string, cfg RPCConfig) (*RPC, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("oracle: RPC endpoint required")
	}
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("oracle: dial %s: %w", endpoint, err)
	}
	ret := NewRPC(client, cfg)
	ret.closer = closerFunc(func() error {
		client.Close()
		return nil
	})
	return ret, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func NewRPC(caller ContractCaller, cfg RPCConfig) *RPC {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	ret := &RPC{
		caller: caller,
		config: cfg,
		logger: cfg.Logger.With("component", "oracle"),
		tracer: otel.Tracer("github.com/blinklabs-io/ajnadex/oracle"),
	}
	if cfg.PromRegistry != nil {
		factory := promauto.With(cfg.PromRegistry)
		ret.metrics = &rpcMetrics{
			calls: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ajnadex_oracle_calls_total",
					Help: "oracle contract calls by method and result",
				},
				[]string{"method", "result"},
			),
			duration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ajnadex_oracle_call_duration_seconds",
					Help:    "oracle contract call latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method"},
			),
		}
	}
	return ret
}

func (r *RPC) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *RPC) call(
	ctx context.Context,
	contractABI *abi.ABI,
	to common.Address,
	block uint64,
	method string,
	args ...any,
) ([]any, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"oracle."+method,
		trace.WithAttributes(
			attribute.String("contract", to.Hex()),
			attribute.Int64("block", int64(block)), // #nosec G115
		),
	)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	start := time.Now()
	ret, err := r.doCall(ctx, contractABI, to, block, method, args...)
	if r.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.metrics.calls.WithLabelValues(method, result).Inc()
		r.metrics.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug(
			"contract call failed",
			"method", method,
			"contract", to.Hex(),
			"block", block,
			"error", err,
		)
		return nil, fmt.Errorf("oracle: %s at block %d: %w", method, block, err)
	}
	return ret, nil
}

func (r *RPC) doCall(
	ctx context.Context,
	contractABI *abi.ABI,
	to common.Address,
	block uint64,
	method string,
	args ...any,
) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := r.caller.CallContract(
		ctx,
		ethereum.CallMsg{To: &to, Data: data},
		new(big.Int).SetUint64(block),
	)
	if err != nil {
		return nil, err
	}
	return contractABI.Unpack(method, out)
}

func (r *RPC) utils(ctx context.Context, pool common.Address, block uint64, method string, args ...any) ([]any, error) {
	return r.call(
		ctx,
		&parsedPoolInfoUtilsABI,
		r.config.PoolInfoUtils,
		block,
		method,
		append([]any{pool}, args...)...,
	)
}

// bucketIndexFromOutput reads a Fenwick index returned by PoolInfoUtils.
// Out of range values, such as the LUP index of a pool with no deposit, map to
// MaxFenwickIndex
func bucketIndexFromOutput(v *big.Int) int32 {
	if v == nil || !v.IsInt64() || v.Int64() > poolevent.MaxFenwickIndex {
		return poolevent.MaxFenwickIndex
	}
	if v.Sign() < 0 {
		return poolevent.MinBucketIndex
	}
	return int32(v.Int64()) // #nosec G115
}

func (r *RPC) BucketInfo(ctx context.Context, pool common.Address, index int32, block uint64) (BucketInfo, error) {
	if !poolevent.ValidBucketIndex(index) {
		return BucketInfo{}, fmt.Errorf("oracle: bucket index %d out of range", index)
	}
	out, err := r.utils(ctx, pool, block, "bucketInfo", big.NewInt(int64(index)))
	if err != nil {
		return BucketInfo{}, err
	}
	vals, err := wadOutputs(out, 0, 1, 2, 3, 4, 5)
	if err != nil {
		return BucketInfo{}, err
	}
	return BucketInfo{
		Price:        vals[0],
		QuoteTokens:  vals[1],
		Collateral:   vals[2],
		LPB:          vals[3],
		Scale:        vals[4],
		ExchangeRate: vals[5],
	}, nil
}

func (r *RPC) AuctionInfo(ctx context.Context, pool common.Address, borrower common.Address, block uint64) (AuctionInfo, error) {
	out, err := r.call(ctx, &parsedPoolABI, pool, block, "auctionInfo", borrower)
	if err != nil {
		return AuctionInfo{}, err
	}
	vals, err := wadOutputs(out, 1, 2, 4, 5)
	if err != nil {
		return AuctionInfo{}, err
	}
	kickTime, err := uintOutput(out, 3)
	if err != nil {
		return AuctionInfo{}, err
	}
	ret := AuctionInfo{
		BondFactor:   vals[0],
		BondSize:     vals[1],
		KickTime:     kickTime,
		KickMomp:     vals[2],
		NeutralPrice: vals[3],
	}
	addrs := []*common.Address{&ret.Kicker, &ret.Head, &ret.Next, &ret.Prev}
	for i, pos := range []int{0, 6, 7, 8} {
		addr, ok := out[pos].(common.Address)
		if !ok {
			return AuctionInfo{}, fmt.Errorf("oracle: auctionInfo output %d has type %T", pos, out[pos])
		}
		*addrs[i] = addr
	}
	taken, ok := out[9].(bool)
	if !ok {
		return AuctionInfo{}, fmt.Errorf("oracle: auctionInfo output 9 has type %T", out[9])
	}
	ret.AlreadyTaken = taken
	return ret, nil
}

func (r *RPC) BurnInfo(ctx context.Context, pool common.Address, epoch uint64, block uint64) (BurnInfo, error) {
	out, err := r.call(ctx, &parsedPoolABI, pool, block, "burnInfo", new(big.Int).SetUint64(epoch))
	if err != nil {
		return BurnInfo{}, err
	}
	ts, err := uintOutput(out, 0)
	if err != nil {
		return BurnInfo{}, err
	}
	vals, err := wadOutputs(out, 1, 2)
	if err != nil {
		return BurnInfo{}, err
	}
	// an unknown epoch reads back as all zeroes
	if ts == 0 && vals[0].IsZero() && vals[1].IsZero() && epoch != 0 {
		return BurnInfo{}, fmt.Errorf("%w: burn epoch %d of pool %s", ErrNotFound, epoch, pool.Hex())
	}
	return BurnInfo{
		Timestamp:     ts,
		TotalInterest: vals[0],
		TotalBurned:   vals[1],
	}, nil
}

func (r *RPC) CurrentBurnEpoch(ctx context.Context, pool common.Address, block uint64) (uint64, error) {
	out, err := r.call(ctx, &parsedPoolABI, pool, block, "currentBurnEpoch")
	if err != nil {
		return 0, err
	}
	return uintOutput(out, 0)
}

func (r *RPC) PoolInfo(ctx context.Context, pool common.Address, block uint64) (PoolInfo, error) {
	var ret PoolInfo
	prices, err := r.utils(ctx, pool, block, "poolPricesInfo")
	if err != nil {
		return ret, err
	}
	priceVals, err := wadOutputs(prices, 0, 2, 4)
	if err != nil {
		return ret, err
	}
	ret.HPB, ret.HTP, ret.LUP = priceVals[0], priceVals[1], priceVals[2]
	indexes := []*int32{&ret.HPBIndex, &ret.HTPIndex, &ret.LUPIndex}
	for i, pos := range []int{1, 3, 5} {
		v, ok := prices[pos].(*big.Int)
		if !ok {
			return ret, fmt.Errorf("oracle: poolPricesInfo output %d has type %T", pos, prices[pos])
		}
		*indexes[i] = bucketIndexFromOutput(v)
	}
	loans, err := r.utils(ctx, pool, block, "poolLoansInfo")
	if err != nil {
		return ret, err
	}
	loanVals, err := wadOutputs(loans, 0, 3)
	if err != nil {
		return ret, err
	}
	ret.PoolSize, ret.PendingInflator = loanVals[0], loanVals[1]
	reserves, err := r.utils(ctx, pool, block, "poolReservesInfo")
	if err != nil {
		return ret, err
	}
	reserveVals, err := wadOutputs(reserves, 0, 1, 2, 3)
	if err != nil {
		return ret, err
	}
	ret.Reserves = reserveVals[0]
	ret.ClaimableReserves = reserveVals[1]
	ret.ClaimableReservesRemaining = reserveVals[2]
	ret.AuctionPrice = reserveVals[3]
	rate, err := r.call(ctx, &parsedPoolABI, pool, block, "interestRateInfo")
	if err != nil {
		return ret, err
	}
	rateVals, err := wadOutputs(rate, 0)
	if err != nil {
		return ret, err
	}
	ret.InterestRate = rateVals[0]
	return ret, nil
}

func wadOutputs(out []any, positions ...int) ([]decimal.Decimal, error) {
	ret := make([]decimal.Decimal, 0, len(positions))
	for _, pos := range positions {
		if pos >= len(out) {
			return nil, fmt.Errorf("oracle: missing output %d", pos)
		}
		v, ok := out[pos].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("oracle: output %d has type %T", pos, out[pos])
		}
		w, err := wad.FromBig(v)
		if err != nil {
			return nil, fmt.Errorf("oracle: output %d: %w", pos, err)
		}
		ret = append(ret, w.Decimal())
	}
	return ret, nil
}

func uintOutput(out []any, pos int) (uint64, error) {
	if pos >= len(out) {
		return 0, fmt.Errorf("oracle: missing output %d", pos)
	}
	v, ok := out[pos].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("oracle: output %d has type %T", pos, out[pos])
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("oracle: output %d overflows uint64", pos)
	}
	return v.Uint64(), nil
}
