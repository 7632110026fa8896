package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pricescope/internal/chain"
)

// defaultDecimals is assumed for tokens whose decimals call fails.
const defaultDecimals = 18

// DecimalsCache caches token decimals by address. Decimals are immutable, so
// entries never expire.
type DecimalsCache struct {
	mu   sync.RWMutex
	data map[common.Address]uint8
}

func NewDecimalsCache() *DecimalsCache {
	return &DecimalsCache{data: make(map[common.Address]uint8)}
}

func (c *DecimalsCache) Get(address common.Address) (uint8, bool) {
	c.mu.RLock()
	decimals, ok := c.data[address]
	c.mu.RUnlock()
	return decimals, ok
}

func (c *DecimalsCache) Set(address common.Address, decimals uint8) {
	c.mu.Lock()
	c.data[address] = decimals
	c.mu.Unlock()
}

// Oracle reads pool reserves and computes spot prices from them.
type Oracle struct {
	chain       *chain.Client
	decimals    *DecimalsCache
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewOracle builds an Oracle over the given chain client.
func NewOracle(chainClient *chain.Client, callTimeout time.Duration, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		chain:       chainClient,
		decimals:    NewDecimalsCache(),
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// SpotPrice returns the price of base denominated in quote, derived from the
// pool's reserve ratio. It returns 0 whenever the pool cannot price the pair:
// call failure, the pair not matching the pool's token slots, or an empty
// base-side reserve. Failures never propagate; a zero price is the signal.
func (o *Oracle) SpotPrice(ctx context.Context, pool, base, quote common.Address) float64 {
	token0, token1, err := o.poolTokens(ctx, pool)
	if err != nil {
		o.logger.Debug("pool token read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return 0
	}

	baseIsToken0, ok := orient(token0, token1, base, quote)
	if !ok {
		o.logger.Debug("pool does not hold pair",
			zap.String("pool", pool.Hex()),
			zap.String("base", base.Hex()),
			zap.String("quote", quote.Hex()),
		)
		return 0
	}

	reserve0, reserve1, err := o.poolReserves(ctx, pool)
	if err != nil {
		o.logger.Debug("pool reserve read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return 0
	}

	dec0 := o.tokenDecimals(ctx, token0)
	dec1 := o.tokenDecimals(ctx, token1)

	return spotFromReserves(reserve0, reserve1, dec0, dec1, baseIsToken0)
}

// orient reports which token slot holds the base token. ok is false when the
// requested pair does not exactly match the pool's two slots.
func orient(token0, token1, base, quote common.Address) (baseIsToken0 bool, ok bool) {
	switch {
	case base == token0 && quote == token1:
		return true, true
	case base == token1 && quote == token0:
		return false, true
	default:
		return false, false
	}
}

// spotFromReserves computes quote-per-base from raw reserves and decimals.
func spotFromReserves(reserve0, reserve1 *big.Int, dec0, dec1 uint8, baseIsToken0 bool) float64 {
	baseReserve, quoteReserve := reserve0, reserve1
	baseDecimals, quoteDecimals := dec0, dec1
	if !baseIsToken0 {
		baseReserve, quoteReserve = reserve1, reserve0
		baseDecimals, quoteDecimals = dec1, dec0
	}

	baseAmount := ToDecimal(baseReserve, baseDecimals)
	if baseAmount <= 0 {
		return 0
	}
	return ToDecimal(quoteReserve, quoteDecimals) / baseAmount
}

func (o *Oracle) poolTokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	parsed, err := PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, o.chain, pool, parsed, o.callTimeout, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, o.chain, pool, parsed, o.callTimeout, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return token0, token1, nil
}

func (o *Oracle) poolReserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, o.chain, pool, parsed, o.callTimeout, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("getReserves return size %d", len(values))
	}

	reserve0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

// tokenDecimals reads a token's decimals, caching the result. A failed call
// falls back to 18 and caches the fallback so a broken token is probed once.
func (o *Oracle) tokenDecimals(ctx context.Context, token common.Address) uint8 {
	if decimals, ok := o.decimals.Get(token); ok {
		return decimals
	}

	decimals := uint8(defaultDecimals)
	parsed, err := ERC20ABI()
	if err != nil {
		o.logger.Warn("parse erc20 abi failed", zap.Error(err))
		return decimals
	}

	values, err := callMethod(ctx, o.chain, token, parsed, o.callTimeout, "decimals")
	if err == nil {
		if value, convErr := asUint8(values[0]); convErr == nil {
			decimals = value
		}
	} else {
		o.logger.Warn("decimals call failed, assuming 18",
			zap.String("token", token.Hex()),
			zap.Error(err),
		)
	}

	o.decimals.Set(token, decimals)
	return decimals
}
