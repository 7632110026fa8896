package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pricescope/internal/chain"
)

// ErrNoPool is returned when the factory has no pool for a pair and variant.
var ErrNoPool = errors.New("no pool for pair")

// Registry resolves pool addresses through the on-chain factory.
type Registry struct {
	chain       *chain.Client
	factory     common.Address
	callTimeout time.Duration
}

// NewRegistry builds a Registry against the given factory contract.
func NewRegistry(chainClient *chain.Client, factory common.Address, callTimeout time.Duration) *Registry {
	return &Registry{
		chain:       chainClient,
		factory:     factory,
		callTimeout: callTimeout,
	}
}

// PoolFor asks the factory for the pool holding the given pair. The stable
// flag selects between the two curve types; each may have its own pool for
// the same pair. A zero address from the factory means no such pool exists
// and maps to ErrNoPool.
func (r *Registry) PoolFor(ctx context.Context, tokenA, tokenB common.Address, stable bool) (common.Address, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := callMethod(ctx, r.chain, r.factory, parsed, r.callTimeout, "getPool", tokenA, tokenB, stable)
	if err != nil {
		return common.Address{}, err
	}

	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("getPool: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, ErrNoPool
	}
	return pool, nil
}
