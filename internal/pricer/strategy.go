package pricer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pricescope/internal/dex"
)

// variantOrder lists the pool curve types tried for every pair. Volatile
// pools carry the deeper liquidity for the pairs this system targets, so
// they win ties.
var variantOrder = []bool{false, true}

// attemptFunc is one pricing strategy for a token; 0 means it found nothing.
type attemptFunc func(ctx context.Context, t common.Address) float64

// firstPositive evaluates attempts in order and stops at the first strictly
// positive price. No averaging across sources.
func firstPositive(ctx context.Context, t common.Address, attempts []attemptFunc) float64 {
	for _, attempt := range attempts {
		if price := attempt(ctx, t); price > 0 {
			return price
		}
	}
	return 0
}

// resolveOnChain prices one token from pool reserves: a direct pool against
// the stable unit first, then two hops through the wrapped native token.
func (r *Resolver) resolveOnChain(ctx context.Context, t common.Address, refs referencePrices) float64 {
	return firstPositive(ctx, t, []attemptFunc{
		r.directStablePrice,
		func(ctx context.Context, t common.Address) float64 {
			if refs.wrappedNative <= 0 {
				return 0
			}
			inNative := r.pairPrice(ctx, t, r.cfg.Tokens.WrappedNative)
			if inNative <= 0 {
				return 0
			}
			return inNative * refs.wrappedNative
		},
	})
}

// directStablePrice prices a token against the stable unit.
func (r *Resolver) directStablePrice(ctx context.Context, t common.Address) float64 {
	if t == r.cfg.Tokens.Stable {
		return 1
	}
	return r.pairPrice(ctx, t, r.cfg.Tokens.Stable)
}

// pairPrice prices base in quote over the curve variants in order, first
// positive spot price wins.
func (r *Resolver) pairPrice(ctx context.Context, base, quote common.Address) float64 {
	for _, stable := range variantOrder {
		pool, err := r.registry.PoolFor(ctx, base, quote, stable)
		if err != nil {
			if !errors.Is(err, dex.ErrNoPool) {
				r.logger.Debug("pool lookup failed",
					zap.String("base", base.Hex()),
					zap.String("quote", quote.Hex()),
					zap.Bool("stable", stable),
					zap.Error(err),
				)
			}
			continue
		}
		if price := r.oracle.SpotPrice(ctx, pool, base, quote); price > 0 {
			return price
		}
	}
	return 0
}
