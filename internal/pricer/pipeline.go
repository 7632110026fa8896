package pricer

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pricescope/internal/token"
)

// PriceSource is the off-chain fast path: a batched lookup against the
// external price-cache service. Implementations degrade to an empty map on
// failure rather than returning an error.
type PriceSource interface {
	FetchPrices(ctx context.Context, chainName string, addresses []string) map[string]float64
}

// PoolRegistry resolves a pool address for a pair and curve variant.
type PoolRegistry interface {
	PoolFor(ctx context.Context, tokenA, tokenB common.Address, stable bool) (common.Address, error)
}

// SpotOracle prices base in quote from a pool's reserves, 0 when the pool
// cannot price the pair.
type SpotOracle interface {
	SpotPrice(ctx context.Context, pool, base, quote common.Address) float64
}

// Tokens names the distinguished token addresses the resolver prices against.
type Tokens struct {
	// Stable is the USD proxy; its own price is defined as 1.
	Stable common.Address
	// WrappedNative is the intermediate hop for tokens without a direct
	// stable pool.
	WrappedNative common.Address
	// Tracked is an additional token whose reference price is computed
	// every run.
	Tracked common.Address
}

// ResolverConfig holds the resolver's static settings.
type ResolverConfig struct {
	// ChainName is the single chain the on-chain fallback supports.
	// Requests for any other chain resolve everything to 0.
	ChainName string
	Tokens    Tokens
	// FanOut caps concurrent on-chain lookups for the residual set.
	FanOut int
}

// Resolver runs the price-resolution waterfall: aggregator seed, reference
// prices, then per-token on-chain fallback.
type Resolver struct {
	cfg      ResolverConfig
	source   PriceSource
	registry PoolRegistry
	oracle   SpotOracle
	logger   *zap.Logger
}

// NewResolver wires a Resolver from its collaborators.
func NewResolver(cfg ResolverConfig, source PriceSource, registry PoolRegistry, oracle SpotOracle, logger *zap.Logger) *Resolver {
	if cfg.FanOut <= 0 {
		cfg.FanOut = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:      cfg,
		source:   source,
		registry: registry,
		oracle:   oracle,
		logger:   logger,
	}
}

// referencePrices are the per-run anchor prices in stable units.
type referencePrices struct {
	wrappedNative float64
	tracked       float64
}

// Resolve prices every address in the already-normalized set. The returned
// map holds exactly the input key set; 0 marks a token no source could price.
func (r *Resolver) Resolve(ctx context.Context, chainName string, addresses []string) map[string]float64 {
	prices := make(map[string]float64, len(addresses))
	if len(addresses) == 0 {
		return prices
	}

	if !strings.EqualFold(chainName, r.cfg.ChainName) {
		for _, address := range addresses {
			prices[address] = 0
		}
		return prices
	}

	requested := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		requested[address] = struct{}{}
	}

	for address, price := range r.source.FetchPrices(ctx, chainName, addresses) {
		if _, ok := requested[address]; ok && price > 0 {
			prices[address] = price
		}
	}

	refs := r.referencePrices(ctx)
	r.seedReferenceTokens(requested, prices, refs)

	residual := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if _, done := prices[address]; !done {
			residual = append(residual, address)
		}
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.FanOut)
	for _, address := range residual {
		address := address
		group.Go(func() error {
			price := r.resolveOnChain(groupCtx, common.HexToAddress(address), refs)
			mu.Lock()
			prices[address] = price
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	return prices
}

func (r *Resolver) referencePrices(ctx context.Context) referencePrices {
	refs := referencePrices{
		wrappedNative: r.directStablePrice(ctx, r.cfg.Tokens.WrappedNative),
		tracked:       r.directStablePrice(ctx, r.cfg.Tokens.Tracked),
	}
	if refs.wrappedNative == 0 {
		r.logger.Warn("wrapped native reference price unavailable, two-hop fallback disabled")
	}
	return refs
}

// seedReferenceTokens fills requested reference tokens that the aggregator
// missed. The stable token is 1 by definition; the others use this run's
// reference prices.
func (r *Resolver) seedReferenceTokens(requested map[string]struct{}, prices map[string]float64, refs referencePrices) {
	seed := func(addr common.Address, price float64) {
		key := token.Canonical(addr)
		if _, ok := requested[key]; !ok {
			return
		}
		if _, done := prices[key]; done {
			return
		}
		if price > 0 {
			prices[key] = price
		}
	}

	seed(r.cfg.Tokens.Stable, 1)
	seed(r.cfg.Tokens.WrappedNative, refs.wrappedNative)
	seed(r.cfg.Tokens.Tracked, refs.tracked)
}
