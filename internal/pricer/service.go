package pricer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pricescope/internal/model"
	"pricescope/internal/token"
)

// PriceResolver runs one resolution pass over a normalized address set.
type PriceResolver interface {
	Resolve(ctx context.Context, chainName string, addresses []string) map[string]float64
}

// SnapshotStore persists resolved prices for dashboard history.
type SnapshotStore interface {
	InsertSnapshots(ctx context.Context, snapshots []model.PriceSnapshot) error
}

// Service is the request-facing entry point: it normalizes input, serves
// fresh results from the response cache, and records snapshots of new runs.
type Service struct {
	resolver PriceResolver
	cache    ResponseCache
	store    SnapshotStore
	chainID  uint64
	logger   *zap.Logger
}

// NewService wires the Service. cache and store may be nil.
func NewService(resolver PriceResolver, cache ResponseCache, store SnapshotStore, chainID uint64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		cache:    cache,
		store:    store,
		chainID:  chainID,
		logger:   logger,
	}
}

// Prices resolves USD prices for the raw address inputs on the given chain.
// Every normalized input address appears in the result, 0 meaning unknown.
func (s *Service) Prices(ctx context.Context, chainName string, rawAddresses []string) map[string]float64 {
	addresses := token.Normalize(rawAddresses)
	if len(addresses) == 0 {
		return map[string]float64{}
	}

	key := CacheKey(chainName, addresses)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached
		}
	}

	prices := s.resolver.Resolve(ctx, chainName, addresses)

	if s.cache != nil {
		s.cache.Set(ctx, key, prices)
	}
	s.record(ctx, prices)

	return prices
}

// record persists positive prices from a fresh run. Best effort: a failed
// insert must not affect the response.
func (s *Service) record(ctx context.Context, prices map[string]float64) {
	if s.store == nil {
		return
	}

	resolvedAt := time.Now().UTC()
	snapshots := make([]model.PriceSnapshot, 0, len(prices))
	for address, price := range prices {
		if price <= 0 {
			continue
		}
		snapshots = append(snapshots, model.PriceSnapshot{
			ChainID:    s.chainID,
			Token:      address,
			PriceUSD:   price,
			ResolvedAt: resolvedAt,
		})
	}

	if err := s.store.InsertSnapshots(ctx, snapshots); err != nil {
		s.logger.Warn("snapshot insert failed", zap.Error(err))
	}
}
