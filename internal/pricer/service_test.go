package pricer

import (
	"context"
	"reflect"
	"testing"
	"time"

	"pricescope/internal/model"
)

type countingResolver struct {
	calls  int
	prices map[string]float64
}

func (r *countingResolver) Resolve(_ context.Context, _ string, addresses []string) map[string]float64 {
	r.calls++
	out := make(map[string]float64, len(addresses))
	for _, address := range addresses {
		out[address] = r.prices[address]
	}
	return out
}

type recordingStore struct {
	snapshots []model.PriceSnapshot
}

func (s *recordingStore) InsertSnapshots(_ context.Context, snapshots []model.PriceSnapshot) error {
	s.snapshots = append(s.snapshots, snapshots...)
	return nil
}

const serviceAddr = "0x1111111111111111111111111111111111111111"

func TestServiceServesFromCacheInsideWindow(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{serviceAddr: 2.5}}
	svc := NewService(resolver, NewMemoryCache(time.Minute), nil, 8453, nil)
	ctx := context.Background()

	first := svc.Prices(ctx, "base", []string{serviceAddr})
	second := svc.Prices(ctx, "base", []string{"0x1111111111111111111111111111111111111111"})

	if resolver.calls != 1 {
		t.Fatalf("expected one resolver run, got %d", resolver.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached response mismatch: %v != %v", first, second)
	}
}

func TestServiceNormalizesInput(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{serviceAddr: 1}}
	svc := NewService(resolver, nil, nil, 8453, nil)

	got := svc.Prices(context.Background(), "base", []string{
		"0x1111111111111111111111111111111111111111, not-an-address",
		"0x1111111111111111111111111111111111111111",
	})

	want := map[string]float64{serviceAddr: 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalized response mismatch: %v != %v", got, want)
	}
}

func TestServiceEmptyInputShortCircuits(t *testing.T) {
	resolver := &countingResolver{}
	svc := NewService(resolver, NewMemoryCache(time.Minute), nil, 8453, nil)

	got := svc.Prices(context.Background(), "base", []string{" ", "bogus"})

	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver should not run for empty set")
	}
}

func TestServiceRecordsPositiveSnapshots(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{serviceAddr: 2.5}}
	store := &recordingStore{}
	svc := NewService(resolver, nil, store, 8453, nil)

	svc.Prices(context.Background(), "base", []string{
		serviceAddr,
		"0x2222222222222222222222222222222222222222",
	})

	if len(store.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(store.snapshots))
	}
	snap := store.snapshots[0]
	if snap.Token != serviceAddr || snap.PriceUSD != 2.5 || snap.ChainID != 8453 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
