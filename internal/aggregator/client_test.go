package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

const (
	addrOne = "0x1111111111111111111111111111111111111111"
	addrTwo = "0x2222222222222222222222222222222222222222"
)

func TestFetchPricesBatchesAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "base:"+addrOne) || !strings.Contains(r.URL.Path, "base:"+addrTwo) {
			t.Errorf("batched path missing addresses: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coins":{
			"base:` + addrOne + `":{"price":2.5},
			"base:` + addrTwo + `":{"price":0},
			"base:0x3333333333333333333333333333333333333333":{"price":-1},
			"base:0x4444444444444444444444444444444444444444":{"price":"n/a"},
			"base:0x5555555555555555555555555555555555555555":{"price":"1.25"}
		}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	got := client.FetchPrices(context.Background(), "base", []string{addrOne, addrTwo})

	want := map[string]float64{
		addrOne: 2.5,
		"0x5555555555555555555555555555555555555555": 1.25,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("prices mismatch: %v != %v", got, want)
	}
}

func TestFetchPricesNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	if got := client.FetchPrices(context.Background(), "base", []string{addrOne}); len(got) != 0 {
		t.Fatalf("expected empty map on non-success status, got %v", got)
	}
}

func TestFetchPricesUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, nil)
	if got := client.FetchPrices(context.Background(), "base", []string{addrOne}); len(got) != 0 {
		t.Fatalf("expected empty map when unreachable, got %v", got)
	}
}

func TestFetchPricesDisabledOrEmpty(t *testing.T) {
	client := NewClient("", time.Second, nil)
	if got := client.FetchPrices(context.Background(), "base", []string{addrOne}); len(got) != 0 {
		t.Fatalf("expected empty map with no base url, got %v", got)
	}

	client = NewClient("http://127.0.0.1:1", time.Second, nil)
	if got := client.FetchPrices(context.Background(), "base", nil); len(got) != 0 {
		t.Fatalf("expected empty map for empty address set, got %v", got)
	}
}
