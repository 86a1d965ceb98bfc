package provider

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func newTestBasescanClient(t *testing.T, handler roundTripFunc) *BasescanClient {
	t.Helper()
	client := NewBasescanClient(trace.NewNoopTracerProvider().Tracer("test"), "http://example", "key", time.Second)
	client.client = &http.Client{Transport: handler}
	client.limiter = NewRateLimiter(100, time.Millisecond)
	return client
}

func TestDevWalletsCollectsBalances(t *testing.T) {
	t.Parallel()

	client := newTestBasescanClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Query().Get("action") {
		case "tokentx":
			if req.URL.Query().Get("contractaddress") != "0xtoken" {
				t.Fatalf("unexpected contract: %s", req.URL.Query().Get("contractaddress"))
			}
			return jsonResponse(`{"status":"1","result":[
				{"to":"0xAAA"},{"to":"0xbbb"},{"to":"0xaaa"},{"to":""}
			]}`), nil
		case "balance":
			// 2 ETH in wei for every wallet.
			return jsonResponse(`{"status":"1","result":"2000000000000000000"}`), nil
		default:
			return nil, fmt.Errorf("unexpected action %s", req.URL.Query().Get("action"))
		}
	})

	metrics, err := client.DevWallets(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Duplicate and empty recipients are dropped.
	if len(metrics.Balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(metrics.Balances))
	}
	for _, balance := range metrics.Balances {
		if balance != 2 {
			t.Fatalf("expected wei converted to 2 ETH, got %f", balance)
		}
	}
}

func TestDevWalletsSkipsFailedBalanceLookups(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestBasescanClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Query().Get("action") {
		case "tokentx":
			return jsonResponse(`{"status":"1","result":[{"to":"0xaaa"},{"to":"0xbbb"}]}`), nil
		case "balance":
			calls++
			if calls == 1 {
				return jsonResponse(`{"status":"0","result":"error"}`), nil
			}
			return jsonResponse(`{"status":"1","result":"1000000000000000000"}`), nil
		default:
			return nil, fmt.Errorf("unexpected action")
		}
	})

	metrics, err := client.DevWallets(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metrics.Balances) != 1 || metrics.Balances[0] != 1 {
		t.Fatalf("expected single 1 ETH balance, got %+v", metrics.Balances)
	}
}

func TestDevWalletsTransferErrorPropagates(t *testing.T) {
	t.Parallel()

	client := newTestBasescanClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"status":"0","result":[]}`), nil
	})

	if _, err := client.DevWallets(context.Background(), "0xtoken"); err == nil {
		t.Fatal("expected error when transfer lookup fails")
	}
}
