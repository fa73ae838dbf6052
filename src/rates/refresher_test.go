package rates

// Test index:
//  1. TestNewRefresherParsesPairs accepts a valid list and rejects malformed ones.
//  2. TestRefresherLoopKeepsPairsWarm ticks refresh the cache until cancelled.
//  3. TestRefresherRequiresPeriod refuses to start without a period.

import (
	"context"
	"testing"
	"time"
)

func TestNewRefresherParsesPairs(t *testing.T) {
	agg := newTestAggregator(t, &stubProvider{name: "stub", rate: "0.85"})

	tests := []struct {
		name    string
		pairs   string
		wantErr bool
	}{
		{"single pair", "USD-EUR", false},
		{"multiple pairs with spaces", " usd-eur , USD-BTC ", false},
		{"empty list", "", true},
		{"missing side", "USD-", true},
		{"no separator", "USDEUR", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRefresher(agg, time.Minute, tt.pairs)
			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRefresherLoopKeepsPairsWarm(t *testing.T) {
	provider := &stubProvider{name: "stub", rate: "0.85"}
	agg := newTestAggregator(t, provider)

	refresher, err := NewRefresher(agg, 10*time.Millisecond, "USD-EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- refresher.StartLoop(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for agg.Stats().Requests < 2 {
		if time.Now().After(deadline) {
			t.Fatal("refresh loop never ticked")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("expected a clean stop, got %v", err)
	}
	if provider.calls < 2 {
		t.Fatalf("expected at least 2 provider refreshes, got %d", provider.calls)
	}
}

func TestRefresherRequiresPeriod(t *testing.T) {
	agg := newTestAggregator(t, &stubProvider{name: "stub", rate: "0.85"})

	refresher, err := NewRefresher(agg, 0, "USD-EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := refresher.StartLoop(context.Background()); err == nil {
		t.Fatal("expected an error without a period")
	}
}
