package pipeline

import (
	"context"
	"testing"
	"time"

	"reviewharvest/internal/logging"
)

func TestHostOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{rawURL: "https://shop.tiktok.com/vn/product/100", want: "shop.tiktok.com"},
		{rawURL: "https://Shop.TikTok.com/search", want: "shop.tiktok.com"},
		{rawURL: "https://shop.tiktok.com:8443/vn", want: "shop.tiktok.com"},
		{rawURL: "/tmp/captures/product/1.html", want: "unknown"},
		{rawURL: "://bad", want: "unknown"},
	}

	for _, tt := range tests {
		if got := hostOf(tt.rawURL); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}

func TestHostLimiter_ReusesLimiterPerHost(t *testing.T) {
	l := newHostLimiter(12, logging.NewMultiLogger())

	first := l.limiterFor("shop.tiktok.com")
	second := l.limiterFor("shop.tiktok.com")
	if first != second {
		t.Error("same host should share one limiter")
	}

	other := l.limiterFor("shop.example.com")
	if other == first {
		t.Error("different hosts should not share a limiter")
	}
}

func TestHostLimiter_WaitWithinBurstIsFast(t *testing.T) {
	l := newHostLimiter(12, logging.NewMultiLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "https://shop.tiktok.com/vn"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("burst waits took %v, expected them to be immediate", elapsed)
	}
}

func TestHostLimiter_WaitHonorsCancellation(t *testing.T) {
	// One request a minute with the burst already drained forces Wait to
	// block until the context gives up.
	l := newHostLimiter(1, logging.NewMultiLogger())
	for i := 0; i < 5; i++ {
		if err := l.Wait(context.Background(), "https://shop.tiktok.com/vn"); err != nil {
			t.Fatalf("draining burst: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://shop.tiktok.com/vn"); err == nil {
		t.Error("expected Wait to fail once the context expires")
	}
}
