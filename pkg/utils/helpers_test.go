package utils

import (
	"context"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 500 * time.Millisecond, want: "500ms"},
		{d: 45 * time.Second, want: "45.00s"},
		{d: 90 * time.Second, want: "1.5m"},
		{d: 2 * time.Hour, want: "2.0h"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	formats := []string{"csv", "json"}

	if !Contains(formats, "csv") {
		t.Error("Contains should find csv")
	}
	if Contains(formats, "xml") {
		t.Error("Contains should not find xml")
	}
	if Contains(nil, "csv") {
		t.Error("Contains on nil slice should be false")
	}
}

func TestGetStringOrDefault(t *testing.T) {
	if got := GetStringOrDefault("", "fallback"); got != "fallback" {
		t.Errorf("empty value = %q, want fallback", got)
	}
	if got := GetStringOrDefault("set", "fallback"); got != "set" {
		t.Errorf("set value = %q, want set", got)
	}
}

func TestRandomDuration_StaysWithinBounds(t *testing.T) {
	min := 2 * time.Second
	max := 5 * time.Second

	for i := 0; i < 100; i++ {
		d := RandomDuration(min, max)
		if d < min || d > max {
			t.Fatalf("RandomDuration() = %v, outside [%v, %v]", d, min, max)
		}
	}
}

func TestRandomDuration_DegenerateBounds(t *testing.T) {
	if d := RandomDuration(3*time.Second, 3*time.Second); d != 3*time.Second {
		t.Errorf("equal bounds = %v, want 3s", d)
	}
	if d := RandomDuration(5*time.Second, 2*time.Second); d != 5*time.Second {
		t.Errorf("inverted bounds = %v, want min", d)
	}
	if d := RandomDuration(0, 0); d != 0 {
		t.Errorf("zero bounds = %v, want 0", d)
	}
}

func TestRandomDelay_CancelledContextReturnsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RandomDelay(ctx, time.Minute, 2*time.Minute)
	if err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled delay should return immediately")
	}
}

func TestGenerateRunID_Unique(t *testing.T) {
	a := GenerateRunID()
	b := GenerateRunID()

	if a == "" || b == "" {
		t.Fatal("run IDs must not be empty")
	}
	if a == b {
		t.Error("run IDs should be unique")
	}
}

func TestRandomUserAgent_DrawsFromPool(t *testing.T) {
	for i := 0; i < 20; i++ {
		ua := RandomUserAgent()
		if !Contains(userAgents, ua) {
			t.Fatalf("RandomUserAgent() = %q is not in the pool", ua)
		}
	}
}
