package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected request to be denied after capacity exhausted")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	if tb.Allow() {
		t.Fatal("Expected second request to be denied")
	}

	time.Sleep(30 * time.Millisecond)

	if !tb.Allow() {
		t.Error("Expected request to be allowed after refill interval")
	}
}

func TestTokenBucketRefillDoesNotExceedCapacity(t *testing.T) {
	tb := NewTokenBucket(2, 5*time.Millisecond)

	tb.Allow()
	tb.Allow()

	// Long enough to accrue far more than capacity
	time.Sleep(50 * time.Millisecond)

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("Expected two requests after refill")
	}
	if tb.Allow() {
		t.Error("Expected third request to be denied at capacity")
	}
}

func TestPerMinuteBurst(t *testing.T) {
	tb := PerMinute(60, 5)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Fatalf("Expected burst request %d to be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("Expected request beyond the burst size to be denied")
	}
}

func TestPerMinuteClampsBurst(t *testing.T) {
	tb := PerMinute(3, 100)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("Expected burst to be clamped to the per-minute rate")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	tb.Allow()
	if tb.Allow() {
		t.Fatal("Expected request to be denied")
	}

	tb.Reset()

	if !tb.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}

func TestSlidingWindowAllow(t *testing.T) {
	sw := NewSlidingWindow(2, time.Hour)

	if !sw.Allow() || !sw.Allow() {
		t.Fatal("Expected first two requests to be allowed")
	}
	if sw.Allow() {
		t.Error("Expected third request to be denied")
	}
}

func TestSlidingWindowExpiry(t *testing.T) {
	sw := NewSlidingWindow(1, 20*time.Millisecond)

	if !sw.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	if sw.Allow() {
		t.Fatal("Expected second request to be denied")
	}

	time.Sleep(30 * time.Millisecond)

	if !sw.Allow() {
		t.Error("Expected request to be allowed after window passed")
	}
}

func TestSlidingWindowReset(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)

	sw.Allow()
	sw.Reset()

	if !sw.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}
