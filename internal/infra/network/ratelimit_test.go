package network

import (
	"testing"
	"time"
)

func TestTokenBucketDrainsAndRefills(t *testing.T) {
	now := time.Now()
	b := NewTokenBucket(2, 10) // 2 burst, 10/s

	if !b.Allow(now) || !b.Allow(now) {
		t.Fatal("burst capacity should admit two requests")
	}
	if b.Allow(now) {
		t.Fatal("drained bucket should reject")
	}
	// 100ms at 10/s refills one token
	if !b.Allow(now.Add(100 * time.Millisecond)) {
		t.Fatal("refilled bucket should admit")
	}
}

func TestTokenBucketNilAllowsAll(t *testing.T) {
	var b *TokenBucket
	for i := 0; i < 100; i++ {
		if !b.Allow(time.Now()) {
			t.Fatal("nil bucket must never throttle")
		}
	}
}
