package ratelimiter

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("1.2.3.4")
		if !ok {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Error("fourth request allowed over a limit of 3")
	}
	if retry != time.Minute {
		t.Errorf("retry-after = %v, want %v", retry, time.Minute)
	}
}

func TestClientsCountedSeparately(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("first client denied")
	}
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Error("second client denied after first client's request")
	}
	if ok, _ := rl.Allow("10.0.0.1"); ok {
		t.Error("first client allowed over its limit")
	}
}
