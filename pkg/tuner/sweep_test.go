package tuner

import (
	"testing"
	"time"
)

func TestSweepDropsExpiredSessions(t *testing.T) {
	cache := New(nil, nil, nil)
	now := time.Now()

	cache.bySession["expired"] = &Descriptor{ExpiresAt: now.Add(-time.Minute)}
	cache.bySession["live"] = &Descriptor{ExpiresAt: now.Add(time.Minute)}

	if removed := cache.Sweep(now); removed != 1 {
		t.Fatalf("expected one removed session, got %d", removed)
	}
	if _, err := cache.LookupBySession("expired"); err != ErrSessionNotFound {
		t.Error("expired session must be gone")
	}
	if _, err := cache.LookupBySession("live"); err != nil {
		t.Errorf("live session must survive the sweep: %v", err)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	cache := New(nil, nil, nil)
	cache.bySession["expired"] = &Descriptor{ExpiresAt: time.Now().Add(-time.Minute)}

	cache.Sweep(time.Now())
	if removed := cache.Sweep(time.Now()); removed != 0 {
		t.Fatalf("expected nothing left to sweep, got %d", removed)
	}
}

func TestSweeperRunsPeriodically(t *testing.T) {
	cache := New(nil, nil, nil)
	cache.bySession["expired"] = &Descriptor{ExpiresAt: time.Now().Add(-time.Minute)}

	cache.StartSweeper(10 * time.Millisecond)
	defer cache.StopSweeper()

	deadline := time.After(2 * time.Second)
	for {
		if _, err := cache.LookupBySession("expired"); err == ErrSessionNotFound {
			return
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired session")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStopSweeperTwice(t *testing.T) {
	cache := New(nil, nil, nil)
	cache.StartSweeper(time.Hour)
	cache.StopSweeper()
	// A second stop must not block or panic.
	cache.StopSweeper()
}
