package auth

import (
	"sync"
	"testing"
)

func TestThrottleBlocksAfterFiveFailures(t *testing.T) {
	th := NewLoginThrottle()
	id := "alice@example.com"

	for i := 0; i < 4; i++ {
		th.RecordFailure(id)
		if th.IsBlocked(id) {
			t.Fatalf("blocked after %d failures", i+1)
		}
	}
	th.RecordFailure(id)
	if !th.IsBlocked(id) {
		t.Fatal("expected block after 5 failures")
	}
}

func TestThrottleSuccessResets(t *testing.T) {
	th := NewLoginThrottle()
	id := "alice@example.com"
	for i := 0; i < 5; i++ {
		th.RecordFailure(id)
	}
	if !th.IsBlocked(id) {
		t.Fatal("expected block")
	}
	th.RecordSuccess(id)
	if th.IsBlocked(id) {
		t.Fatal("success should clear the counter")
	}
	if th.Attempts(id) != 0 {
		t.Fatalf("expected 0 attempts, got %d", th.Attempts(id))
	}
}

func TestThrottleNoDecay(t *testing.T) {
	// There is no cooldown: a blocked identifier stays blocked until a
	// success clears it.
	th := NewLoginThrottle()
	id := "alice@example.com"
	for i := 0; i < 5; i++ {
		th.RecordFailure(id)
	}
	for i := 0; i < 3; i++ {
		if !th.IsBlocked(id) {
			t.Fatal("block must persist across checks")
		}
	}
}

func TestThrottleIdentifierNormalization(t *testing.T) {
	th := NewLoginThrottle()
	th.RecordFailure("Alice@Example.com ")
	if th.Attempts("alice@example.com") != 1 {
		t.Fatal("identifier should be case-normalized")
	}
}

func TestThrottleConcurrentFailuresNeverUndercount(t *testing.T) {
	th := NewLoginThrottle()
	id := "alice@example.com"

	const workers = 8
	const perWorker = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				th.RecordFailure(id)
			}
		}()
	}
	wg.Wait()

	if got := th.Attempts(id); got != workers*perWorker {
		t.Fatalf("lost updates: got %d, want %d", got, workers*perWorker)
	}
	if !th.IsBlocked(id) {
		t.Fatal("expected block")
	}
}

func TestThrottleIndependentIdentifiers(t *testing.T) {
	th := NewLoginThrottle()
	for i := 0; i < 5; i++ {
		th.RecordFailure("alice@example.com")
	}
	if th.IsBlocked("bob@example.com") {
		t.Fatal("unrelated identifier must not be blocked")
	}
}
