package oauth

import (
	"testing"
	"time"
)

func TestStateStoreConsume(t *testing.T) {
	store := NewStateStore(time.Minute)
	defer store.Stop()

	state := store.Create()
	if state == "" {
		t.Fatal("expected non-empty state")
	}

	if !store.Consume(state) {
		t.Error("expected fresh state to be valid")
	}

	// Single use
	if store.Consume(state) {
		t.Error("expected consumed state to be rejected")
	}

	if store.Consume("unknown-state") {
		t.Error("expected unknown state to be rejected")
	}
}

func TestStateStoreExpiry(t *testing.T) {
	store := NewStateStore(time.Minute)
	defer store.Stop()

	state := store.Create()

	// Force the state into the past
	store.mu.Lock()
	store.states[state] = time.Now().Add(-time.Second)
	store.mu.Unlock()

	if store.Consume(state) {
		t.Error("expected expired state to be rejected")
	}
}

func TestStateStoreCleanup(t *testing.T) {
	store := NewStateStore(time.Minute)
	defer store.Stop()

	expired := store.Create()
	fresh := store.Create()

	store.mu.Lock()
	store.states[expired] = time.Now().Add(-time.Second)
	store.mu.Unlock()

	store.cleanup()

	store.mu.Lock()
	_, hasExpired := store.states[expired]
	_, hasFresh := store.states[fresh]
	store.mu.Unlock()

	if hasExpired {
		t.Error("expected expired state to be removed")
	}
	if !hasFresh {
		t.Error("expected fresh state to survive cleanup")
	}
}
