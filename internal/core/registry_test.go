package core

import "testing"

func TestRegistryLastConnectionWins(t *testing.T) {
	r := NewRegistry()

	first := NewClient("conn-1", 7, "alice")
	second := NewClient("conn-2", 7, "alice")

	r.Register(first)
	r.Register(second)

	got, ok := r.Lookup(7)
	if !ok || got.ConnID != "conn-2" {
		t.Fatalf("expected conn-2 to win, got %+v ok=%v", got, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live mapping, got %d", r.Len())
	}
}

func TestRegistryStaleUnregisterKeepsNewConnection(t *testing.T) {
	r := NewRegistry()

	stale := NewClient("conn-1", 7, "alice")
	fresh := NewClient("conn-2", 7, "alice")

	r.Register(stale)
	r.Register(fresh)

	// The stale session disconnecting must not evict the reconnect.
	r.Unregister(stale)

	got, ok := r.Lookup(7)
	if !ok || got.ConnID != "conn-2" {
		t.Fatalf("stale unregister evicted fresh connection: %+v ok=%v", got, ok)
	}

	r.Unregister(fresh)
	if _, ok := r.Lookup(7); ok {
		t.Fatalf("expected user offline after fresh unregister")
	}
}
