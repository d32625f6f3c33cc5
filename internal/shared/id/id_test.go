package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestGenerateIsMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		if next.Compare(prev) <= 0 {
			t.Fatalf("ULID %s should sort after %s", next, prev)
		}
		prev = next
	}
}

func TestNewSubscriptionID(t *testing.T) {
	sid := NewSubscriptionID()

	if !strings.HasPrefix(sid.String(), SubscriptionPrefix+"_") {
		t.Fatalf("subscription id should start with %q, got %s", SubscriptionPrefix+"_", sid)
	}

	parts := strings.Split(sid.String(), "_")
	if len(parts) != 2 {
		t.Fatalf("expected prefix_ulid, got %s", sid)
	}
	if _, err := ulid.Parse(parts[1]); err != nil {
		t.Errorf("ULID part should parse: %v", err)
	}
}

func TestSubscriptionIDTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	sid := NewSubscriptionID()

	ts, err := sid.Timestamp()
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v out of range", ts)
	}

	if _, err := SubscriptionID("garbage").Timestamp(); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestNewRequestID(t *testing.T) {
	rid := NewRequestID()
	if _, err := uuid.Parse(rid.String()); err != nil {
		t.Errorf("request id should be a UUID: %v", err)
	}
}

func TestConcurrentSubscriptionIDs(t *testing.T) {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[SubscriptionID]bool, n)
		wg   sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := NewSubscriptionID()
			mu.Lock()
			seen[sid] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(seen))
	}
}
