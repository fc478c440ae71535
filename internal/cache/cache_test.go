// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for key 'a'")
	}
	if v.(int) != 1 {
		t.Errorf("got %v, want 1", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(30*time.Millisecond, 10)
	defer c.Close()

	c.Set("a", "value")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestCache_CapacityEvictsOldestInserted(t *testing.T) {
	c := New(time.Minute, 3)
	defer c.Close()

	c.Set("first", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("second", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("third", 3)
	time.Sleep(2 * time.Millisecond)

	// Reading "first" must not protect it: eviction is oldest-inserted,
	// not least-recently-used.
	c.Get("first")
	c.Set("fourth", 4)

	if _, ok := c.Get("first"); ok {
		t.Error("expected oldest-inserted 'first' to be evicted")
	}
	for _, key := range []string{"second", "third", "fourth"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
}

func TestCache_GetOrCompute_CachesResult(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if v.(string) != "computed" {
			t.Fatalf("got %v", v)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestCache_GetOrCompute_ErrorNotCached(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	calls := 0
	_, err := c.GetOrCompute("k", func() (interface{}, error) {
		calls++
		return nil, errors.New("upstream down")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	v, err := c.GetOrCompute("k", func() (interface{}, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if v.(string) != "recovered" || calls != 2 {
		t.Errorf("got %v after %d calls, want recovery on second call", v, calls)
	}
}

// Concurrent callers for one key must share a single computation.
func TestCache_GetOrCompute_SingleFlight(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute("shared", func() (interface{}, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("GetOrCompute: %v", err)
				return
			}
			if v.(int) != 42 {
				t.Errorf("got %v, want 42", v)
			}
		}()
	}

	// Give all goroutines a chance to attach to the flight before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("compute ran %d times under concurrency, want 1", n)
	}
}

// Different keys must not serialize against each other.
func TestCache_GetOrCompute_DistinctKeysParallel(t *testing.T) {
	c := New(time.Minute, 100)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			v, err := c.GetOrCompute(key, func() (interface{}, error) {
				return i, nil
			})
			if err != nil || v.(int) != i {
				t.Errorf("key %s: got %v, %v", key, v, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestCache_Snapshot(t *testing.T) {
	c := New(time.Minute, 10)
	defer c.Close()

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("nope")

	s := c.Snapshot()
	if s.Hits != 2 {
		t.Errorf("hits = %d, want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("misses = %d, want 1", s.Misses)
	}
	if s.Keys != 1 {
		t.Errorf("keys = %d, want 1", s.Keys)
	}
}

func TestGenerateKey_DeterministicAndDistinct(t *testing.T) {
	a := GenerateKey("palette", "short_term", "listener-1")
	b := GenerateKey("palette", "short_term", "listener-1")
	if a != b {
		t.Errorf("same parts produced different keys: %s vs %s", a, b)
	}

	other := GenerateKey("palette", "long_term", "listener-1")
	if a == other {
		t.Error("different parts produced identical keys")
	}
}
