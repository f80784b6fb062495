package cmap

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[string, int]()

	m.Set("key1", 100)
	m.Set("key2", 200)
	m.Set("key1", 150)

	if val, ok := m.Get("key1"); !ok || val != 150 {
		t.Errorf("Get(key1) = (%d, %v), want (150, true)", val, ok)
	}
	if _, ok := m.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) should miss")
	}

	m.Delete("key1")
	m.Delete("nonexistent")
	if m.Has("key1") {
		t.Error("key1 should not exist after deletion")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", m.Count())
	}
}

type ipKey string

func TestNamedStringKey(t *testing.T) {
	m := New[ipKey, string]()
	m.Set(ipKey("10.0.0.1"), "a")

	if v, ok := m.Get("10.0.0.1"); !ok || v != "a" {
		t.Errorf("Get() = (%q, %v), want (a, true)", v, ok)
	}
}

func TestGetOrCreate(t *testing.T) {
	m := New[string, *int]()

	var created atomic.Int32
	create := func() *int {
		created.Add(1)
		v := 1
		return &v
	}

	var wg sync.WaitGroup
	results := make([]*int, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = m.GetOrCreate("peer", create)
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("create called %d times, want 1", created.Load())
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("result %d differs from result 0", i)
		}
	}

	if _, loaded := m.GetOrCreate("peer", create); !loaded {
		t.Error("GetOrCreate() on existing key should report loaded")
	}
}

func TestDeleteIf(t *testing.T) {
	m := NewWithShards[string, int](4)
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	removed := m.DeleteIf(func(_ string, v int) bool { return v%2 == 0 })
	if removed != 50 {
		t.Errorf("DeleteIf() removed %d, want 50", removed)
	}
	if m.Count() != 50 {
		t.Errorf("Count() = %d, want 50", m.Count())
	}
	m.Range(func(_ string, v int) bool {
		if v%2 == 0 {
			t.Errorf("even value %d survived", v)
		}
		return true
	})
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[string, int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Errorf("Range visited %d items, want 3", seen)
	}
	if len(m.Keys()) != 10 {
		t.Errorf("Keys() = %d, want 10", len(m.Keys()))
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("%d-%d", base, j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != 50*200 {
		t.Errorf("Count() = %d, want %d", m.Count(), 50*200)
	}
}
