package cmap

import (
	"math/rand/v2"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Key is the set of key types the map accepts.
type Key interface {
	~string
}

// Map is a concurrent-safe sharded map.
type Map[K Key, V any] struct {
	shards    []*shard[K, V]
	shardMask uint32
	seed      uint32
}

type shard[K Key, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a new sharded map with the default shard count.
func New[K Key, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards creates a new sharded map with the specified shard count.
// shardCount must be a power of 2; other values fall back to the default.
func NewWithShards[K Key, V any](shardCount int) *Map[K, V] {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint32(shardCount - 1),
		seed:      rand.Uint32(),
	}

	for i := 0; i < shardCount; i++ {
		m.shards[i] = &shard[K, V]{
			items: make(map[K]V),
		}
	}

	return m
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	h := murmur3.New32WithSeed(m.seed)
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()&m.shardMask]
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	val, ok := shard.items[key]
	return val, ok
}

// Set stores a key-value pair.
func (m *Map[K, V]) Set(key K, value V) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.items[key] = value
}

// GetOrCreate returns the value for key, calling create under the shard
// lock to store a new one if absent. loaded reports whether it existed.
func (m *Map[K, V]) GetOrCreate(key K, create func() V) (value V, loaded bool) {
	shard := m.getShard(key)

	shard.mu.RLock()
	value, loaded = shard.items[key]
	shard.mu.RUnlock()
	if loaded {
		return value, true
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if value, loaded = shard.items[key]; loaded {
		return value, true
	}
	value = create()
	shard.items[key] = value
	return value, false
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.items, key)
}

// DeleteIf removes every entry for which fn returns true and returns the
// number removed. fn runs with the shard write lock held.
func (m *Map[K, V]) DeleteIf(fn func(key K, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if fn(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		count += len(shard.items)
		shard.mu.RUnlock()
	}
	return count
}

// Clear removes all items.
func (m *Map[K, V]) Clear() {
	for _, shard := range m.shards {
		shard.mu.Lock()
		shard.items = make(map[K]V)
		shard.mu.Unlock()
	}
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int {
	return len(m.shards)
}
