// Package cmap provides a sharded concurrent map with string-like keys.
//
// Keys are distributed across shards with murmur3; each shard has its own
// RWMutex, so writers on different shards never contend.
//
//	m := cmap.New[string, *rate.Limiter]()
//	lim, _ := m.GetOrCreate("10.0.0.1", newLimiter)
//	m.DeleteIf(func(_ string, l *rate.Limiter) bool { return idle(l) })
package cmap
