// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package events

import "sync"

// lazyMap computes the value for each key at most once, on first use. Errors
// are cached like values.
type lazyMap[K comparable, V any] struct {
	load func(K) (V, error)

	mu sync.Mutex
	m  map[K]func() (V, error)
}

func newLazyMap[K comparable, V any](load func(K) (V, error)) *lazyMap[K, V] {
	return &lazyMap[K, V]{load: load, m: make(map[K]func() (V, error))}
}

func (m *lazyMap[K, V]) get(key K) (V, error) {
	m.mu.Lock()
	f, ok := m.m[key]
	if !ok {
		f = sync.OnceValues(func() (V, error) { return m.load(key) })
		m.m[key] = f
	}
	m.mu.Unlock()
	// Loading happens outside mu so slow keys don't block other keys.
	return f()
}
