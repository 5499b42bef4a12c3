// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ordered provides collections iterating in insertion order.
//
// The lowering engine ranges over these collections when it emits code,
// which keeps the emitted programs deterministic.
package ordered

import "iter"

// Map is a map remembering the order in which keys were first stored.
type Map[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

// NewMap returns a new empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Store a value for a key. Storing an existing key keeps its position.
func (m *Map[K, V]) Store(k K, v V) {
	if _, in := m.m[k]; !in {
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// Load returns the value of a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// LoadOrStore returns the value of a key.
// If the key is absent, the value is built by newV and stored first.
func (m *Map[K, V]) LoadOrStore(k K, newV func() V) V {
	if v, ok := m.m[k]; ok {
		return v
	}
	v := newV()
	m.Store(k, v)
	return v
}

// All returns an iterator over the key-value pairs in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// Values returns the values in key insertion order.
func (m *Map[K, V]) Values() []V {
	vals := make([]V, len(m.keys))
	for i, k := range m.keys {
		vals[i] = m.m[k]
	}
	return vals
}

// Size returns the number of keys in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}
