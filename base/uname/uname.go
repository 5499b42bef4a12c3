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

// Package uname generates unique names for synthesized variables.
package uname

import "fmt"

// Unique generates unique names.
type Unique struct {
	next map[string]int
}

// New returns a name generator without any name in use.
func New() *Unique {
	return &Unique{next: make(map[string]int)}
}

// Reserve marks names as being in use so that they are never returned by Name.
func (n *Unique) Reserve(names ...string) {
	for _, name := range names {
		if _, ok := n.next[name]; !ok {
			n.next[name] = 1
		}
	}
}

// Name returns a unique name given a desired base name.
// The base name is returned the first time. Then, a numeric suffix is appended.
func (n *Unique) Name(root string) string {
	index, ok := n.next[root]
	if !ok {
		n.next[root] = 1
		return root
	}
	for {
		name := fmt.Sprintf("%s%d", root, index)
		index++
		if _, used := n.next[name]; used {
			continue
		}
		n.next[root] = index
		n.next[name] = 1
		return name
	}
}
