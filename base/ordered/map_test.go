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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tensorlower/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		keys    []string
		values  []int
	}{
		{
			entries: []entry{{"B", 1}, {"A", 2}, {"C", 3}},
			keys:    []string{"B", "A", "C"},
			values:  []int{1, 2, 3},
		},
		{
			entries: []entry{{"B", 1}, {"A", 2}, {"B", 3}},
			keys:    []string{"B", "A"},
			values:  []int{3, 2},
		},
		{
			entries: []entry{{"A", 1}, {"A", 2}, {"A", 3}},
			keys:    []string{"A"},
			values:  []int{3},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.entries {
			m.Store(e.k, e.v)
		}
		if m.Size() != len(test.keys) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.keys))
			continue
		}
		if diff := cmp.Diff(test.keys, m.Keys()); diff != "" {
			t.Errorf("test %d: unexpected keys:\n%s", ti, diff)
		}
		if diff := cmp.Diff(test.values, m.Values()); diff != "" {
			t.Errorf("test %d: unexpected values:\n%s", ti, diff)
		}
		i := 0
		for k, v := range m.All() {
			if k != test.keys[i] || v != test.values[i] {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, k, v, test.keys[i], test.values[i])
			}
			i++
		}
	}
}

func TestLoadOrStore(t *testing.T) {
	m := ordered.NewMap[string, int]()
	calls := 0
	build := func() int {
		calls++
		return 42
	}
	for range 3 {
		if got := m.LoadOrStore("A2_pos_size", build); got != 42 {
			t.Errorf("got %d but want 42", got)
		}
	}
	if calls != 1 {
		t.Errorf("value built %d times but want 1", calls)
	}
}
