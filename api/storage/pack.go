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

package storage

import (
	"slices"

	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
)

// segment is a position of a level and the range of sorted entries
// stored below it.
type segment struct {
	pos        int
	begin, end int
}

type packer struct {
	st      *Storage
	entries []Entry
	// coords are the coordinates of the entries in level order.
	coords [][]int
}

// Pack stores the components of a tensor in a given format.
// Components stored at the same position by unique levels are added.
func Pack(f *format.Format, dims []int, entries []Entry) (*Storage, error) {
	ms, err := modes(f, dims)
	if err != nil {
		return nil, err
	}
	p := &packer{st: New(dims, f)}
	if err := p.sort(f, entries); err != nil {
		return nil, err
	}
	segs := []segment{{pos: 0, begin: 0, end: len(p.entries)}}
	numPos := 1
	for l, m := range ms {
		var pack func(*format.Mode, int, []segment, int) ([]segment, int, error)
		switch m.Format.Name() {
		case "dense":
			pack = p.dense
		case "compressed":
			pack = p.compressed
		case "singleton":
			pack = p.singleton
		case "fixed":
			pack = p.fixed
		default:
			return nil, fmterr.Errorf("cannot pack %s levels", m.Format)
		}
		if segs, numPos, err = pack(m, l, segs, numPos); err != nil {
			return nil, err
		}
	}
	p.st.Vals = make([]float64, numPos)
	for _, seg := range segs {
		for _, entry := range p.entries[seg.begin:seg.end] {
			p.st.Vals[seg.pos] += entry.Val
		}
	}
	return p.st, nil
}

func (p *packer) sort(f *format.Format, entries []Entry) error {
	ordering := f.Ordering()
	type sorted struct {
		entry  Entry
		coords []int
	}
	all := make([]sorted, len(entries))
	for i, entry := range entries {
		if len(entry.Coords) != len(p.st.Dims) {
			return fmterr.Errorf("entry %v has %d coordinates but the tensor has %d dimensions", entry.Coords, len(entry.Coords), len(p.st.Dims))
		}
		for d, c := range entry.Coords {
			if c < 0 || c >= p.st.Dims[d] {
				return fmterr.Errorf("coordinate %d of entry %v out of range [0, %d)", d, entry.Coords, p.st.Dims[d])
			}
		}
		coords := make([]int, len(ordering))
		for l, d := range ordering {
			coords[l] = entry.Coords[d]
		}
		all[i] = sorted{entry: entry, coords: coords}
	}
	slices.SortStableFunc(all, func(x, y sorted) int {
		return slices.Compare(x.coords, y.coords)
	})
	for _, s := range all {
		p.entries = append(p.entries, s.entry)
		p.coords = append(p.coords, s.coords)
	}
	return nil
}

// groups splits a segment into the ranges of entries sharing the coordinate
// of a level. Every entry is its own group when unique is false.
func (p *packer) groups(seg segment, l int, unique bool) []segment {
	var groups []segment
	for i := seg.begin; i < seg.end; i++ {
		n := len(groups)
		if unique && n > 0 && p.coords[groups[n-1].begin][l] == p.coords[i][l] {
			groups[n-1].end = i + 1
			continue
		}
		groups = append(groups, segment{begin: i, end: i + 1})
	}
	return groups
}

func (p *packer) storeCoord(m *format.Mode, pos, coord int) {
	crd := p.st.Array(packLevel(m), 1)
	i := crdIndex(pos, m)
	if i >= len(*crd) {
		*crd = append(*crd, make([]int, i+1-len(*crd))...)
	}
	(*crd)[i] = coord
}

func (p *packer) dense(m *format.Mode, l int, segs []segment, numPos int) ([]segment, int, error) {
	width := p.st.Dims[m.Index]
	var children []segment
	for _, seg := range segs {
		for _, group := range p.groups(seg, l, true) {
			group.pos = seg.pos*width + p.coords[group.begin][l]
			children = append(children, group)
		}
	}
	return children, numPos * width, nil
}

func (p *packer) compressed(m *format.Mode, l int, segs []segment, numPos int) ([]segment, int, error) {
	pos := p.st.Array(packLevel(m), 0)
	*pos = make([]int, numPos+1)
	perParent := make([][]segment, numPos)
	for _, seg := range segs {
		perParent[seg.pos] = p.groups(seg, l, m.Format.Properties().Unique)
	}
	var children []segment
	for parent, groups := range perParent {
		(*pos)[parent+1] = (*pos)[parent] + len(groups)
		for i, group := range groups {
			group.pos = (*pos)[parent] + i
			p.storeCoord(m, group.pos, p.coords[group.begin][l])
			children = append(children, group)
		}
	}
	return children, (*pos)[numPos], nil
}

func (p *packer) singleton(m *format.Mode, l int, segs []segment, numPos int) ([]segment, int, error) {
	children := make([]segment, 0, len(segs))
	for _, seg := range segs {
		groups := p.groups(seg, l, true)
		if len(groups) != 1 {
			return nil, 0, fmterr.Errorf("singleton level %d stores %d coordinates at position %d", m.Level, len(groups), seg.pos)
		}
		p.storeCoord(m, seg.pos, p.coords[seg.begin][l])
		children = append(children, segment{pos: seg.pos, begin: seg.begin, end: seg.end})
	}
	return children, numPos, nil
}

func (p *packer) fixed(m *format.Mode, l int, segs []segment, numPos int) ([]segment, int, error) {
	perParent := make([][]segment, numPos)
	width := 0
	for _, seg := range segs {
		perParent[seg.pos] = p.groups(seg, l, true)
		width = max(width, len(perParent[seg.pos]))
	}
	*p.st.Array(packLevel(m), 0) = []int{width}
	var children []segment
	for parent, groups := range perParent {
		last := 0
		for i := range width {
			pos := parent*width + i
			if i >= len(groups) {
				// Padding duplicates the last coordinate with a zero value.
				p.storeCoord(m, pos, last)
				continue
			}
			group := groups[i]
			group.pos = pos
			last = p.coords[group.begin][l]
			p.storeCoord(m, pos, last)
			children = append(children, group)
		}
	}
	return children, numPos * width, nil
}
