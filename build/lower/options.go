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

package lower

// DefaultAllocSize is the initial capacity of arrays whose size is unknown.
const DefaultAllocSize = 1 << 20

// Option configures how a statement is lowered.
type Option func(*options)

type options struct {
	assemble   bool
	compute    bool
	allocSize  int
	parallel   bool
	sequential bool
	funcName   string
	trace      func(format string, a ...any)
}

func newOptions(opts []Option) options {
	o := options{
		assemble:  true,
		compute:   true,
		allocSize: DefaultAllocSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.funcName == "" {
		o.funcName = o.defaultName()
	}
	return o
}

func (o *options) defaultName() string {
	switch {
	case o.assemble && !o.compute:
		return "assemble"
	case o.compute && !o.assemble:
		return "compute"
	}
	return "evaluate"
}

func (o *options) tracef(format string, a ...any) {
	if o.trace != nil {
		o.trace(format, a...)
	}
}

// WithAssemble only emits the code assembling the index arrays of the result.
// Values are allocated but not computed.
func WithAssemble() Option {
	return func(o *options) {
		o.assemble, o.compute = true, false
	}
}

// WithCompute only emits the code computing the values of the result.
// The index arrays and the values of the result have to be assembled.
func WithCompute() Option {
	return func(o *options) {
		o.assemble, o.compute = false, true
	}
}

// WithAllocSize sets the initial capacity of arrays growing while
// the result is assembled.
func WithAllocSize(size int) Option {
	return func(o *options) {
		o.allocSize = size
	}
}

// WithParallelize annotates the outermost loop when its iterations are independent.
func WithParallelize() Option {
	return func(o *options) {
		o.parallel = true
	}
}

// WithSequentialAssembly assembles the last level of a compressed result
// below dense levels from attribute queries instead of appending to it.
func WithSequentialAssembly() Option {
	return func(o *options) {
		o.sequential = true
	}
}

// WithFuncName sets the name of the emitted function.
func WithFuncName(name string) Option {
	return func(o *options) {
		o.funcName = name
	}
}

// WithTrace calls f with the merge lattices and decisions of the lowering.
func WithTrace(f func(format string, a ...any)) Option {
	return func(o *options) {
		o.trace = f
	}
}
