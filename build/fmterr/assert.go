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

package fmterr

import "fmt"

// Fail raises an internal error.
func Fail(format string, a ...any) {
	panic(Internalf(format, a...))
}

// Assert raises an internal error if cond is false.
func Assert(cond bool, format string, a ...any) {
	if cond {
		return
	}
	Fail(format, a...)
}

// Recover converts an internal error raised by Assert or Fail into an error
// stored in *err. It must be called by a deferred function.
// Other panics are not recovered.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	rErr, ok := r.(error)
	if !ok || !IsInternal(rErr) {
		panic(r)
	}
	*err = rErr
}

// Check raises err as an internal error if it is not nil.
func Check(err error) {
	if err == nil {
		return
	}
	panic(Internal(fmt.Errorf("unexpected error: %w", err)))
}
