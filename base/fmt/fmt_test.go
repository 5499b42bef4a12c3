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

package fmt_test

import (
	"testing"

	gxfmt "github.com/gx-org/tensorlower/base/fmt"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		n       int
		in, out string
	}{
		{n: 1, in: "a\nb\n", out: "  a\n  b\n"},
		{n: 2, in: "a\n\nb", out: "    a\n\n    b"},
		{n: 0, in: "a\n", out: "a\n"},
	}
	for i, test := range tests {
		if got := gxfmt.Indent(test.n, test.in); got != test.out {
			t.Errorf("test %d: got %q but want %q", i, got, test.out)
		}
	}
}

func TestNumber(t *testing.T) {
	in := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\n"
	want := "01 a\n02 b\n03 c\n04 d\n05 e\n06 f\n07 g\n08 h\n09 i\n10 j\n"
	if got := gxfmt.Number(in); got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
