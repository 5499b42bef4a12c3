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

// Package fmt provides helpers to build the textual forms of programs.
package fmt

import (
	"fmt"
	"math"
	"strings"
)

// Tab is the indentation unit of printed programs.
const Tab = "  "

// Indent prefixes every non-empty line of x with n tabulations.
func Indent(n int, x string) string {
	prefix := strings.Repeat(Tab, n)
	var s strings.Builder
	for line := range strings.Lines(x) {
		if strings.TrimSpace(line) != "" {
			s.WriteString(prefix)
		}
		s.WriteString(line)
	}
	return s.String()
}

// Number adds a line number prefix to all lines in a string.
func Number(x string) string {
	lines := strings.Split(strings.TrimSuffix(x, "\n"), "\n")
	numDigits := int(math.Log10(float64(len(lines)))) + 1
	format := fmt.Sprintf("%%0%dd %%s\n", numDigits)
	var s strings.Builder
	for i, line := range lines {
		s.WriteString(fmt.Sprintf(format, i+1, line))
	}
	return s.String()
}

// Join the string representations of xs with a separator.
func Join[T fmt.Stringer](xs []T, sep string) string {
	ss := make([]string, len(xs))
	for i, x := range xs {
		ss[i] = x.String()
	}
	return strings.Join(ss, sep)
}
