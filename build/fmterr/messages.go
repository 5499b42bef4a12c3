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

// Messages shown to users.
const (
	MsgDimensionMismatch      = "Dimensions of the same index variable must match."
	MsgTransposition          = "Computations with transpositions are not supported, but are planned for the future."
	MsgDistribution           = "Expressions with free variables that do not appear on the right hand side of the expression are not supported, but are planned for the future."
	MsgCompileWithoutExpr     = "Computation must be defined prior to invoking the compile method."
	MsgAssembleWithoutCompile = "The compile method must be called prior to assemble."
	MsgComputeWithoutCompile  = "The compile method must be called prior to compute."
)
