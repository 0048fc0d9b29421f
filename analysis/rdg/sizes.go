// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rdg

import (
	"go/types"

	"github.com/mchalupa/dg/analysis/offset"
)

// stdSizes is used to compute static type sizes the way the Go compiler would on amd64. A target-specific
// size is only ever used to decide whether a def-site is strong-updatable, never to predict actual memory
// layout, so a fixed architecture is an acceptable simplification.
var stdSizes = types.SizesFor("gc", "amd64")

// sizeOfType returns the byte size of t directly, or offset.Unknown if it cannot be determined.
func sizeOfType(t types.Type) (result offset.Offset) {
	result = offset.Unknown
	if stdSizes == nil || t == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			result = offset.Unknown
		}
	}()
	size := stdSizes.Sizeof(t)
	if size < 0 {
		return offset.Unknown
	}
	return offset.Offset(size)
}

// staticSizeOf returns the byte size of the type a pointer-typed value designates (its Elem(), as
// ssa.Alloc.Type() and every pointer-typed ssa.Value's Type() are pointers to the allocated/pointed-to
// type), or offset.Unknown if it cannot be determined.
func staticSizeOf(t types.Type) offset.Offset {
	if t == nil {
		return offset.Unknown
	}
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		return sizeOfType(ptr.Elem())
	}
	return sizeOfType(t)
}
