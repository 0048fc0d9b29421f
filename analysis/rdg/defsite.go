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

import "github.com/mchalupa/dg/analysis/offset"

// DefSite is a (target, offset, length) triple: "this node may write (or read, for uses) bytes
// [offset, offset+length) of the memory region represented by target". target is the canonical Alloc or
// DynAlloc node for that region, or the node for UnknownMemory when the region could not be resolved.
type DefSite struct {
	Target *Node
	Range  offset.Range
}

// NewDefSite builds a DefSite from a target node and a byte range.
func NewDefSite(target *Node, start, length offset.Offset) DefSite {
	return DefSite{Target: target, Range: offset.NewRange(start, length)}
}

// IsStrongUpdate reports whether defs, the complete set of def-sites produced for a single store
// instruction, qualifies as a strong update: exactly one site, with a concrete offset and length, whose
// target is not a DynAlloc. DynAlloc targets are excluded because several dynamically-allocated cells are
// indistinguishable by node identity alone — a strong update there could erase a live definition belonging
// to a sibling heap cell.
func IsStrongUpdate(defs []DefSite) bool {
	if len(defs) != 1 {
		return false
	}
	d := defs[0]
	if d.Range.IsUnknown() {
		return false
	}
	if d.Target != nil && d.Target.Kind == KindDynAlloc {
		return false
	}
	return true
}
