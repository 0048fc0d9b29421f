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
	"github.com/mchalupa/dg/internal/analysisutil"
	"golang.org/x/tools/go/ssa"
)

// attachStoreDefs resolves store's pointer operand to a def-site set via the points-to oracle and attaches
// it to n as defs.
func (b *Builder) attachStoreDefs(n *Node, store *ssa.Store) {
	length := sizeOfType(store.Val.Type())
	for _, d := range b.resolvePointerDefSites(store.Addr, length) {
		n.AddDef(d)
	}
}

// attachLoadUses resolves ptr (the operand of a *ssa.UnOp dereference) to a def-site set via the points-to
// oracle and attaches it to n as uses. length is the size of the value the load produces.
func (b *Builder) attachLoadUses(n *Node, ptr ssa.Value) {
	length := sizeOfType(n.Instr.(ssa.Value).Type())
	for _, d := range b.resolvePointerDefSites(ptr, length) {
		n.AddUse(d)
	}
}

// attachReturnOverwrites masks the function's non-address-taken stack allocations from the caller: they
// cannot be live definitions once the function returns. go/ssa already marks these: it sets alloc.Heap on
// every new() allocation and on every local whose address is taken or that a closure captures, so this is
// simply every non-heap Alloc node built for fn.
func (b *Builder) attachReturnOverwrites(n *Node, fn *ssa.Function) {
	for _, alloc := range b.allocsByFunc[fn] {
		n.AddOverwrite(NewDefSite(alloc, 0, alloc.Size))
	}
}

// resolvePointerDefSites resolves ptr through the points-to oracle to the set of memory regions it may
// designate, each paired with a best-effort start offset (see directOffset: 0 for a direct allocation or
// global, a real struct-field byte offset for a directly-addressed field, offset.Unknown for anything
// indexed or indirected further than that) and the given length.
func (b *Builder) resolvePointerDefSites(ptr ssa.Value, length offset.Offset) []DefSite {
	set, ok := b.pt.PointsTo(ptr)
	if !ok {
		if target := b.nodeForValue[ptr]; target != nil {
			return []DefSite{NewDefSite(target, directOffset(ptr), length)}
		}
		return nil
	}
	if !set.HasKnown {
		return []DefSite{NewDefSite(b.unknownMem, offset.Unknown, length)}
	}
	if len(set.Targets) == 0 {
		if fa, ok := ptr.(*ssa.FieldAddr); ok {
			b.warnOnce("emptyptr:"+ptr.String(), "empty points-to set for field %s (%s), treating as invalid memory access", fieldAddrLabel(fa), ptr)
		} else {
			b.warnOnce("emptyptr:"+ptr.String(), "empty points-to set for %s, treating as invalid memory access", ptr)
		}
		return []DefSite{NewDefSite(b.unknownMem, offset.Unknown, length)}
	}

	sites := make([]DefSite, 0, len(set.Targets))
	for target := range set.Targets {
		sites = append(sites, NewDefSite(b.nodeFor(target.Target), directOffset(ptr), length))
	}
	return sites
}

// directOffset reports the start offset of a pointer value within its points-to target: 0 for a pointer
// taken directly off an allocation or a global, the struct field's byte offset (added to its base's own
// directOffset) for a field access reached through a chain of such pointers, and offset.Unknown for
// anything else this builder does not structurally track (array/slice indexing, pointer arithmetic, a
// field access on a base whose own offset could not be pinned down).
func directOffset(ptr ssa.Value) offset.Offset {
	switch v := ptr.(type) {
	case *ssa.Alloc, *ssa.Global:
		return 0
	case *ssa.FieldAddr:
		base := directOffset(v.X)
		if offset.IsUnknown(base) {
			return offset.Unknown
		}
		return offset.Add(base, fieldByteOffset(v.X.Type(), v.Field))
	default:
		return offset.Unknown
	}
}

// fieldByteOffset returns the byte offset of field index i within the struct addressed by ptrType (a
// pointer-to-struct type, as every ssa.FieldAddr.X is), using the same amd64 size model staticSizeOf uses.
// analysisutil.FieldAddrFieldName resolves the same field to a name rather than a byte offset; the two are
// used together by clients that want to report a human-readable field alongside the computed range.
func fieldByteOffset(ptrType types.Type, i int) offset.Offset {
	if stdSizes == nil {
		return offset.Unknown
	}
	ptr, ok := ptrType.Underlying().(*types.Pointer)
	if !ok {
		return offset.Unknown
	}
	st, ok := ptr.Elem().Underlying().(*types.Struct)
	if !ok || i < 0 || i >= st.NumFields() {
		return offset.Unknown
	}
	fields := make([]*types.Var, st.NumFields())
	for j := 0; j < st.NumFields(); j++ {
		fields[j] = st.Field(j)
	}
	offs := stdSizes.Offsetsof(fields)
	if i >= len(offs) || offs[i] < 0 {
		return offset.Unknown
	}
	return offset.Offset(offs[i])
}

// fieldAddrLabel names the field a *ssa.FieldAddr or *ssa.Field addresses, for diagnostics; "?" if unknown.
func fieldAddrLabel(instr ssa.Instruction) string {
	switch v := instr.(type) {
	case *ssa.FieldAddr:
		return analysisutil.FieldAddrFieldName(v)
	case *ssa.Field:
		return analysisutil.FieldFieldName(v)
	default:
		return "?"
	}
}

// nodeFor returns the canonical node for a points-to target value, lazily materializing one for an
// allocation the builder has not yet (or will never) visit directly — e.g. one reachable only through a
// conservative points-to edge into a function outside the built call graph.
func (b *Builder) nodeFor(v ssa.Value) *Node {
	if v == UnknownMemory || v == nil {
		return b.unknownMem
	}
	if n, ok := b.nodeForValue[v]; ok {
		return n
	}
	switch av := v.(type) {
	case *ssa.Alloc:
		kind := KindAlloc
		if av.Heap {
			kind = KindDynAlloc
		}
		n := b.newNode(kind, av, av.Parent())
		n.Size = allocSizeOf(av)
		b.nodeForValue[v] = n
		return n
	case *ssa.Global:
		n := b.newNode(KindAlloc, nil, nil)
		n.Size = staticSizeOf(av.Type())
		b.nodeForValue[v] = n
		return n
	default:
		return b.unknownMem
	}
}
