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
	"github.com/mchalupa/dg/analysis/config"
	"github.com/mchalupa/dg/analysis/lang"
	"github.com/mchalupa/dg/analysis/offset"
	"golang.org/x/tools/go/ssa"
)

// intrinsicNames recognizes the memcpy/memmove/memset-shaped external functions the standard library's own
// internal/bytealg models as //go:noescape assembly stubs. Matched by unqualified function name, since Go
// has no builtin equivalent to special-case the way a C frontend would.
var intrinsicNames = map[string]intrinsicShape{
	"memcpy":  shapeCopy,
	"memmove": shapeCopy,
	"memset":  shapeSet,
	"vastart": shapeVastart,
}

type intrinsicShape int

const (
	shapeCopy intrinsicShape = iota
	shapeSet
	shapeVastart
)

// buildCall resolves and classifies instr, returning the (entry, exit) pair connectCallsToGraph should
// stitch into the caller's control flow.
func (b *Builder) buildCall(caller *ssa.Function, instr ssa.CallInstruction, depth int) callResult {
	if goInstr, ok := instr.(*ssa.Go); ok {
		return b.buildThreadCreate(caller, goInstr, depth)
	}

	targets := b.resolveCallTargets(instr)
	if len(targets) == 0 {
		return b.undefinedCall(caller, instr)
	}

	results := make([]callResult, 0, len(targets))
	for _, target := range targets {
		results = append(results, b.buildCallTarget(caller, instr, target, depth))
	}
	return connectCallsToGraph(b, caller, instr, results)
}

// resolveCallTargets resolves the static or dynamic function(s) a call instruction may invoke.
func (b *Builder) resolveCallTargets(instr ssa.CallInstruction) []*ssa.Function {
	common := instr.Common()
	if common.IsInvoke() {
		return b.resolveInterfaceCallTargets(common)
	}
	if callee := common.StaticCallee(); callee != nil {
		return []*ssa.Function{callee}
	}

	set, ok := b.pt.PointsTo(common.Value)
	if !ok {
		return nil
	}
	var targets []*ssa.Function
	for target := range set.Targets {
		if f, ok := target.Target.(*ssa.Function); ok {
			targets = append(targets, f)
		}
	}
	return targets
}

// resolveInterfaceCallTargets resolves an interface-method call by consulting the points-to set of the
// receiver and looking up the method on each concrete dynamic type via the receiver's method set, falling
// back to nothing found (treated as undefined) when the oracle has no information.
func (b *Builder) resolveInterfaceCallTargets(common *ssa.CallCommon) []*ssa.Function {
	set, ok := b.pt.PointsTo(common.Value)
	if !ok {
		return nil
	}
	var targets []*ssa.Function
	for target := range set.Targets {
		recvType := target.Target.Type()
		if recvType == nil {
			continue
		}
		if prog := b.prog; prog != nil {
			if f := prog.LookupMethod(recvType, common.Method.Pkg(), common.Method.Name()); f != nil {
				targets = append(targets, f)
			}
		}
	}
	return targets
}

// buildCallTarget classifies and builds a single resolved call target.
func (b *Builder) buildCallTarget(caller *ssa.Function, instr ssa.CallInstruction, target *ssa.Function, depth int) callResult {
	cid := codeIdentifierOf(target)

	if b.cfg.IsThreadCreate(cid) {
		return b.buildConfiguredThreadCreate(caller, instr, target, depth)
	}
	if b.cfg.IsThreadJoin(cid) {
		return b.buildThreadJoin(caller, instr)
	}
	if model, ok := b.cfg.GetFunctionModel(cid); ok {
		return b.buildModeledCall(caller, instr, model)
	}
	if alloc, ok := b.cfg.GetAllocationFunction(cid); ok {
		return b.buildAllocationCall(caller, instr, alloc)
	}
	if !lang.IsExternal(target) {
		return b.buildPlainCall(target, depth)
	}
	if shape, ok := intrinsicNames[target.Name()]; ok {
		return b.buildIntrinsicCall(caller, instr, shape)
	}
	return b.undefinedCall(caller, instr)
}

// buildPlainCall builds-or-reuses the callee's subgraph and returns it as a plain (root, ret) pair.
func (b *Builder) buildPlainCall(target *ssa.Function, depth int) callResult {
	sub := b.buildFunction(target, depth+1)
	return callResult{Category: CategoryPlain, Entry: sub.Root, Exit: sub.Ret}
}

// undefinedCall models a call to a function with no usable information: every non-constant pointer
// argument may be defined at an unknown offset, unless the client has declared external functions pure.
func (b *Builder) undefinedCall(caller *ssa.Function, instr ssa.CallInstruction) callResult {
	n := b.newNode(KindCall, instr, caller)
	if b.cfg.UndefinedArePure {
		return single2(n)
	}
	for _, arg := range lang.GetArgs(instr) {
		if !couldBeMutatedByUndefinedCall(arg) {
			continue
		}
		for _, d := range b.resolvePointerDefSites(arg, offset.Unknown) {
			n.AddDef(d)
		}
	}
	return single2(n)
}

// couldBeMutatedByUndefinedCall reports whether arg, a call argument, could plausibly be written through
// by an undefined callee: any value that is not an *ssa.Const. A Go SSA constant is never the address of a
// global (globals are *ssa.Global values), so every constant argument is skipped.
func couldBeMutatedByUndefinedCall(arg ssa.Value) bool {
	_, ok := arg.(*ssa.Const)
	if !ok {
		return true
	}
	return false
}

// buildIntrinsicCall models memcpy/memmove/memset/vastart-shaped calls: copy/set shapes emit a def on each of
// the destination pointer's points-to targets over [offset, offset+len), saturating; vastart creates a
// self-defining node serving as an allocation site. A DefSite carries no strong-update flag of its own, so
// Node.IsStrongUpdate applies the same rule as for a store: a copy into more than one target, or into a
// DynAlloc, is not a strong update.
func (b *Builder) buildIntrinsicCall(caller *ssa.Function, instr ssa.CallInstruction, shape intrinsicShape) callResult {
	args := lang.GetArgs(instr)
	if shape == shapeVastart {
		n := b.newNode(KindDynAlloc, instr, caller)
		n.Size = offset.Unknown
		n.AddDef(NewDefSite(n, 0, offset.Unknown))
		return single2(n)
	}

	n := b.newNode(KindCall, instr, caller)
	if len(args) < 2 {
		return single2(n)
	}
	dst := args[0]
	length := offset.Unknown
	if len(args) >= 3 {
		length = constIntArg(args[2])
	}

	for _, d := range b.resolvePointerDefSites(dst, length) {
		n.AddDef(d)
	}
	return single2(n)
}

// buildModeledCall materializes a Call node whose defs/uses come from a config.FunctionModelSpec: it reads
// through ReadArgs, and writes WriteArg over a length resolved from SizeArg when that argument is a
// compile-time constant.
func (b *Builder) buildModeledCall(caller *ssa.Function, instr ssa.CallInstruction, model config.FunctionModelSpec) callResult {
	n := b.newNode(KindCall, instr, caller)
	args := lang.GetArgs(instr)

	for _, idx := range model.ReadArgs {
		arg, ok := argAt(args, idx)
		if !ok {
			b.warnOnce("model-read:"+instr.String(), "missing points-to for read-arg %d of modeled call %s", idx, lang.FmtInstr(instr))
			continue
		}
		for _, d := range b.resolvePointerDefSites(arg, offset.Unknown) {
			n.AddUse(d)
		}
	}

	if model.WriteArg >= 0 {
		dst, ok := argAt(args, model.WriteArg)
		if !ok {
			b.warnOnce("model-write:"+instr.String(), "missing write-arg %d of modeled call %s", model.WriteArg, lang.FmtInstr(instr))
			return single2(n)
		}
		length := offset.Unknown
		if model.SizeArg >= 0 {
			if sizeArg, ok := argAt(args, model.SizeArg); ok {
				length = constIntArg(sizeArg)
			}
		}
		for _, d := range b.resolvePointerDefSites(dst, length) {
			n.AddDef(d)
		}
	}
	return single2(n)
}

// buildAllocationCall models a malloc/calloc/alloca/realloc-shaped external call as a DynAlloc, sized per
// config.AllocationSpec: a single size arg (ElemSizeArg < 0), or count*elemSize when both are statically
// known constants (left Unknown otherwise, even though it differs from calloc's own runtime semantics for
// a non-constant count — preserved per the ambiguity note this builder follows literally).
func (b *Builder) buildAllocationCall(caller *ssa.Function, instr ssa.CallInstruction, spec config.AllocationSpec) callResult {
	n := b.newNode(KindDynAlloc, instr, caller)
	args := lang.GetArgs(instr)

	switch {
	case spec.ElemSizeArg < 0:
		if sizeArg, ok := argAt(args, spec.CountArg); ok {
			n.Size = constIntArg(sizeArg)
		}
	default:
		countArg, ok1 := argAt(args, spec.CountArg)
		elemArg, ok2 := argAt(args, spec.ElemSizeArg)
		if ok1 && ok2 {
			count, elem := constIntArg(countArg), constIntArg(elemArg)
			if offset.IsKnown(count) && offset.IsKnown(elem) {
				n.Size = offset.Offset(int64(count) * int64(elem))
			}
		}
	}

	// realloc-shape: one size arg, not guaranteed zeroed, with the original pointer as an implicit source —
	// the old contents are recorded as uses of the source pointer's targets, and value preservation as a
	// self-copy def over the size. A malloc-shaped spec's first argument is an integer with no points-to
	// targets, so it gets neither.
	if !spec.Zeroed && spec.ElemSizeArg < 0 && len(args) > 0 {
		if src := args[0]; src != nil {
			sites := b.resolvePointerDefSites(src, n.Size)
			for _, d := range sites {
				n.AddUse(d)
			}
			if len(sites) > 0 {
				n.AddDef(NewDefSite(n, 0, n.Size))
			}
		}
	}
	return single2(n)
}

func single2(n *Node) callResult {
	return callResult{Category: CategoryPlain, Entry: n, Exit: n}
}

func argAt(args []ssa.Value, idx int) (ssa.Value, bool) {
	if idx < 0 || idx >= len(args) {
		return nil, false
	}
	return args[idx], true
}

// constIntArg extracts an integer constant from v, or offset.Unknown if v is not a compile-time constant.
func constIntArg(v ssa.Value) offset.Offset {
	c, ok := v.(*ssa.Const)
	if !ok || c.Value == nil {
		return offset.Unknown
	}
	if c.Value.Kind().String() == "" {
		return offset.Unknown
	}
	n, exact := constantInt64(c)
	if !exact {
		return offset.Unknown
	}
	return offset.Offset(n)
}

// connectCallsToGraph stitches the per-target call results into the caller's control flow: when a single
// target was produced, it is used directly, category and all; when several targets exist (a dynamic
// dispatch, e.g. an interface method call resolved to more than one concrete implementation), a synthetic
// Call/CallReturn pair brackets them so the block sees one entry and one exit. A dynamic dispatch that
// resolved to a configured thread-create primitive among its targets keeps CategoryCreateThread on the
// bracketed result, since buildConfiguredThreadCreate already wired that target's async fork edge and the
// category still needs to say so to any later pass over the graph that distinguishes fork sites from
// ordinary calls.
func connectCallsToGraph(b *Builder, caller *ssa.Function, instr ssa.CallInstruction, results []callResult) callResult {
	if len(results) == 1 {
		return results[0]
	}

	entry := b.newNode(KindCall, instr, caller)
	exit := b.newNode(KindCallReturn, instr, caller)
	category := CategoryPlain
	for _, r := range results {
		if r.Category == CategoryCreateThread {
			category = CategoryCreateThread
		}
		entry.AddSuccessor(r.Entry)
		r.Exit.AddSuccessor(exit)
	}
	return callResult{Category: category, Entry: entry, Exit: exit}
}

