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
	"go/constant"

	"github.com/mchalupa/dg/analysis/lang"
	"golang.org/x/tools/go/ssa"
)

// buildThreadCreate handles a native *ssa.Go instruction: the spawned goroutine's entry function is built as
// its own subgraph, connected to the call site by an asynchronous fork edge (n -> sub.Root) rather than a
// linear-flow one, and recorded as a forkSite so a matching join call can later be connected to its Ret. The
// call site itself still occupies its slot in the caller's block (n is both entry and exit of the linear
// flow), since spawning a thread does not block the spawning goroutine.
func (b *Builder) buildThreadCreate(caller *ssa.Function, instr *ssa.Go, depth int) callResult {
	n := b.newNode(KindCall, instr, caller)

	entry := resolveGoCallee(b, &instr.Call)
	if entry == nil {
		return single2(n)
	}

	sub := b.buildFunction(entry, depth+1)
	n.AddSuccessor(sub.Root)
	b.forks = append(b.forks, forkSite{Handle: nil, Entry: entry, Ret: sub.Ret})
	return callResult{Category: CategoryCreateThread, Entry: n, Exit: n}
}

// buildConfiguredThreadCreate handles a call to a configured thread-create primitive (pthread_create-style):
// the spawned entry function is found among the call's arguments by points-to, rather than being the callee
// itself, and the handle used to join on it is conventionally the call's first argument. Every resolved entry
// gets its own asynchronous fork edge from the call site, for the same reason buildThreadCreate does: a
// configured thread-create call may resolve to several candidate entry points through points-to ambiguity,
// and each is a thread that may actually run.
func (b *Builder) buildConfiguredThreadCreate(caller *ssa.Function, instr ssa.CallInstruction, _ *ssa.Function, depth int) callResult {
	n := b.newNode(KindCall, instr, caller)

	var handle ssa.Value
	if args := instr.Common().Args; len(args) > 0 {
		handle = args[0]
	}

	forked := false
	for _, arg := range lang.GetArgs(instr) {
		set, ok := b.pt.PointsTo(arg)
		if !ok {
			continue
		}
		for t := range set.Targets {
			entry, ok := t.Target.(*ssa.Function)
			if !ok {
				continue
			}
			sub := b.buildFunction(entry, depth+1)
			n.AddSuccessor(sub.Root)
			b.forks = append(b.forks, forkSite{Handle: handle, Entry: entry, Ret: sub.Ret})
			forked = true
		}
	}
	if !forked {
		return single2(n)
	}
	return callResult{Category: CategoryCreateThread, Entry: n, Exit: n}
}

// buildThreadJoin handles a call to a configured thread-join primitive: the call itself is built as an
// undefined call, and a joinSite keyed on the handle argument (conventionally the call's first argument) is
// recorded so matchForksAndJoins can later connect every fork whose points-to set intersects it.
func (b *Builder) buildThreadJoin(caller *ssa.Function, instr ssa.CallInstruction) callResult {
	n := b.undefinedCall(caller, instr).Entry

	var handle ssa.Value
	if args := instr.Common().Args; len(args) > 0 {
		handle = args[0]
	}
	b.joins = append(b.joins, joinSite{Handle: handle, Node: n})
	return single2(n)
}

// resolveGoCallee resolves the static or dynamic target of a go statement's call, the same way a plain call
// would, minus invoke-mode (goroutines spawned via an interface method value are resolved through the same
// points-to fallback as a dynamic function-pointer call).
func resolveGoCallee(b *Builder, common *ssa.CallCommon) *ssa.Function {
	if common.IsInvoke() {
		targets := b.resolveInterfaceCallTargets(common)
		if len(targets) > 0 {
			return targets[0]
		}
		return nil
	}
	if callee := common.StaticCallee(); callee != nil {
		return callee
	}
	set, ok := b.pt.PointsTo(common.Value)
	if !ok {
		return nil
	}
	for t := range set.Targets {
		if f, ok := t.Target.(*ssa.Function); ok {
			return f
		}
	}
	return nil
}

// matchForksAndJoins connects every recorded fork's thread-entry Ret node to every join site whose handle
// may alias the fork's handle, per the happens-after edge §4.10 requires a join to establish. A fork with no
// handle (a native go statement has none to join on explicitly) is never joined by this matching and instead
// runs detached, which is conservative for reachability but correct: nothing may assume its effects are
// visible without some other synchronization this builder does not model.
func (b *Builder) matchForksAndJoins() {
	for _, fork := range b.forks {
		if fork.Handle == nil {
			continue
		}
		for _, join := range b.joins {
			if join.Handle == nil {
				continue
			}
			if !b.pt.Intersects(fork.Handle, join.Handle) {
				continue
			}
			fork.Ret.AddSuccessor(join.Node)
		}
	}
}

// constantInt64 extracts an exact int64 value from an *ssa.Const, reporting false if the constant is not an
// integer or does not fit.
func constantInt64(c *ssa.Const) (int64, bool) {
	if c == nil || c.Value == nil {
		return 0, false
	}
	return constant.Int64Val(c.Value)
}
