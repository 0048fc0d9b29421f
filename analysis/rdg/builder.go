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
	"go/token"

	"github.com/mchalupa/dg/analysis/config"
	"github.com/mchalupa/dg/analysis/lang"
	"github.com/mchalupa/dg/analysis/offset"
	"github.com/mchalupa/dg/internal/formatutil"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// forkSite records a thread-creation call: the thread-handle operand (if any) and the entry function of the
// spawned thread, pending matching against a joinSite by §4.10.
type forkSite struct {
	Handle ssa.Value
	Entry  *ssa.Function
	Ret    *Node
}

// joinSite records a thread-join call: the handle operand it joins on and the node representing the join.
type joinSite struct {
	Handle ssa.Value
	Node   *Node
}

// Builder holds the mutable state threaded through one Build call: the node/subgraph arenas, and the
// process-wide warning dedup cache, kept as fields rather than package globals so concurrent builds against
// different entry points in the same *ssa.Program do not interfere with each other.
type Builder struct {
	prog *ssa.Program
	cfg  *config.Config
	log  *config.LogGroup
	pt   PointsTo

	nodeSeq   int64
	subgraphs map[*ssa.Function]*Subgraph
	nodes     []*Node

	// nodeForValue maps an allocation-producing ssa.Value (an *ssa.Alloc or *ssa.Global) to its canonical
	// node, so a points-to target can be turned into a DefSite target.
	nodeForValue map[ssa.Value]*Node

	// allocsByFunc lists, per function, the non-heap Alloc nodes built for it, used to mask locals at Return.
	allocsByFunc map[*ssa.Function][]*Node

	// unknownMem is the canonical node standing in for UnknownMemory as a DefSite target.
	unknownMem *Node

	forks []forkSite
	joins []joinSite

	warnedOnce map[string]bool
}

func newBuilder(prog *ssa.Program, cfg *config.Config, pt PointsTo) *Builder {
	b := &Builder{
		prog:         prog,
		cfg:          cfg,
		log:          config.NewLogGroup(cfg),
		pt:           pt,
		subgraphs:    map[*ssa.Function]*Subgraph{},
		nodeForValue: map[ssa.Value]*Node{},
		allocsByFunc: map[*ssa.Function][]*Node{},
		warnedOnce:   map[string]bool{},
	}
	b.unknownMem = b.newNode(KindNoop, nil, nil)
	return b
}

// Build constructs the reaching-definitions graph for the entry function configured in cfg (falling back to
// the program's main function if none is configured), prepends the globals of every package, and matches
// fork/join sites. It returns the root node of the resulting graph.
func Build(prog *ssa.Program, cfg *config.Config, pt PointsTo) (*Node, *Builder, error) {
	b := newBuilder(prog, cfg, pt)

	entryFn, err := b.findEntryFunction()
	if err != nil {
		return nil, nil, err
	}

	entrySub := b.buildFunction(entryFn, 0)
	root := b.prependGlobals(entryFn, entrySub)
	b.matchForksAndJoins()

	return root, b, nil
}

// Nodes returns every node the build produced, in creation order. Used by the CLI driver and tests to count
// nodes, and by internal/graphutil to build a generic view of the graph.
func (b *Builder) Nodes() []*Node { return b.nodes }

func (b *Builder) newNode(kind Kind, instr ssa.Instruction, fn *ssa.Function) *Node {
	b.nodeSeq++
	n := &Node{id: b.nodeSeq, Kind: kind, Instr: instr, Func: fn, Size: offset.Unknown}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *Builder) warnOnce(key, format string, args ...any) {
	if b.warnedOnce[key] {
		return
	}
	b.warnedOnce[key] = true
	b.log.Warnf(format, args...)
}

// codeIdentifierOf builds the config.CodeIdentifier naming f, the same way the client would refer to it in a
// config file: package path plus method name, with a receiver type string when f is a method.
func codeIdentifierOf(f *ssa.Function) config.CodeIdentifier {
	cid := config.CodeIdentifier{Method: f.Name()}
	if f.Pkg != nil && f.Pkg.Pkg != nil {
		cid.Package = f.Pkg.Pkg.Path()
	}
	if f.Signature != nil && f.Signature.Recv() != nil {
		cid.Receiver = f.Signature.Recv().Type().String()
	}
	return cid
}

// withinPkgFilter reports whether fn's package matches the configured package filter. A function with no
// package (a synthetic wrapper, e.g.) is always considered within the filter, since it has nothing of its
// own to exclude and excluding it would only make an otherwise-plain call look opaque.
func (b *Builder) withinPkgFilter(fn *ssa.Function) bool {
	if fn.Pkg == nil || fn.Pkg.Pkg == nil {
		return true
	}
	return b.cfg.MatchPkgFilter(fn.Pkg.Pkg.Path())
}

func (b *Builder) findEntryFunction() (*ssa.Function, error) {
	cid := b.cfg.EntryFunction
	fallbackToMain := cid == (config.CodeIdentifier{})

	for f := range ssautil.AllFunctions(b.prog) {
		if f.Pkg == nil || lang.IsExternal(f) {
			continue
		}
		if fallbackToMain {
			if f.Name() == "main" && f.Pkg.Pkg.Name() == "main" {
				return f, nil
			}
			continue
		}
		if cid.Matches(codeIdentifierOf(f)) {
			return f, nil
		}
	}
	return nil, ErrNoEntryFunction
}

// buildFunction builds (or returns the memoized) Subgraph for fn. The Root/Ret pair is created and memoized
// before the body is built, so a call to fn from within its own body resolves to the same Subgraph instead
// of recursing forever.
func (b *Builder) buildFunction(fn *ssa.Function, depth int) *Subgraph {
	if sub, ok := b.subgraphs[fn]; ok {
		return sub
	}

	sub := &Subgraph{
		Func: fn,
		Root: b.newNode(KindNoop, nil, fn),
		Ret:  b.newNode(KindNoop, nil, fn),
	}
	b.subgraphs[fn] = sub

	if lang.IsExternal(fn) || b.cfg.ExceedsMaxCallDepth(depth) || !b.withinPkgFilter(fn) {
		if b.cfg.ExceedsMaxCallDepth(depth) {
			b.warnOnce("depth:"+fn.String(), "max call depth exceeded building %s, treating as opaque", formatutil.SanitizeRepr(fn))
		} else if !b.withinPkgFilter(fn) {
			b.warnOnce("pkgfilter:"+fn.String(), "%s is outside the configured package filter, treating as opaque", formatutil.SanitizeRepr(fn))
		}
		sub.Root.AddSuccessor(sub.Ret)
		return sub
	}

	blocks := make([]blockNodes, len(fn.Blocks))
	for i, blk := range fn.Blocks {
		blocks[i] = b.buildBlock(fn, blk, depth)
	}

	if len(blocks) > 0 {
		sub.Root.AddSuccessor(blocks[0].first)
	} else {
		sub.Root.AddSuccessor(sub.Ret)
	}

	for i, blk := range fn.Blocks {
		bn := blocks[i]
		if bn.last.Kind == KindReturn {
			bn.last.AddSuccessor(sub.Ret)
		}
		for _, succ := range blk.Succs {
			target := resolveBlockEntry(blocks, succ.Index)
			if target != nil && target != bn.last {
				bn.last.AddSuccessor(target)
			}
		}
	}

	return sub
}

// blockNodes is the (first, last) pair §4.7 asks the per-block builder to produce.
type blockNodes struct {
	first *Node
	last  *Node
}

// resolveBlockEntry returns the entry (join-Phi) node for the i'th basic block.
func resolveBlockEntry(blocks []blockNodes, i int) *Node {
	if i < 0 || i >= len(blocks) {
		return nil
	}
	return blocks[i].first
}

// buildBlock builds the nodes for one basic block, chaining them in instruction order. The block always
// starts with a fresh Phi node acting as the control-flow join placeholder, even when the block has no
// actual *ssa.Phi instructions; that placeholder is what predecessor blocks connect to.
func (b *Builder) buildBlock(fn *ssa.Function, blk *ssa.BasicBlock, depth int) blockNodes {
	join := b.newNode(KindPhi, nil, fn)
	first, last := join, join

	for _, instr := range blk.Instrs {
		next := b.buildInstruction(fn, instr, depth)
		if next == nil {
			continue
		}
		last.AddSuccessor(next.first)
		last = next.last
	}

	return blockNodes{first: first, last: last}
}

// instrNodes is the (first, last) pair produced by a single instruction, which may expand into several
// nodes (a call site can bracket several call targets with synthetic Call/CallReturn nodes).
type instrNodes struct {
	first *Node
	last  *Node
}

func single(n *Node) instrNodes { return instrNodes{first: n, last: n} }

//gocyclo:ignore
func (b *Builder) buildInstruction(fn *ssa.Function, instr ssa.Instruction, depth int) *instrNodes {
	switch v := instr.(type) {
	case *ssa.Alloc:
		kind := KindAlloc
		if v.Heap {
			kind = KindDynAlloc
		}
		n := b.newNode(kind, v, fn)
		n.Size = allocSizeOf(v)
		b.nodeForValue[v] = n
		if !v.Heap {
			b.allocsByFunc[fn] = append(b.allocsByFunc[fn], n)
		}
		out := single(n)
		return &out

	case *ssa.Store:
		n := b.newNode(KindStore, v, fn)
		b.attachStoreDefs(n, v)
		out := single(n)
		return &out

	case *ssa.UnOp:
		if v.Op == token.MUL {
			n := b.newNode(KindLoad, v, fn)
			b.attachLoadUses(n, v.X)
			out := single(n)
			return &out
		}
		return nil

	case *ssa.Return:
		n := b.newNode(KindReturn, v, fn)
		b.attachReturnOverwrites(n, fn)
		out := single(n)
		return &out

	case ssa.CallInstruction:
		res := b.buildCall(fn, v, depth)
		out := instrNodes{first: res.Entry, last: res.Exit}
		return &out

	default:
		return nil
	}
}

// allocSizeOf returns the byte size of an allocation from its static type, or offset.Unknown if it cannot
// be determined.
func allocSizeOf(alloc *ssa.Alloc) offset.Offset {
	return staticSizeOf(alloc.Type())
}
