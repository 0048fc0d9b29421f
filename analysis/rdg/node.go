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

// Package rdg builds the reaching-definitions graph: one node per SSA instruction of interest, connected by
// control flow, annotated with the memory def-sites and uses the instruction may affect.
package rdg

import (
	"fmt"

	"github.com/mchalupa/dg/analysis/lang"
	"github.com/mchalupa/dg/analysis/offset"
	"golang.org/x/tools/go/ssa"
)

// Kind identifies what role a node plays in the reaching-definitions graph.
type Kind int

const (
	KindAlloc Kind = iota
	KindDynAlloc
	KindStore
	KindLoad
	KindPhi
	KindCall
	KindCallReturn
	KindReturn
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "Alloc"
	case KindDynAlloc:
		return "DynAlloc"
	case KindStore:
		return "Store"
	case KindLoad:
		return "Load"
	case KindPhi:
		return "Phi"
	case KindCall:
		return "Call"
	case KindCallReturn:
		return "CallReturn"
	case KindReturn:
		return "Return"
	case KindNoop:
		return "Noop"
	default:
		return "?"
	}
}

// Node is a node of the reaching-definitions graph. It owns its outgoing-successor set, and three multisets
// of def-sites: defs (what it may write), overwrites (what it masks, used by Return nodes to hide locals from
// callers), and uses (what it may read).
type Node struct {
	id   int64
	Kind Kind

	// Instr is the SSA instruction this node was built from, or nil for a dummy node (block-join Phi,
	// Call/CallReturn brackets, function Root/Ret).
	Instr ssa.Instruction

	// Func is the function this node belongs to.
	Func *ssa.Function

	// Size is the allocation size in bytes, for Alloc/DynAlloc nodes. offset.Unknown otherwise or when the
	// size could not be determined statically.
	Size offset.Offset

	Defs       []DefSite
	Overwrites []DefSite
	Uses       []DefSite

	successors []*Node
}

// ID implements graphutil.Identifiable.
func (n *Node) ID() int64 { return n.id }

// String gives a short, human-readable label for the node, mainly useful in dumps and test failure messages.
func (n *Node) String() string {
	if n.Instr != nil {
		return fmt.Sprintf("%s%s", n.Kind, lang.FmtInstr(n.Instr))
	}
	return n.Kind.String()
}

// AddSuccessor records an edge from n to s. It is idempotent; self-loops are rejected (the builder never
// needs to introduce one, and allowing them would break the cycle-freeness BFS relies on for PHI predecessor
// counting).
func (n *Node) AddSuccessor(s *Node) {
	if s == n {
		panic("rdg: attempted to add a self-loop successor")
	}
	for _, existing := range n.successors {
		if existing == s {
			return
		}
	}
	n.successors = append(n.successors, s)
}

// Successors returns n's outgoing edges, in insertion order.
func (n *Node) Successors() []*Node {
	return n.successors
}

// AddDef appends a def-site to n's defs.
func (n *Node) AddDef(d DefSite) { n.Defs = append(n.Defs, d) }

// AddOverwrite appends a def-site to n's overwrites.
func (n *Node) AddOverwrite(d DefSite) { n.Overwrites = append(n.Overwrites, d) }

// AddUse appends a def-site to n's uses.
func (n *Node) AddUse(d DefSite) { n.Uses = append(n.Uses, d) }

// IsStrongUpdate reports whether n's own Defs qualify as a strong update under the rule of §4.5: it produced
// exactly one def-site, with a concrete offset and length, targeting something other than a DynAlloc.
func (n *Node) IsStrongUpdate() bool {
	return IsStrongUpdate(n.Defs)
}
