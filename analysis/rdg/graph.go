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

import "github.com/mchalupa/dg/internal/graphutil"

// AsGraph exposes the built graph as a graphutil.RDGraph, the generic view slicers, reachability queries and
// the cycle finder all operate over, instead of duplicating that machinery against *Node directly.
func (b *Builder) AsGraph() graphutil.RDGraph {
	nodes := make([]graphutil.Identifiable, len(b.nodes))
	for i, n := range b.nodes {
		nodes[i] = n
	}
	return graphutil.NewGraph(nodes, func(id graphutil.Identifiable) []graphutil.Identifiable {
		n := id.(*Node)
		succs := n.Successors()
		out := make([]graphutil.Identifiable, len(succs))
		for i, s := range succs {
			out[i] = s
		}
		return out
	})
}

// Cycles returns every elementary cycle in the built graph, as chains of node IDs. A non-empty result means
// the recursion/looping the builder performs (interprocedural calls, loop back-edges) produced a graph that
// is not a DAG, which is expected — reaching-definitions graphs over looping programs always have cycles —
// but is useful for a client wanting to know where fixpoint iteration, rather than a single topological
// pass, is required to propagate reaching definitions soundly.
func (b *Builder) Cycles() [][]int64 {
	return graphutil.FindAllElementaryCycles(b.AsGraph())
}
