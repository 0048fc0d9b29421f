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

package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
)

// Identifiable is anything that can serve as a node in an RDGraph: a stable int64 identity. RD nodes and
// value-relations buckets both satisfy this trivially (their arena index).
type Identifiable interface {
	ID() int64
}

// RDGraph is an abstraction over any directed graph of Identifiable nodes, built to work with existing
// graph libraries. It implements graph.Iterator and Gonum's graph.Graph, the way CGraph did for
// *callgraph.Graph in the teacher, but over an arbitrary node/successor relation so it can back the
// reaching-definitions graph and the value-relations graph alike.
type RDGraph struct {
	// order is one more than the largest node ID: graph.Iterator vertices are numbered 0..order-1, and node
	// IDs are used as vertex numbers directly.
	order int

	// IDMap maps from node IDs to wrapped nodes.
	IDMap map[int64]RDNodeWrapper

	// Keys are all the node IDs.
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y].
	Edges map[int64]map[int64]bool
}

// NewGraph builds an RDGraph from an explicit node list and a successor function. Node ids are taken from
// each node's ID() method.
func NewGraph(nodes []Identifiable, succs func(Identifiable) []Identifiable) RDGraph {
	n := len(nodes)
	idmap := make(map[int64]RDNodeWrapper, n)
	edges := make(map[int64]map[int64]bool, n)
	keys := make([]int64, n)

	maxID := int64(-1)
	for i, node := range nodes {
		keys[i] = node.ID()
		idmap[node.ID()] = RDNodeWrapper{node}
		if node.ID() > maxID {
			maxID = node.ID()
		}
	}
	for _, node := range nodes {
		edges[node.ID()] = map[int64]bool{}
		for _, s := range succs(node) {
			edges[node.ID()][s.ID()] = true
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return RDGraph{
		order: int(maxID + 1),
		IDMap: idmap,
		Edges: edges,
		Keys:  keys,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges
// that have both the origin and destination nodes in the include nodes are kept in the resulting graph.
func Subgraph(original RDGraph, include []int64) RDGraph {
	idmap := make(map[int64]RDNodeWrapper, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return RDGraph{
		order: original.Order(),
		IDMap: original.IDMap,
		Edges: edges,
		Keys:  keys,
	}
}

// Order implements the order of the graph.Iterator interface for RDGraph.
func (c RDGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for RDGraph.
func (c RDGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface.
func (c RDGraph) Node(v int) graph.Node {
	return c.IDMap[int64(v)]
}

// Nodes returns the set of nodes in the graph.
func (c RDGraph) Nodes() graph.Nodes {
	keys := make([]int64, len(c.IDMap))

	i := 0
	for k := range c.IDMap {
		keys[i] = k
		i++
	}
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   0,
	}
}

// From returns the set of nodes reachable from the id.
func (c RDGraph) From(id int64) graph.Nodes {
	var keys []int64

	for out := range c.Edges[id] {
		keys = append(keys, out)
	}
	return &NodeSet{
		nodes: c.IDMap,
		ids:   keys,
		cur:   0,
	}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers.
func (c RDGraph) HasEdgeBetween(xid, yid int64) bool {
	xe := c.Edges[xid]
	ye := c.Edges[yid]
	return xe[yid] || ye[xid]
}

// Edge returns the edge between the two identifiers (nil if none exists).
func (c RDGraph) Edge(uid, vid int64) graph.Edge {
	ue := c.Edges[uid]
	if ue != nil {
		if ue[vid] {
			return RDEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// RDNodeWrapper is a wrapper around an Identifiable that implements the graph.Node interface.
type RDNodeWrapper struct {
	Node Identifiable
}

// ID returns the id of the node.
func (n RDNodeWrapper) ID() int64 {
	return n.Node.ID()
}

func (n RDNodeWrapper) String() string {
	if n.Node == nil {
		return ""
	}
	return fmtIdentifiable(n.Node)
}

func fmtIdentifiable(n Identifiable) string {
	type stringer interface{ String() string }
	if s, ok := n.(stringer); ok {
		return s.String()
	}
	return ""
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes.
type NodeSet struct {
	// nodes is the set of nodes in the iterator.
	nodes map[int64]RDNodeWrapper

	// ids is the set of node ids in the iterator.
	// invariant: len(ids) = len(nodes)
	ids []int64

	// cur is the current index of the iterator. The current node is nodes[ids[cur]].
	// invariant: 0 <= cur < len(nodes)
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the length of the node set.
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset resets the id of the current node in the set.
func (ns *NodeSet) Reset() {
	ns.cur = 0
}

// Node returns the current node in the set.
func (ns *NodeSet) Node() graph.Node {
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// RDEdge implements the graph.Edge interface.
type RDEdge struct {
	from RDNodeWrapper
	to   RDNodeWrapper
}

// From returns the origin of the edge.
func (e RDEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge.
func (e RDEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge.
func (e RDEdge) ReversedEdge() graph.Edge {
	return RDEdge{from: e.to, to: e.from}
}
