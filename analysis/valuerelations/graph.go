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

package valuerelations

// Bucket is an opaque identity for an equivalence class of values. It is stable under merges into it
// (resolved through path-compressed forwarding), and invalidated if merged away.
type Bucket int64

const noForward Bucket = -1

type bucketEntry struct {
	forward Bucket // noForward unless this entry has been merged into another
	erased  bool
	edges   map[Bucket]Relations
}

// Graph is the relation graph: buckets plus directed, labeled edges between them, closed under implication
// and kept conflict-free by construction.
type Graph struct {
	entries []bucketEntry
}

// NewGraph returns an empty relation graph.
func NewGraph() *Graph {
	return &Graph{}
}

// NewBucket allocates a fresh bucket with no relations.
func (g *Graph) NewBucket() Bucket {
	id := Bucket(len(g.entries))
	g.entries = append(g.entries, bucketEntry{forward: noForward, edges: map[Bucket]Relations{}})
	return id
}

// Resolve follows forwarding pointers left by past merges, compressing the path as it goes, and returns the
// current surviving bucket for id.
func (g *Graph) Resolve(id Bucket) Bucket {
	root := id
	for g.entries[root].forward != noForward {
		root = g.entries[root].forward
	}
	for g.entries[id].forward != noForward {
		next := g.entries[id].forward
		g.entries[id].forward = root
		id = next
	}
	return root
}

// HaveConflictingRelation reports whether adding a—r→b would contradict a relation already recorded between
// the (resolved) buckets a and b.
func (g *Graph) HaveConflictingRelation(a Bucket, r Relation, b Bucket) bool {
	a, b = g.Resolve(a), g.Resolve(b)
	existing := g.entries[a].edges[b]
	return Conflicts(existing, r)
}

// AddRelation inserts a—r→b (and its implied closure, and every inverse edge), merging a and b when r is (or
// implies) EQ and they are distinct. It returns whether the graph changed, the surviving bucket identity
// (meaningful even when no merge happened: it is Resolve(a)), and whether a merge occurred.
func (g *Graph) AddRelation(a Bucket, r Relation, b Bucket) (changed bool, survivor Bucket, merged bool) {
	a, b = g.Resolve(a), g.Resolve(b)
	closure := AddImplied(Single(r))

	if g.HaveConflictingRelation(a, r, b) {
		return false, a, false
	}

	if closure.Has(EQ) && a != b {
		survivor, removed := a, b
		if removed < survivor {
			survivor, removed = removed, survivor
		}
		g.mergeInto(survivor, removed)
		return true, survivor, true
	}

	changed = g.addEdge(a, closure, b)
	changed = g.addEdge(b, Invert(closure), a) || changed
	return changed, a, false
}

// addEdge unions rs into the edge a->b, returning whether the edge set grew.
func (g *Graph) addEdge(a Bucket, rs Relations, b Bucket) bool {
	before := g.entries[a].edges[b]
	after := before.Union(rs)
	if after == before {
		return false
	}
	g.entries[a].edges[b] = after
	return true
}

// mergeInto retargets every edge touching removed onto survivor, then tombstones removed.
func (g *Graph) mergeInto(survivor, removed Bucket) {
	for dst, rs := range g.entries[removed].edges {
		dst = g.Resolve(dst)
		if dst == survivor {
			continue
		}
		g.addEdge(survivor, rs, dst)
		g.addEdge(dst, Invert(rs), survivor)
	}
	for id := range g.entries {
		bid := Bucket(id)
		if bid == removed || bid == survivor {
			continue
		}
		if rs, ok := g.entries[bid].edges[removed]; ok {
			g.addEdge(bid, rs, survivor)
			g.addEdge(survivor, Invert(rs), bid)
			delete(g.entries[bid].edges, removed)
		}
	}
	delete(g.entries[survivor].edges, removed)
	g.entries[removed].edges = nil
	g.entries[removed].forward = survivor
}

// GetRelated returns, for every bucket reachable from h via edges whose label intersects filter, the union
// (over all paths) of the composed relation between h and that bucket. When directOnly is true, only h's
// immediate neighbors under filter are considered, with their direct edge label (no composition).
func (g *Graph) GetRelated(h Bucket, filter Relations, directOnly bool) map[Bucket]Relations {
	h = g.Resolve(h)
	result := map[Bucket]Relations{}

	if directOnly {
		for dst, rs := range g.entries[h].edges {
			restricted := rs & filter
			if restricted.Empty() {
				continue
			}
			dst = g.Resolve(dst)
			result[dst] = result[dst].Union(restricted)
		}
		return result
	}

	type frontierEntry struct {
		bucket Bucket
		rel    Relations
	}
	visited := map[Bucket]Relations{}
	queue := []frontierEntry{{h, Single(EQ)}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dst, rs := range g.entries[cur.bucket].edges {
			dst = g.Resolve(dst)
			restricted := rs & filter
			if restricted.Empty() {
				continue
			}
			composed := Compose(cur.rel, restricted)
			if composed.Empty() {
				continue
			}
			prev := visited[dst]
			merged := prev.Union(composed)
			if merged == prev && dst != h {
				continue
			}
			visited[dst] = merged
			if dst != h {
				result[dst] = merged
			}
			queue = append(queue, frontierEntry{dst, composed})
		}
	}
	return result
}

// Erase removes h from the graph entirely: every edge touching it is dropped. Callers must already have
// dropped any value bindings to h (it is only legal to erase placeholder buckets with an empty equal-set).
func (g *Graph) Erase(h Bucket) {
	h = g.Resolve(h)
	for dst := range g.entries[h].edges {
		delete(g.entries[dst].edges, h)
	}
	g.entries[h].edges = nil
	g.entries[h].erased = true
}

// GetBound searches the buckets related to h under filter for those whose constant predicate holds (isConst
// reports the bucket's best-known int64 constant, if any), and returns the tightest one. An edge h—SLE→c
// states h ≤ c, so c is an upper bound on h and the tightest such c is the least one; an edge h—SGE→c states
// h ≥ c, so c is a lower bound and the tightest such c is the greatest one. Ties are broken by signed
// comparison then bucket identity.
func (g *Graph) GetBound(h Bucket, filter Relations, isConst func(Bucket) (int64, bool)) (Bucket, int64, Relation, bool) {
	h = g.Resolve(h)
	related := g.GetRelated(h, filter, false)
	tighterUnderSLE := filter.Has(SLE) && !filter.Has(SGE)

	var bestBucket Bucket
	var bestVal int64
	var bestRel Relation
	found := false

	for b, rs := range related {
		val, ok := isConst(b)
		if !ok {
			continue
		}
		rel := EQ
		switch {
		case rs.Has(SLE):
			rel = SLE
		case rs.Has(SGE):
			rel = SGE
		default:
			continue
		}
		if !found {
			bestBucket, bestVal, bestRel, found = b, val, rel, true
			continue
		}
		if tighterUnderSLE {
			if val < bestVal || (val == bestVal && b < bestBucket) {
				bestBucket, bestVal, bestRel = b, val, rel
			}
		} else {
			if val > bestVal || (val == bestVal && b < bestBucket) {
				bestBucket, bestVal, bestRel = b, val, rel
			}
		}
	}
	return bestBucket, bestVal, bestRel, found
}
