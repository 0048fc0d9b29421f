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

// Const wraps a literal integer or boolean constant so that values of different Go types that happen to
// share a bit pattern are not conflated: equality and ordering of Consts is only meaningful between Consts
// of the same BitWidth.
type Const struct {
	Value    int64
	Unsigned bool
	BitWidth int
}

const allRelations Relations = (1 << numRelations) - 1

// Store maps program values (ssa.Value, supplied by callers as an opaque, comparable key) and Consts to
// Buckets, and buckets to the set of values mapped to them. It is the public surface of the value-relations
// analysis; Graph is its implementation detail.
type Store struct {
	graph        *Graph
	valToBucket  map[any]Bucket
	bucketToVals map[Bucket]map[any]bool
}

// NewStore returns an empty value-relations store.
func NewStore() *Store {
	return &Store{
		graph:        NewGraph(),
		valToBucket:  map[any]Bucket{},
		bucketToVals: map[Bucket]map[any]bool{},
	}
}

// lookup returns the resolved bucket for v without allocating one.
func (s *Store) lookup(v any) (Bucket, bool) {
	b, ok := s.valToBucket[v]
	if !ok {
		return 0, false
	}
	return s.graph.Resolve(b), true
}

// relateConsts returns the relation set known to hold between a and b purely from their literal values.
// Consts of different bit widths are incomparable (returns the empty set), mirroring how a 1-bit value
// compared against a wider value carries no useful relation.
func relateConsts(a, b Const) Relations {
	if a.BitWidth != b.BitWidth {
		return 0
	}
	if a.Value == b.Value {
		return Single(EQ)
	}
	var rs Relations
	if a.Value < b.Value {
		rs = rs.Add(SLT)
	} else {
		rs = rs.Add(SGT)
	}
	au, bu := uint64(a.Value), uint64(b.Value)
	if a.BitWidth > 0 && a.BitWidth < 64 {
		mask := uint64(1)<<uint(a.BitWidth) - 1
		au &= mask
		bu &= mask
	}
	switch {
	case au < bu:
		rs = rs.Add(ULT)
	case au > bu:
		rs = rs.Add(UGT)
	}
	return rs
}

// constOf returns the value of a representative Const in b's equal-set, if any.
func (s *Store) constOf(b Bucket) (int64, bool) {
	for v := range s.bucketToVals[s.graph.Resolve(b)] {
		if c, ok := v.(Const); ok {
			return c.Value, true
		}
	}
	return 0, false
}

// Get returns the bucket for v, allocating a fresh one if v has not been seen before. When v is a new Const,
// the store scans existing constant-bearing buckets and inserts the relations implied by relateConsts, so
// constants form a densely related lattice as they are introduced.
func (s *Store) Get(v any) Bucket {
	if b, ok := s.lookup(v); ok {
		return b
	}
	b := s.graph.NewBucket()
	s.valToBucket[v] = b
	s.bucketToVals[b] = map[any]bool{v: true}

	if c, ok := v.(Const); ok {
		for other, vals := range s.bucketToVals {
			if other == b {
				continue
			}
			for ov := range vals {
				oc, ok2 := ov.(Const)
				if !ok2 {
					continue
				}
				rs := relateConsts(c, oc)
				for r := Relation(0); r < numRelations; r++ {
					if rs.Has(r) {
						s.graph.AddRelation(b, r, other)
					}
				}
				break
			}
		}
	}
	return b
}

// absorb folds removed's value bindings into survivor after a merge.
func (s *Store) absorb(survivor, removed Bucket) {
	if survivor == removed {
		return
	}
	for v := range s.bucketToVals[removed] {
		s.valToBucket[v] = survivor
		if s.bucketToVals[survivor] == nil {
			s.bucketToVals[survivor] = map[any]bool{}
		}
		s.bucketToVals[survivor][v] = true
	}
	delete(s.bucketToVals, removed)
}

// Set ensures the relation v—r→w holds, allocating buckets for v and w as needed. It returns whether the
// store changed. An EQ relation between distinct buckets merges them.
func (s *Store) Set(v any, r Relation, w any) bool {
	vb := s.Get(v)
	wb := s.Get(w)
	changed, survivor, merged := s.graph.AddRelation(vb, r, wb)
	if merged {
		removed := vb
		if survivor == vb {
			removed = wb
		}
		s.absorb(survivor, removed)
	}
	return changed
}

// relationBetweenBuckets returns the full relation set known between two already-resolved buckets.
func (s *Store) relationBetweenBuckets(a, b Bucket) Relations {
	a, b = s.graph.Resolve(a), s.graph.Resolve(b)
	if a == b {
		return AddImplied(Single(EQ))
	}
	related := s.graph.GetRelated(a, allRelations, false)
	return related[b]
}

// boundRelationToConstant returns the relation set known to hold between bucket b and constant c, derived
// from b's tightest known SLE/SGE constant bounds composed with how that bound constant itself compares to c.
func (s *Store) boundRelationToConstant(b Bucket, c Const) Relations {
	var out Relations
	if _, uval, rel, ok := s.graph.GetBound(b, Single(SLE), s.constOf); ok {
		out = out.Union(Compose(Single(rel), relateConsts(Const{Value: uval, BitWidth: c.BitWidth}, c)))
	}
	if _, lval, rel, ok := s.graph.GetBound(b, Single(SGE), s.constOf); ok {
		out = out.Union(Compose(Single(rel), relateConsts(Const{Value: lval, BitWidth: c.BitWidth}, c)))
	}
	return AddImplied(out)
}

// Between returns the full relation set known between two operands, each independently a program value or a
// Const: if both are present in the store, the graph is consulted directly; if one is an absent constant,
// the other side's constant bound is composed against it; if both are absent constants, they are compared
// directly; otherwise the result is the empty set.
func (s *Store) Between(lhs, rhs any) Relations {
	lc, lIsConst := lhs.(Const)
	rc, rIsConst := rhs.(Const)
	lb, lHas := s.lookup(lhs)
	rb, rHas := s.lookup(rhs)

	switch {
	case lHas && rHas:
		return s.relationBetweenBuckets(lb, rb)
	case lHas && rIsConst:
		return s.boundRelationToConstant(lb, rc)
	case rHas && lIsConst:
		return Invert(s.boundRelationToConstant(rb, lc))
	case lIsConst && rIsConst:
		return AddImplied(relateConsts(lc, rc))
	default:
		return 0
	}
}

// GetBound returns the tightest constant related to v under filter (intended: Single(SLE) or Single(SGE)),
// paired with the relation actually holding between v and that constant.
func (s *Store) GetBound(v any, filter Relations) (Const, Relation, bool) {
	b, ok := s.lookup(v)
	if !ok {
		return Const{}, 0, false
	}
	_, val, rel, found := s.graph.GetBound(b, filter, s.constOf)
	if !found {
		return Const{}, 0, false
	}
	return Const{Value: val}, rel, true
}

// GetLesserEqualBound returns the tightest constant c with c ≤ v under the store's current knowledge. A
// relation v—SGE→c (v ≥ c) is what states this, so the bound is found by searching v's SGE-labeled edges,
// not its SLE ones.
func (s *Store) GetLesserEqualBound(v any) (Const, bool) {
	c, _, ok := s.GetBound(v, Single(SGE))
	return c, ok
}

// GetGreaterEqualBound returns the tightest constant c with c ≥ v under the store's current knowledge. A
// relation v—SLE→c (v ≤ c) is what states this, so the bound is found by searching v's SLE-labeled edges,
// not its SGE ones.
func (s *Store) GetGreaterEqualBound(v any) (Const, bool) {
	c, _, ok := s.GetBound(v, Single(SLE))
	return c, ok
}

// GetEqual returns the set of values known equal to v (including v itself), or {v} if v has not been seen.
func (s *Store) GetEqual(v any) map[any]bool {
	b, ok := s.lookup(v)
	if !ok {
		return map[any]bool{v: true}
	}
	return s.bucketToVals[b]
}

// GetValsByPtr returns the equal-set of the bucket v's bucket points to, if v has a known PT edge.
func (s *Store) GetValsByPtr(v any) (map[any]bool, bool) {
	b, ok := s.lookup(v)
	if !ok {
		return nil, false
	}
	direct := s.graph.GetRelated(b, Single(PT), true)
	for dst, rs := range direct {
		if rs.Has(PT) {
			return s.bucketToVals[dst], true
		}
	}
	return nil, false
}

// NewPlaceholder allocates a bucket bound to no program values, for use as an abstract pointee.
func (s *Store) NewPlaceholder() Bucket {
	b := s.graph.NewBucket()
	s.bucketToVals[b] = map[any]bool{}
	return b
}

// ErasePlaceholderBucket removes h from the store. It is only legal when h's equal-set is empty.
func (s *Store) ErasePlaceholderBucket(h Bucket) bool {
	h = s.graph.Resolve(h)
	if len(s.bucketToVals[h]) != 0 {
		return false
	}
	s.graph.Erase(h)
	delete(s.bucketToVals, h)
	return true
}

// GetCorresponding finds the best local bucket matching hOther, a bucket belonging to other. If hOther has
// program values, the local buckets of those values are fused (by EQ) and the result returned. Otherwise
// hOther is a placeholder: if it has an incoming PT edge, a fresh local placeholder is created hanging off
// the local correspondent of the source of that edge; failing that, a fresh, unconnected placeholder is
// returned. Returns (Bucket{}, false) only when fusing same-value buckets would contradict an existing local
// relation.
func (s *Store) GetCorresponding(other *Store, hOther Bucket) (Bucket, bool) {
	hOther = other.graph.Resolve(hOther)
	equalSet := other.bucketToVals[hOther]

	if len(equalSet) > 0 {
		var localBuckets []Bucket
		seen := map[Bucket]bool{}
		var fallback any
		for val := range equalSet {
			fallback = val
			if lb, ok := s.lookup(val); ok && !seen[lb] {
				seen[lb] = true
				localBuckets = append(localBuckets, lb)
			}
		}
		if len(localBuckets) == 0 {
			return s.Get(fallback), true
		}
		survivor := localBuckets[0]
		for _, lb := range localBuckets[1:] {
			if survivor == lb {
				continue
			}
			if s.graph.HaveConflictingRelation(survivor, EQ, lb) {
				return Bucket(0), false
			}
			_, newSurvivor, merged := s.graph.AddRelation(survivor, EQ, lb)
			if merged {
				removed := survivor
				if newSurvivor == survivor {
					removed = lb
				}
				s.absorb(newSurvivor, removed)
				survivor = newSurvivor
			}
		}
		return survivor, true
	}

	direct := other.graph.GetRelated(hOther, Single(PF), true)
	for srcOther, rs := range direct {
		if !rs.Has(PF) {
			continue
		}
		localSrc, ok := s.GetCorresponding(other, srcOther)
		if !ok {
			continue
		}
		newLocal := s.NewPlaceholder()
		s.graph.AddRelation(localSrc, PT, newLocal)
		return newLocal, true
	}
	return s.NewPlaceholder(), true
}

// Merge applies every edge of other whose label intersects filter to the local store, via GetCorresponding.
// EQ edges whose target is a placeholder (empty equal-set) in other are skipped, since fusing them locally
// would merge unrelated placeholders spuriously. Returns whether every edge applied without conflict; edges
// that conflict are skipped, and the remainder still get applied.
func (s *Store) Merge(other *Store, filter Relations) bool {
	allOK := true
	for i := range other.graph.entries {
		a := Bucket(i)
		if other.graph.entries[i].forward != noForward || other.graph.entries[i].erased {
			continue
		}
		for dst, rs := range other.graph.entries[i].edges {
			restricted := rs & filter
			if restricted.Empty() {
				continue
			}
			if restricted.Has(EQ) && len(other.bucketToVals[other.graph.Resolve(dst)]) == 0 {
				restricted = restricted.Remove(EQ)
				if restricted.Empty() {
					continue
				}
			}
			localA, okA := s.GetCorresponding(other, a)
			localB, okB := s.GetCorresponding(other, dst)
			if !okA || !okB {
				allOK = false
				continue
			}
			for r := Relation(0); r < numRelations; r++ {
				if !restricted.Has(r) {
					continue
				}
				if s.graph.HaveConflictingRelation(localA, r, localB) {
					allOK = false
					continue
				}
				_, survivor, merged := s.graph.AddRelation(localA, r, localB)
				if merged {
					removed := localA
					if survivor == localA {
						removed = localB
					}
					s.absorb(survivor, removed)
					localA, localB = survivor, survivor
				}
			}
		}
	}
	return allOK
}
