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

import "testing"

func TestAddRelationClosureAndInverse(t *testing.T) {
	g := NewGraph()
	a := g.NewBucket()
	b := g.NewBucket()

	changed, _, merged := g.AddRelation(a, SLT, b)
	if !changed || merged {
		t.Fatalf("expected a non-merging change, got changed=%v merged=%v", changed, merged)
	}
	if !g.entries[a].edges[b].Has(SLT) || !g.entries[a].edges[b].Has(SLE) {
		t.Errorf("a->b should carry SLT and its implied SLE")
	}
	if !g.entries[b].edges[a].Has(SGT) || !g.entries[b].edges[a].Has(SGE) {
		t.Errorf("b->a should carry the inverse SGT/SGE")
	}
}

func TestAddRelationEQMerges(t *testing.T) {
	g := NewGraph()
	a := g.NewBucket()
	b := g.NewBucket()
	c := g.NewBucket()
	g.AddRelation(a, SLT, c)

	changed, survivor, merged := g.AddRelation(a, EQ, b)
	if !changed || !merged {
		t.Fatalf("expected EQ to merge a and b")
	}
	if g.Resolve(a) != g.Resolve(b) {
		t.Errorf("a and b should resolve to the same bucket after an EQ merge")
	}
	if g.Resolve(a) != survivor {
		t.Errorf("Resolve(a) should be the reported survivor")
	}
	if !g.entries[g.Resolve(b)].edges[c].Has(SLT) {
		t.Errorf("the merged bucket should inherit a's SLT relation to c")
	}
}

func TestHaveConflictingRelation(t *testing.T) {
	g := NewGraph()
	a := g.NewBucket()
	b := g.NewBucket()
	g.AddRelation(a, SLT, b)
	if !g.HaveConflictingRelation(a, SGT, b) {
		t.Errorf("SLT and SGT between the same pair should conflict")
	}
	changed, _, _ := g.AddRelation(a, SGT, b)
	if changed {
		t.Errorf("a conflicting AddRelation should not change the graph")
	}
}

func TestGetRelatedTransitive(t *testing.T) {
	g := NewGraph()
	a := g.NewBucket()
	b := g.NewBucket()
	c := g.NewBucket()
	g.AddRelation(a, SLE, b)
	g.AddRelation(b, SLE, c)

	related := g.GetRelated(a, Single(SLE), false)
	if !related[c].Has(SLE) {
		t.Errorf("SLE should compose transitively from a to c, got %v", related)
	}
}
