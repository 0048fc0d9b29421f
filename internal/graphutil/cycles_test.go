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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/mchalupa/dg/internal/funcutil"
	"github.com/mchalupa/dg/internal/graphutil"
)

// idNode is a minimal graphutil.Identifiable used to build small test graphs by hand.
type idNode int64

func (n idNode) ID() int64 { return int64(n) }

func buildGraph(edges map[int64][]int64) graphutil.RDGraph {
	seen := map[int64]bool{}
	var nodes []graphutil.Identifiable
	for from, tos := range edges {
		if !seen[from] {
			seen[from] = true
			nodes = append(nodes, idNode(from))
		}
		for _, to := range tos {
			if !seen[to] {
				seen[to] = true
				nodes = append(nodes, idNode(to))
			}
		}
	}
	return graphutil.NewGraph(nodes, func(n graphutil.Identifiable) []graphutil.Identifiable {
		var succs []graphutil.Identifiable
		for _, to := range edges[n.ID()] {
			succs = append(succs, idNode(to))
		}
		return succs
	})
}

func TestFindAllElementaryCycles(t *testing.T) {
	// Two disjoint cycles sharing no nodes: 1->2->3->1 and 4->5->4, plus an acyclic tail 3->6.
	g := buildGraph(map[int64][]int64{
		1: {2},
		2: {3},
		3: {1, 6},
		4: {5},
		5: {4},
		6: {},
	})

	cycles := graphutil.FindAllElementaryCycles(g)
	results := make([]string, len(cycles))
	for i, cycle := range cycles {
		sorted := append([]int64{}, cycle...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		results[i] = strings.Join(
			funcutil.Map(sorted, func(x int64) string { return strconv.Itoa(int(x)) }),
			",")
	}
	sort.Strings(results)

	expected := []string{"1,1,2,3", "4,4,5"}
	if len(results) != len(expected) {
		t.Fatalf("expected %d elementary cycles, found %d: %v", len(expected), len(results), results)
	}
	for i := range expected {
		if results[i] != expected[i] {
			t.Fatalf("cycle %d: expected %s, got %s", i, expected[i], results[i])
		}
	}
}

func TestFindAllElementaryCyclesNone(t *testing.T) {
	g := buildGraph(map[int64][]int64{
		1: {2},
		2: {3},
		3: {},
	})
	cycles := graphutil.FindAllElementaryCycles(g)
	if len(cycles) != 0 {
		t.Fatalf("expected no cycles in a DAG, found %d", len(cycles))
	}
}
