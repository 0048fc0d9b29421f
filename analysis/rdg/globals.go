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
	"sort"

	"golang.org/x/tools/go/ssa"
)

// prependGlobals builds an Alloc node for every package-level *ssa.Global in the program (reusing the node
// nodeFor already made for a global that a def-site reached during the build), chains them in a
// deterministic order, and splices that chain before entrySub.Root. It returns the root of the resulting
// graph: the first global's node if there were any, entrySub.Root otherwise.
//
// Every package's globals are included, not just those of the entry function's own package: a global in an
// unrelated package is still a valid def-site target the moment any reachable function takes its address,
// and nothing observes a tool-wide root node's identity, so the broader set costs nothing in precision.
func (b *Builder) prependGlobals(_ *ssa.Function, entrySub *Subgraph) *Node {
	var globals []*ssa.Global
	for _, pkg := range b.prog.AllPackages() {
		names := make([]string, 0, len(pkg.Members))
		for name := range pkg.Members {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if g, ok := pkg.Members[name].(*ssa.Global); ok {
				globals = append(globals, g)
			}
		}
	}

	if len(globals) == 0 {
		return entrySub.Root
	}

	var first, last *Node
	for _, g := range globals {
		n, ok := b.nodeForValue[g]
		if !ok {
			n = b.newNode(KindAlloc, nil, nil)
			n.Size = staticSizeOf(g.Type())
			b.nodeForValue[g] = n
		}
		if first == nil {
			first = n
		} else {
			last.AddSuccessor(n)
		}
		last = n
	}
	last.AddSuccessor(entrySub.Root)
	return first
}
