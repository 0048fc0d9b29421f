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

import "golang.org/x/tools/go/ssa"

// Subgraph is a function's piece of the reaching-definitions graph: a Root NOOP all calls to the function
// enter at, and a Ret NOOP every Return node connects to, so interprocedural edges never need to duplicate
// the callee's body.
type Subgraph struct {
	Func *ssa.Function
	Root *Node
	Ret  *Node
}

// CallCategory tags a callResult with the kind of call site that produced it. For a fork site, the
// thread-create builders themselves add the asynchronous edge from the call node to the thread entry's Root,
// and §4.10's fork/join matcher later adds an edge from that entry's Ret to each matching join node.
type CallCategory int

const (
	// CategoryPlain is an ordinary call: the caller's block connects Entry/Exit with linear-flow edges.
	CategoryPlain CallCategory = iota
	// CategoryCreateThread is a fork site. Its Entry/Exit (the call node) are connected into the caller's
	// linear flow like any other call result; the fork edge leaves from that node.
	CategoryCreateThread
)

// callResult is the tagged variant every call-classification path in §4.8 produces: an (Entry, Exit) node
// pair that the caller's block links into its linear flow, together with the category of the call site.
type callResult struct {
	Category CallCategory
	Entry    *Node
	Exit     *Node
}
