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
	"fmt"
	"go/token"
	"go/types"

	"github.com/mchalupa/dg/analysis/lang"
	"github.com/mchalupa/dg/analysis/offset"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// unknownMemoryValue is a sentinel ssa.Value standing for "any memory the points-to oracle could not pin
// down to a specific allocation or global". It exists only to serve as a stable map key / PointsToTarget
// field; none of its methods carry real SSA semantics.
type unknownMemoryValue struct{}

func (*unknownMemoryValue) Name() string                 { return "UnknownMemory" }
func (*unknownMemoryValue) String() string               { return "UnknownMemory" }
func (*unknownMemoryValue) Type() types.Type              { return types.Typ[types.UnsafePointer] }
func (*unknownMemoryValue) Parent() *ssa.Function         { return nil }
func (*unknownMemoryValue) Referrers() *[]ssa.Instruction { return nil }
func (*unknownMemoryValue) Pos() token.Pos                { return token.NoPos }

// UnknownMemory is the one instance of unknownMemoryValue. Every def-site or points-to target standing for
// "any memory" shares it, so map lookups by ssa.Value identity work.
var UnknownMemory ssa.Value = &unknownMemoryValue{}

// PointsToTarget is one element a pointer value may designate: an allocation site, a global, or
// UnknownMemory, together with a byte offset within it (currently always offset.Unknown, since
// golang.org/x/tools/go/pointer is field-insensitive at the allocation-site granularity).
type PointsToTarget struct {
	Target ssa.Value
	Offset offset.Offset
}

// PointsToSet is the result of querying a pointer value's targets. HasKnown distinguishes "we have no
// information about this value" (false) from "the computed set happens to be empty, which is itself useful
// information: an invalid/impossible memory access" (true, with Targets empty).
type PointsToSet struct {
	HasKnown bool
	Targets  map[PointsToTarget]bool
}

// PointsTo is the oracle the builder consults to resolve a pointer value to the memory it may designate.
type PointsTo interface {
	// PointsTo returns v's points-to set. The boolean is false if v is not a pointer-like value at all, in
	// which case callers silently skip it.
	PointsTo(v ssa.Value) (PointsToSet, bool)

	// Intersects reports whether a and b's points-to sets may overlap. Used by the fork/join matcher to
	// decide whether a thread handle observed at a join site may be the handle returned by the fork.
	Intersects(a, b ssa.Value) bool
}

// PointerAnalysis adapts golang.org/x/tools/go/pointer to the PointsTo interface.
type PointerAnalysis struct {
	result *pointer.Result
	cache  map[ssa.Value]PointsToSet
}

// NewPointerAnalysis runs Andersen-style pointer analysis over prog, querying every value of every function
// for which filter returns true (typically: reachable from the entry function). It mirrors the teacher's
// DoPointerAnalysis, including its defensive recover() around typ.Underlying() panicking on ill-formed
// generic instantiations.
func NewPointerAnalysis(prog *ssa.Program, filter func(*ssa.Function) bool) (pa *PointerAnalysis, err error) {
	cfg := &pointer.Config{
		Mains:           ssautil.MainPackages(prog.AllPackages()),
		BuildCallGraph:  false,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for f := range ssautil.AllFunctions(prog) {
		if filter != nil && !filter(f) {
			continue
		}
		lang.IterateValues(f, func(_ int, v ssa.Value) {
			addQuery(cfg, v)
		})
	}

	defer func() {
		if r := recover(); r != nil {
			pa, err = nil, fmt.Errorf("rdg: pointer analysis panicked: %v", r)
		}
	}()

	result, aerr := pointer.Analyze(cfg)
	if aerr != nil {
		return nil, fmt.Errorf("rdg: pointer analysis failed: %w", aerr)
	}
	return &PointerAnalysis{result: result, cache: map[ssa.Value]PointsToSet{}}, nil
}

func addQuery(cfg *pointer.Config, v ssa.Value) {
	if v == nil || v.Type() == nil {
		return
	}
	if pointer.CanPoint(v.Type()) {
		cfg.AddQuery(v)
	}
	indirectQuery(v, cfg)
}

// indirectQuery wraps an update to the indirect queries. It is wrapped in a recover() because
// typ.Underlying() may panic despite typ being non-nil, on certain generic instantiations.
func indirectQuery(v ssa.Value, cfg *pointer.Config) {
	defer func() { _ = recover() }()

	typ := v.Type()
	if typ == nil || typ.Underlying() == nil {
		return
	}
	if ptrType, ok := typ.Underlying().(*types.Pointer); ok {
		if pointer.CanPoint(ptrType.Elem()) {
			cfg.AddIndirectQuery(v)
		}
	}
}

// RawPointer exposes the underlying pointer.Pointer handle for v, for callers (the fork/join matcher) that
// need pointer.Pointer.MayAlias rather than a materialized target set.
func (pa *PointerAnalysis) RawPointer(v ssa.Value) (pointer.Pointer, bool) {
	if ptr, ok := pa.result.Queries[v]; ok {
		return ptr, true
	}
	if ptr, ok := pa.result.IndirectQueries[v]; ok {
		return ptr, true
	}
	return pointer.Pointer{}, false
}

// Intersects reports whether a and b's points-to sets may overlap, used by the fork/join matcher to decide
// whether a thread handle used at a join site may be the same handle used to create the thread.
func (pa *PointerAnalysis) Intersects(a, b ssa.Value) bool {
	pa1, ok1 := pa.RawPointer(a)
	pb1, ok2 := pa.RawPointer(b)
	if !ok1 || !ok2 {
		return false
	}
	return pa1.MayAlias(pb1)
}

// PointsTo implements PointsTo.
func (pa *PointerAnalysis) PointsTo(v ssa.Value) (PointsToSet, bool) {
	if v == nil || v.Type() == nil || !pointer.CanPoint(v.Type()) {
		return PointsToSet{}, false
	}
	if cached, ok := pa.cache[v]; ok {
		return cached, true
	}

	ptr, ok := pa.RawPointer(v)
	set := PointsToSet{HasKnown: ok, Targets: map[PointsToTarget]bool{}}
	if ok {
		for _, l := range ptr.PointsTo().Labels() {
			target := UnknownMemory
			if lv := l.Value(); lv != nil {
				target = lv
			}
			set.Targets[PointsToTarget{Target: target, Offset: offset.Unknown}] = true
		}
	}
	pa.cache[v] = set
	return set, true
}
