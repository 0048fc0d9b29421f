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

package lang

import (
	"path/filepath"
	"testing"

	"github.com/mchalupa/dg/analysis"
	"golang.org/x/tools/go/ssa"
)

func loadTestProgram(t *testing.T) *ssa.Program {
	t.Helper()
	files := []string{filepath.Join("testdata", "src", "lang", "main.go")}
	loaded, err := analysis.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("failed to load test program: %s", err)
	}
	return loaded.Program
}

// findCall returns the first call instruction in fn matching want, or nil.
func findCall(fn *ssa.Function, want func(ssa.CallInstruction) bool) ssa.CallInstruction {
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			if call, ok := instr.(ssa.CallInstruction); ok && want(call) {
				return call
			}
		}
	}
	return nil
}

func TestGetArgsPlainCall(t *testing.T) {
	prog := loadTestProgram(t)
	main := prog.ImportedPackage("command-line-arguments").Func("main")
	if main == nil {
		t.Fatal("expected to find main")
	}

	call := findCall(main, func(c ssa.CallInstruction) bool {
		return !c.Common().IsInvoke() && c.Common().StaticCallee() != nil && c.Common().StaticCallee().Name() == "add"
	})
	if call == nil {
		t.Fatal("expected to find a call to add")
	}

	args := GetArgs(call)
	if len(args) != 2 {
		t.Fatalf("expected 2 args for a plain call, got %d: %v", len(args), args)
	}
}

func TestGetArgsInvokeCall(t *testing.T) {
	prog := loadTestProgram(t)
	fn := prog.ImportedPackage("command-line-arguments").Func("callThroughInterface")
	if fn == nil {
		t.Fatal("expected to find callThroughInterface")
	}

	call := findCall(fn, func(c ssa.CallInstruction) bool { return c.Common().IsInvoke() })
	if call == nil {
		t.Fatal("expected to find an invoke-mode call")
	}

	args := GetArgs(call)
	// GetArgs must prepend the receiver ahead of the method's own arguments.
	if len(args) != 2 {
		t.Fatalf("expected receiver + 1 arg for an invoke call, got %d: %v", len(args), args)
	}
	if args[0] != call.Common().Value {
		t.Errorf("expected GetArgs to prepend the receiver, got %v as first arg", args[0])
	}
}

func TestFmtInstr(t *testing.T) {
	prog := loadTestProgram(t)
	add := prog.ImportedPackage("command-line-arguments").Func("add")
	if add == nil {
		t.Fatal("expected to find add")
	}

	var binOp *ssa.BinOp
	for _, blk := range add.Blocks {
		for _, instr := range blk.Instrs {
			if b, ok := instr.(*ssa.BinOp); ok {
				binOp = b
			}
		}
	}
	if binOp == nil {
		t.Fatal("expected add to contain a BinOp instruction")
	}

	got := FmtInstr(binOp)
	if got == "" {
		t.Fatal("FmtInstr returned an empty string")
	}

	main := prog.ImportedPackage("command-line-arguments").Func("main")
	var store *ssa.Store
	for _, blk := range main.Blocks {
		for _, instr := range blk.Instrs {
			if s, ok := instr.(*ssa.Store); ok {
				store = s
			}
		}
	}
	if store == nil {
		t.Fatal("expected main to contain a Store instruction")
	}
	if got := FmtInstr(store); got == store.String() {
		t.Errorf("expected FmtInstr to special-case *ssa.Store, got the default rendering %q", got)
	}
}
