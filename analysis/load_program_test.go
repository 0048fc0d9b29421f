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

package analysis

import (
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/ssa"
)

func TestLoadProgram(t *testing.T) {
	files := []string{filepath.Join("testdata", "src", "loadprogram", "main.go")}
	loaded, err := LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	if loaded.Program == nil {
		t.Fatalf("expected a non-nil *ssa.Program")
	}

	main := loaded.Program.ImportedPackage("command-line-arguments")
	if main == nil {
		t.Fatalf("expected to find the command-line-arguments package")
	}
	if main.Func("main") == nil {
		t.Fatalf("expected to find a main function")
	}
}

func TestAllPackages(t *testing.T) {
	files := []string{filepath.Join("testdata", "src", "loadprogram", "main.go")}
	loaded, err := LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	mainFunc := loaded.Program.ImportedPackage("command-line-arguments").Func("main")
	pkgs := AllPackages(map[*ssa.Function]bool{mainFunc: true})
	if len(pkgs) != 1 {
		t.Fatalf("expected exactly 1 package, got %d", len(pkgs))
	}
}
