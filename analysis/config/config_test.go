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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
entry-function:
  package: main
  method: main
log-level: 4
max-call-depth: 4
pkg-filter: ^example\.com/.*$

allocation-functions:
  - package: ^runtime$
    method: ^mallocgc$
    count-arg: 0
    elem-size-arg: -1
    zeroed: true

function-models:
  - method: ^memcpy$
    read-args: [1]
    write-arg: 0
    size-arg: 2

thread-create-names:
  - method: ^pthread_create$

thread-join-names:
  - method: ^pthread_join$
`

func writeTestConfig(t *testing.T) string {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(filename, []byte(testConfig), 0644); err != nil {
		t.Fatalf("could not write test config: %s", err)
	}
	return filename
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("error loading config: %s", err)
	}
	if cfg.EntryFunction.Package != "main" || cfg.EntryFunction.Method != "main" {
		t.Errorf("unexpected entry function: %+v", cfg.EntryFunction)
	}
	if cfg.MaxCallDepth != 4 {
		t.Errorf("expected max-call-depth 4, got %d", cfg.MaxCallDepth)
	}
	if !cfg.Verbose() {
		t.Errorf("expected log-level 4 to be verbose")
	}
	if len(cfg.AllocationFunctions) != 1 {
		t.Fatalf("expected 1 allocation function, got %d", len(cfg.AllocationFunctions))
	}
	if len(cfg.FunctionModels) != 1 {
		t.Fatalf("expected 1 function model, got %d", len(cfg.FunctionModels))
	}
	if !cfg.IsThreadCreate(CodeIdentifier{Method: "pthread_create"}) {
		t.Errorf("expected pthread_create to be recognized as a thread-create primitive")
	}
	if !cfg.IsThreadJoin(CodeIdentifier{Method: "pthread_join"}) {
		t.Errorf("expected pthread_join to be recognized as a thread-join primitive")
	}
	if cfg.IsThreadCreate(CodeIdentifier{Method: "spawn"}) {
		t.Errorf("did not expect spawn to be recognized as a thread-create primitive")
	}
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("expected default max call depth %d, got %d", DefaultMaxCallDepth, cfg.MaxCallDepth)
	}
	if cfg.ExceedsMaxCallDepth(1000000) {
		t.Errorf("default config should not have a call depth limit")
	}
	if cfg.Verbose() {
		t.Errorf("default config should not be verbose")
	}
}

func TestGetAllocationFunction(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("error loading config: %s", err)
	}
	spec, ok := cfg.GetAllocationFunction(CodeIdentifier{Package: "runtime", Method: "mallocgc"})
	if !ok {
		t.Fatalf("expected to find an allocation spec for runtime.mallocgc")
	}
	if !spec.Zeroed {
		t.Errorf("expected the allocation spec to be marked zeroed")
	}
	if _, ok := cfg.GetAllocationFunction(CodeIdentifier{Package: "runtime", Method: "newobject"}); ok {
		t.Errorf("did not expect to find an allocation spec for runtime.newobject")
	}
}

func TestGetFunctionModel(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("error loading config: %s", err)
	}
	model, ok := cfg.GetFunctionModel(CodeIdentifier{Method: "memcpy"})
	if !ok {
		t.Fatalf("expected to find a function model for memcpy")
	}
	if model.WriteArg != 0 || model.SizeArg != 2 {
		t.Errorf("unexpected function model: %+v", model)
	}
}

func TestMatchPkgFilter(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("error loading config: %s", err)
	}
	if !cfg.MatchPkgFilter("example.com/foo") {
		t.Errorf("expected example.com/foo to match the package filter")
	}
	if cfg.MatchPkgFilter("other.com/foo") {
		t.Errorf("did not expect other.com/foo to match the package filter")
	}
}

func TestExceedsMaxCallDepth(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	if err != nil {
		t.Fatalf("error loading config: %s", err)
	}
	if cfg.ExceedsMaxCallDepth(4) {
		t.Errorf("depth equal to the max should not exceed it")
	}
	if !cfg.ExceedsMaxCallDepth(5) {
		t.Errorf("depth one over the max should exceed it")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}
