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

func TestAddImplied(t *testing.T) {
	closed := AddImplied(Single(SLT))
	if !closed.Has(SLT) || !closed.Has(SLE) {
		t.Errorf("SLT should imply SLE, got %v", closed)
	}
	closed = AddImplied(Single(EQ))
	for _, r := range []Relation{SLE, SGE, ULE, UGE} {
		if !closed.Has(r) {
			t.Errorf("EQ should imply %v, got %v", r, closed)
		}
	}
}

func TestInvert(t *testing.T) {
	if Invert(Single(SLT)) != Single(SGT) {
		t.Errorf("Invert(SLT) should be SGT")
	}
	if Invert(Single(EQ)) != Single(EQ) {
		t.Errorf("Invert(EQ) should be EQ")
	}
	if Invert(Single(PT)) != Single(PF) {
		t.Errorf("Invert(PT) should be PF")
	}
}

func TestCompose(t *testing.T) {
	if got := Compose(Single(SLE), Single(SLT)); !got.Has(SLT) {
		t.Errorf("SLE∘SLT should contain SLT, got %v", got)
	}
	if got := Compose(Single(SLT), Single(EQ)); !got.Has(SLT) {
		t.Errorf("SLT∘EQ should contain SLT, got %v", got)
	}
	if got := Compose(Single(PT), Single(EQ)); !got.Has(PT) {
		t.Errorf("PT∘EQ should contain PT, got %v", got)
	}
}

func TestConflicts(t *testing.T) {
	if !Conflicts(Single(SLT), SGT) {
		t.Errorf("SLT and SGT should conflict")
	}
	if Conflicts(Single(SLT), SLE) {
		t.Errorf("SLT and SLE should not conflict (SLT implies SLE)")
	}
	if !Conflicts(Single(EQ), SLT) {
		t.Errorf("EQ and SLT should conflict")
	}
}
