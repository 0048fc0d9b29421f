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

package offset

import "testing"

func TestAdd(t *testing.T) {
	if got := Add(4, 8); got != 12 {
		t.Errorf("Add(4, 8) = %d, want 12", got)
	}
	if got := Add(Unknown, 8); got != Unknown {
		t.Errorf("Add(Unknown, 8) = %d, want Unknown", got)
	}
	if got := Add(8, Unknown); got != Unknown {
		t.Errorf("Add(8, Unknown) = %d, want Unknown", got)
	}
	if got := Add(Unknown-1, 2); got != Unknown {
		t.Errorf("Add should saturate to Unknown on overflow, got %d", got)
	}
}

func TestSub(t *testing.T) {
	if got := Sub(12, 4); got != 8 {
		t.Errorf("Sub(12, 4) = %d, want 8", got)
	}
	if got := Sub(4, 12); got != Unknown {
		t.Errorf("Sub(4, 12) = %d, want Unknown (negative result)", got)
	}
	if got := Sub(Unknown, 4); got != Unknown {
		t.Errorf("Sub(Unknown, 4) = %d, want Unknown", got)
	}
}

func TestEq(t *testing.T) {
	if !Eq(4, 4) {
		t.Errorf("Eq(4, 4) should be true")
	}
	if Eq(Unknown, Unknown) {
		t.Errorf("Eq(Unknown, Unknown) should be false: unknown is never known-equal to itself")
	}
	if Eq(4, Unknown) {
		t.Errorf("Eq(4, Unknown) should be false")
	}
}

func TestRangeEndAndOverlaps(t *testing.T) {
	a := NewRange(4, 8)
	if a.End() != 12 {
		t.Errorf("End() = %d, want 12", a.End())
	}
	b := NewRange(10, 4)
	if !a.Overlaps(b) {
		t.Errorf("[4,12) and [10,14) should overlap")
	}
	c := NewRange(12, 4)
	if a.Overlaps(c) {
		t.Errorf("[4,12) and [12,16) should not overlap")
	}
	unk := NewRange(Unknown, 4)
	if !a.Overlaps(unk) {
		t.Errorf("a range with an Unknown bound must be treated as overlapping everything")
	}
}
