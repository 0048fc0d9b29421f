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

// Package offset implements saturating arithmetic over byte offsets, with a distinguished Unknown
// sentinel standing in for "could not be determined statically".
package offset

import "math"

// Offset is a byte offset or length. Negative values never occur in a well-formed def-site; Unknown is the
// one reserved value meaning "not statically known".
type Offset int64

// Unknown is the sentinel offset. It absorbs all arithmetic: any operation involving it returns Unknown.
const Unknown Offset = math.MaxInt64

// IsUnknown reports whether o is the Unknown sentinel.
func IsUnknown(o Offset) bool {
	return o == Unknown
}

// IsKnown reports whether o is a concrete, statically-determined offset.
func IsKnown(o Offset) bool {
	return o != Unknown
}

// Add returns a+b, saturating to Unknown if either operand is Unknown or the sum would overflow or go
// negative.
func Add(a, b Offset) Offset {
	if IsUnknown(a) || IsUnknown(b) {
		return Unknown
	}
	if a > Unknown-b {
		return Unknown
	}
	sum := a + b
	if sum < 0 {
		return Unknown
	}
	return sum
}

// Sub returns a-b, saturating to Unknown if either operand is Unknown or the result would be negative.
func Sub(a, b Offset) Offset {
	if IsUnknown(a) || IsUnknown(b) {
		return Unknown
	}
	if b > a {
		return Unknown
	}
	return a - b
}

// Eq reports whether a and b are known to be equal. Unknown is never known to be equal to anything,
// including itself — this is what makes strong update conditional on concrete offsets (§4.5).
func Eq(a, b Offset) bool {
	if IsUnknown(a) || IsUnknown(b) {
		return false
	}
	return a == b
}

// Range is a half-open byte range [Start, Start+Length) describing a possible write or read.
type Range struct {
	Start  Offset
	Length Offset
}

// NewRange builds a Range from a start offset and a length.
func NewRange(start, length Offset) Range {
	return Range{Start: start, Length: length}
}

// End returns Start+Length, saturating to Unknown per Add.
func (r Range) End() Offset {
	return Add(r.Start, r.Length)
}

// IsUnknown reports whether any bound of the range is not statically known.
func (r Range) IsUnknown() bool {
	return IsUnknown(r.Start) || IsUnknown(r.Length)
}

// Overlaps reports whether r and other describe possibly-overlapping byte ranges. An Unknown range is
// conservatively assumed to overlap with everything.
func (r Range) Overlaps(other Range) bool {
	if r.IsUnknown() || other.IsUnknown() {
		return true
	}
	return r.Start < other.End() && other.Start < r.End()
}
