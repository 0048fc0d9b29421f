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

import "errors"

// ErrNoEntryFunction is returned by Build when the configured entry function (or the program's main,
// absent a configured one) cannot be found in the loaded program.
var ErrNoEntryFunction = errors.New("rdg: entry function not found")

// ErrMissingDefSiteTarget names a def-site whose target allocation node was never built. Build does not
// return it: nodeFor creates a node on demand for an allocation or global target and maps every other target
// to the unknown-memory node.
var ErrMissingDefSiteTarget = errors.New("rdg: missing def-site target node")

// ErrUnknownAllocationKind names a config.AllocationSpec that fits no malloc-, calloc- or realloc-shaped
// call. Build does not return it: buildAllocationCall treats every spec with ElemSizeArg < 0 as having a
// single size argument and every other spec as count times element size.
var ErrUnknownAllocationKind = errors.New("rdg: allocation spec has no recognizable shape")
