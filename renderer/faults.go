// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"
	"strings"
)

// FaultError reports fault bits observed in the bump buffer after a stage's
// barrier. The frame's output is undefined and must be discarded.
type FaultError struct {
	Stage string
	Bits  uint32
}

var faultNames = [...]struct {
	bit  uint32
	name string
}{
	{FailStackOverflow, "traversal stack overflow"},
	{FailMalformedItem, "malformed item tag"},
	{FailTilegroupAlloc, "tilegroup list pool exhausted"},
	{FailExpandedAlloc, "expanded list pool exhausted"},
	{FailPtclAlloc, "per-tile list pool exhausted"},
	{FailEncodedAlloc, "device encode arena exhausted"},
}

func (err *FaultError) Error() string {
	var parts []string
	for _, f := range faultNames {
		if err.Bits&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("unknown fault bits %#x", err.Bits))
	}
	return fmt.Sprintf("stage %s: %s", err.Stage, strings.Join(parts, ", "))
}
