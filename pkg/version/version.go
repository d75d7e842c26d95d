/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package version encodes and compares ARCP protocol version pairs. It
// repurposes docker's generic three-field version-compare utility — used
// elsewhere in this ecosystem to compare Linux kernel releases — to
// compare the (major, minor) pairs carried in every ARCP frame header.
package version

import (
	"github.com/docker/docker/pkg/parsers/kernel"
)

// Pair is an ARCP (major, minor) protocol version.
type Pair struct {
	Major int
	Minor int
}

// Encode packs p into the wire's (major<<8)|minor representation.
func (p Pair) Encode() uint16 {
	return uint16(p.Major)<<8 | uint16(p.Minor&0xff)
}

// Decode unpacks the wire's (major<<8)|minor representation into a Pair.
func Decode(v uint16) Pair {
	return Pair{Major: int(v >> 8), Minor: int(v & 0xff)}
}

func (p Pair) toVersionInfo() kernel.VersionInfo {
	return kernel.VersionInfo{Kernel: 0, Major: p.Major, Minor: p.Minor}
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than
// b, using docker's generic VersionInfo comparison.
func Compare(a, b Pair) int {
	return kernel.CompareKernelVersion(a.toVersionInfo(), b.toVersionInfo())
}

// AtLeast reports whether v (wire-encoded) is at least the given (major,
// minor) floor.
func AtLeast(v uint16, major, minor int) bool {
	return Compare(Decode(v), Pair{Major: major, Minor: minor}) >= 0
}

// Max10 is protocol version 1.0, the version below SET_PHASE's floor.
var Max10 = Pair{Major: 1, Minor: 0}

// Max11 is the version SET_PHASE requires: 1.1.
var Max11 = Pair{Major: 1, Minor: 1}
