/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package proto holds the ARCP domain model (L2): pulse codes, pulse
// sequences, phase tables, trigger parameters, system-ID and
// system-status records, each with the module-type-dependent variants the
// wire format carries.
package proto

import "fmt"

// ModuleType tags which slave-module shape a SystemID/SystemStatus tail
// carries.
type ModuleType int8

const (
	// ModuleNone is the sentinel for "uninitialized". The original source
	// also uses it for ARCP_MODULE_ANY; this implementation treats the two
	// as the same value (see Open Question (a) in SPEC_FULL.md).
	ModuleNone ModuleType = -1
	ModuleSTX2 ModuleType = 1
	ModuleBSM  ModuleType = 2
)

func (m ModuleType) String() string {
	switch m {
	case ModuleNone:
		return "NONE"
	case ModuleSTX2:
		return "STX2"
	case ModuleBSM:
		return "BSM"
	default:
		return fmt.Sprintf("ModuleType(%d)", int8(m))
	}
}

// Valid reports whether m is one of the known module types (ModuleNone is
// not considered valid for a fully-formed record).
func (m ModuleType) Valid() bool {
	return m == ModuleSTX2 || m == ModuleBSM
}
