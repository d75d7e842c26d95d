package proto

import "fmt"

// MaxPulseSeqEntries is the domain maximum number of entries in a
// PulseSequence.
const MaxPulseSeqEntries = 1024

// MaxPhaseEntries is the domain maximum number of entries in a PhaseTable.
const MaxPhaseEntries = 32

// PulseSeqEntry addresses a pulse-parameter slot with accompanying flags.
type PulseSeqEntry struct {
	Slot  uint8
	Flags uint8
}

// PulseSequence is an ordered list of (slot, flags) entries, capped at
// MaxPulseSeqEntries.
type PulseSequence []PulseSeqEntry

// SetLength resizes seq in place, preserving prevailing entries up to
// min(old,new) and zero-filling newly exposed entries.
func (seq *PulseSequence) SetLength(n int) error {
	if n < 0 || n > MaxPulseSeqEntries {
		return fmt.Errorf("%w: pulse sequence length %d exceeds maximum %d", ErrBadLength, n, MaxPulseSeqEntries)
	}
	resized := make(PulseSequence, n)
	copy(resized, *seq)
	*seq = resized
	return nil
}

// PhaseEntry is a single (channel, phase) pair addressed by a beam-steering
// phase table.
type PhaseEntry struct {
	Channel uint16
	Phase   float32
}

// PhaseTable is an ordered list of (channel, phase) entries, capped at
// MaxPhaseEntries.
type PhaseTable []PhaseEntry

// SetLength resizes t in place, preserving prevailing entries up to
// min(old,new) and zero-filling newly exposed entries.
func (t *PhaseTable) SetLength(n int) error {
	if n < 0 || n > MaxPhaseEntries {
		return fmt.Errorf("%w: phase table length %d exceeds maximum %d", ErrBadLength, n, MaxPhaseEntries)
	}
	resized := make(PhaseTable, n)
	copy(resized, *t)
	*t = resized
	return nil
}

// TriggerParams carries the radar's trigger-source configuration.
type TriggerParams struct {
	Source       uint8
	ExtOptions   uint8
	InternalFreq uint16
	Predelay     uint16
}
