package proto

// STX2IDTail is the STX2-specific tail of a SystemID record.
type STX2IDTail struct {
	CardMap           uint16
	PulseSlotLengthNS uint32
}

// BSMIDTail is the BSM-specific tail of a SystemID record.
type BSMIDTail struct {
	ChannelMap uint16
}

// SystemID is the response payload for GET_SYSID: common version fields
// plus exactly one module-typed tail, selected by ModuleType. Exactly one
// of STX2/BSM is non-nil when ModuleType is valid; a decoder must refuse to
// populate the tail that does not match ModuleType.
type SystemID struct {
	ModuleType      ModuleType
	ModuleVersion   uint16
	FirmwareVersion uint16
	LogicVersion    uint16

	STX2 *STX2IDTail
	BSM  *BSMIDTail
}

// Validate reports ErrWrongVariant if the populated tail disagrees with
// ModuleType, which every encoder must check before writing.
func (s *SystemID) Validate() error {
	switch s.ModuleType {
	case ModuleSTX2:
		if s.STX2 == nil || s.BSM != nil {
			return ErrWrongVariant
		}
	case ModuleBSM:
		if s.BSM == nil || s.STX2 != nil {
			return ErrWrongVariant
		}
	default:
		return ErrWrongVariant
	}
	return nil
}
