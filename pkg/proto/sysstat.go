package proto

import "fmt"

// Domain maxima for the STX2 system-status payload.
const (
	MaxChassisFans = 8
	MaxRFCards     = 9
	MaxRFOutputs   = 8
	MaxUnits       = 10
	MaxUnitTemps   = 4
	MaxUnitOutputs = 6
)

// Domain maxima for the BSM system-status payload.
const (
	MaxFans          = 8
	MaxHeatsinkTemps = 8
)

// UnitType tags the variant carried by a UnitStat entry.
type UnitType uint8

const (
	// UnitCommon carries only the common (flags, type) pair with no
	// type-specific payload.
	UnitCommon UnitType = 0
	// UnitExtCombinerSplitter adds the temperature/output arrays described
	// in SPEC_FULL.md.
	UnitExtCombinerSplitter UnitType = 1
)

// RFOutputStat is one RF output's forward-power / return-loss reading.
type RFOutputStat struct {
	ForwardPower uint16
	ReturnLoss   int16
}

// RFCardStat is one RF card's status, including its own per-output
// readings.
type RFCardStat struct {
	RailSupply    uint16
	HeatsinkTemp  int16
	OutputStat    []RFOutputStat // len <= MaxRFOutputs
}

// UnitStat is one ancillary unit's status: common (flags, type) fields,
// plus an EXT_COMBINER_SPLITTER-typed payload when Type ==
// UnitExtCombinerSplitter.
type UnitStat struct {
	Flags uint8
	Type  UnitType

	Temperature []int8         // valid only when Type == UnitExtCombinerSplitter, len <= MaxUnitTemps
	Output      []RFOutputStat // valid only when Type == UnitExtCombinerSplitter, len <= MaxUnitOutputs
}

// STX2Status is the STX2 variant of a SYSSTAT response payload.
type STX2Status struct {
	StatusCode      uint16
	ChassisDataSize uint8 // invariant: 7 + 2*len(FanSpeed); enforced on encode, not cross-checked on decode
	RailSupply      uint16
	RailAux         uint16
	AmbientTemp     int8
	FanSpeed        []uint16 // len <= MaxChassisFans
	CardMap         uint16
	RFCardStat      []RFCardStat // len <= MaxRFCards
	UnitStat        []UnitStat   // len <= MaxUnits
}

// ChassisDataSizeFor computes the invariant chassis_datasize value for a
// STX2 status carrying nFans fan-speed readings (SPEC_FULL.md §3).
func ChassisDataSizeFor(nFans int) uint8 {
	return uint8(7 + 2*nFans)
}

// Validate checks the STX2Status's array lengths against the domain
// maxima, returning ErrBadLength on the first violation found.
func (s *STX2Status) Validate() error {
	if len(s.FanSpeed) > MaxChassisFans {
		return fmt.Errorf("%w: n_chassis_fans %d exceeds maximum %d", ErrBadLength, len(s.FanSpeed), MaxChassisFans)
	}
	if len(s.RFCardStat) > MaxRFCards {
		return fmt.Errorf("%w: n_rf_cards %d exceeds maximum %d", ErrBadLength, len(s.RFCardStat), MaxRFCards)
	}
	for i, card := range s.RFCardStat {
		if len(card.OutputStat) > MaxRFOutputs {
			return fmt.Errorf("%w: rf_card_stat[%d].n_rf_outputs %d exceeds maximum %d", ErrBadLength, i, len(card.OutputStat), MaxRFOutputs)
		}
	}
	if len(s.UnitStat) > MaxUnits {
		return fmt.Errorf("%w: n_units %d exceeds maximum %d", ErrBadLength, len(s.UnitStat), MaxUnits)
	}
	for i, unit := range s.UnitStat {
		if unit.Type != UnitExtCombinerSplitter {
			continue
		}
		if len(unit.Temperature) > MaxUnitTemps {
			return fmt.Errorf("%w: unit_stat[%d].n_temperatures %d exceeds maximum %d", ErrBadLength, i, len(unit.Temperature), MaxUnitTemps)
		}
		if len(unit.Output) > MaxUnitOutputs {
			return fmt.Errorf("%w: unit_stat[%d].n_outputs %d exceeds maximum %d", ErrBadLength, i, len(unit.Output), MaxUnitOutputs)
		}
	}
	return nil
}

// BSMStatus is the BSM variant of a SYSSTAT response payload.
type BSMStatus struct {
	StatusCode     uint16
	RailSupply     uint16
	RailAux        uint16
	AmbientTemp    int8
	ChannelMap     uint16
	FanSpeed       []uint16 // len <= MaxFans
	HeatsinkTemp   []int8   // len <= MaxHeatsinkTemps
}

// Validate checks the BSMStatus's array lengths against the domain maxima.
func (s *BSMStatus) Validate() error {
	if len(s.FanSpeed) > MaxFans {
		return fmt.Errorf("%w: n_fans %d exceeds maximum %d", ErrBadLength, len(s.FanSpeed), MaxFans)
	}
	if len(s.HeatsinkTemp) > MaxHeatsinkTemps {
		return fmt.Errorf("%w: n_heatsink_temps %d exceeds maximum %d", ErrBadLength, len(s.HeatsinkTemp), MaxHeatsinkTemps)
	}
	return nil
}

// SystemStatus is the response payload for GET_SYSSTAT: common module
// fields plus exactly one module-typed payload, selected by ModuleType.
type SystemStatus struct {
	ModuleType   ModuleType
	ModuleStatus int8

	STX2 *STX2Status
	BSM  *BSMStatus
}

// Validate reports ErrWrongVariant if the populated payload disagrees with
// ModuleType, and otherwise delegates to the payload's own Validate.
func (s *SystemStatus) Validate() error {
	switch s.ModuleType {
	case ModuleSTX2:
		if s.STX2 == nil || s.BSM != nil {
			return ErrWrongVariant
		}
		return s.STX2.Validate()
	case ModuleBSM:
		if s.BSM == nil || s.STX2 != nil {
			return ErrWrongVariant
		}
		return s.BSM.Validate()
	default:
		return ErrWrongVariant
	}
}
