package message

import (
	"fmt"

	"github.com/atrad/go-arcp/pkg/proto"
	"github.com/atrad/go-arcp/pkg/wire"
)

// Encode computes m's exact wire size, stamps it into the header, and
// serializes header + payload into a freshly allocated byte slice.
func Encode(m *Message) ([]byte, error) {
	size, err := m.Size()
	if err != nil {
		return nil, err
	}
	if size > MaxMsgSize {
		return nil, fmt.Errorf("%w: encoded size %d exceeds MaxMsgSize %d", ErrBadMsg, size, MaxMsgSize)
	}
	m.Header.Magic = Magic
	m.Header.MsgLength = uint16(size)

	s := wire.NewStream(size)
	writeHeader(s, m.Header)

	if m.IsCommand() {
		s.WriteU16(uint16(m.CommandID))
		if err := encodeCommandPayload(s, m); err != nil {
			return nil, err
		}
	} else {
		s.WriteI16(int16(m.ResponseID))
		s.WriteI16(m.InfoCode)
		if err := encodeResponsePayload(s, m); err != nil {
			return nil, err
		}
	}
	if s.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMsg, s.Err())
	}
	return s.Bytes(), nil
}

func writeHeader(s *wire.Stream, h Header) {
	s.WriteU32(h.Magic)
	s.WriteU16(h.MsgLength)
	s.WriteU16(h.ExchangeID)
	s.WriteU8(uint8(h.MsgType))
	s.WriteU16(h.ProtocolVersion)
}

func encodeCommandPayload(s *wire.Stream, m *Message) error {
	switch m.CommandID {
	case CmdSetModuleEnable, CmdSetUsrctlEnable:
		if m.Enable == nil {
			return fmt.Errorf("%w: %v command missing Enable payload", ErrBadMsg, m.CommandID)
		}
		var v uint8
		if *m.Enable {
			v = 1
		}
		s.WriteU8(v)
	case CmdSetPulseParam:
		if m.PulseParam == nil {
			return fmt.Errorf("%w: SET_PULSE_PARAM missing payload", ErrBadMsg)
		}
		p := m.PulseParam
		s.WriteU8(p.Index)
		s.WriteI8(p.Shape)
		s.WriteU16(p.Ampl)
		s.WriteU16(p.Options)
		s.WriteU32(p.WidthNS)
		length := p.Code.Length()
		s.WriteU16(uint16(length))
		if length > 0 {
			s.WriteBytes(p.Code.Bytes())
		}
	case CmdSetPulseSeq:
		s.WriteU16(uint16(len(m.PulseSeq)))
		for _, e := range m.PulseSeq {
			s.WriteU8(e.Slot)
			s.WriteU8(e.Flags)
		}
	case CmdSetPulseSeqIndex:
		if m.PulseSeqIndex == nil {
			return fmt.Errorf("%w: SET_PULSE_SEQ_IDX missing payload", ErrBadMsg)
		}
		s.WriteU16(*m.PulseSeqIndex)
	case CmdSetTrigParam:
		if m.TrigParam == nil {
			return fmt.Errorf("%w: SET_TRIG_PARAM missing payload", ErrBadMsg)
		}
		t := m.TrigParam
		s.WriteU8(t.Source)
		s.WriteU8(t.ExtOptions)
		s.WriteU16(t.InternalFreq)
		s.WriteU16(t.Predelay)
	case CmdSetPhase:
		if m.Phase == nil {
			return fmt.Errorf("%w: SET_PHASE missing payload", ErrBadMsg)
		}
		s.WriteU16(m.Phase.Slot)
		s.WriteU16(uint16(len(m.Phase.Entries)))
		for _, e := range m.Phase.Entries {
			s.WriteU16(e.Channel)
			s.WriteF32(e.Phase)
		}
	case CmdReset, CmdPing, CmdGetSysID, CmdGetSysStat:
		// no payload
	default:
		// unknown command id: no payload convention defined, emit none
	}
	return nil
}

func encodeResponsePayload(s *wire.Stream, m *Message) error {
	switch m.ResponseID {
	case RespSysID:
		if m.SystemID == nil {
			return fmt.Errorf("%w: SYSID response missing payload", ErrBadMsg)
		}
		if err := m.SystemID.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		id := m.SystemID
		s.WriteI8(int8(id.ModuleType))
		s.WriteU16(id.ModuleVersion)
		s.WriteU16(id.FirmwareVersion)
		s.WriteU16(id.LogicVersion)
		switch id.ModuleType {
		case proto.ModuleSTX2:
			s.WriteU16(id.STX2.CardMap)
			s.WriteU32(id.STX2.PulseSlotLengthNS)
		case proto.ModuleBSM:
			s.WriteU16(id.BSM.ChannelMap)
		}
	case RespSysStat:
		if m.SystemStatus == nil {
			return fmt.Errorf("%w: SYSSTAT response missing payload", ErrBadMsg)
		}
		if err := m.SystemStatus.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		encodeSysStat(s, m.SystemStatus)
	case RespAck, RespNak, RespUnk:
		// no payload
	default:
		// unknown response id: common 4-byte head only
	}
	return nil
}

func encodeSysStat(s *wire.Stream, st *proto.SystemStatus) {
	s.WriteI8(int8(st.ModuleType))
	s.WriteI8(st.ModuleStatus)
	switch st.ModuleType {
	case proto.ModuleSTX2:
		c := st.STX2
		s.WriteU16(c.StatusCode)
		s.WriteU8(proto.ChassisDataSizeFor(len(c.FanSpeed)))
		s.WriteU16(c.RailSupply)
		s.WriteU16(c.RailAux)
		s.WriteI8(c.AmbientTemp)
		s.WriteU8(uint8(len(c.FanSpeed)))
		for _, f := range c.FanSpeed {
			s.WriteU16(f)
		}
		s.WriteU16(c.CardMap)
		s.WriteU8(uint8(len(c.RFCardStat)))
		for _, card := range c.RFCardStat {
			s.WriteU16(card.RailSupply)
			s.WriteI16(card.HeatsinkTemp)
			s.WriteU8(uint8(len(card.OutputStat)))
			for _, out := range card.OutputStat {
				s.WriteU16(out.ForwardPower)
				s.WriteI16(out.ReturnLoss)
			}
		}
		s.WriteU8(uint8(len(c.UnitStat)))
		for _, unit := range c.UnitStat {
			s.WriteU8(unit.Flags)
			s.WriteU8(uint8(unit.Type))
			if unit.Type == proto.UnitExtCombinerSplitter {
				s.WriteU8(uint8(len(unit.Temperature)))
				for _, t := range unit.Temperature {
					s.WriteI8(t)
				}
				s.WriteU8(uint8(len(unit.Output)))
				for _, out := range unit.Output {
					s.WriteU16(out.ForwardPower)
					s.WriteI16(out.ReturnLoss)
				}
			}
		}
	case proto.ModuleBSM:
		b := st.BSM
		s.WriteU16(b.StatusCode)
		s.WriteU16(b.RailSupply)
		s.WriteU16(b.RailAux)
		s.WriteI8(b.AmbientTemp)
		s.WriteU16(b.ChannelMap)
		s.WriteU8(uint8(len(b.FanSpeed)))
		for _, f := range b.FanSpeed {
			s.WriteU16(f)
		}
		s.WriteU8(uint8(len(b.HeatsinkTemp)))
		for _, t := range b.HeatsinkTemp {
			s.WriteI8(t)
		}
	}
}

// Decode parses a complete frame (header + payload) read from the wire by
// the L4 framer. Every variable-length count is validated against its
// domain maximum before allocation; a violation yields ErrBadMsg and no
// partial Message is returned.
func Decode(data []byte) (*Message, error) {
	s := wire.NewStreamFromBytes(data)
	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrBadMsg, h.Magic)
	}
	if h.MsgLength < HeaderSize || int(h.MsgLength) > MaxMsgSize {
		return nil, fmt.Errorf("%w: msg_length %d out of range [%d,%d]", ErrBadMsg, h.MsgLength, HeaderSize, MaxMsgSize)
	}
	if h.MsgType != TypeCommand && h.MsgType != TypeResponse {
		return nil, fmt.Errorf("%w: unknown msg_type %d", ErrBadMsg, h.MsgType)
	}

	m := &Message{Header: h}
	if h.MsgType == TypeCommand {
		id, err := s.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		m.CommandID = CommandID(id)
		if err := decodeCommandPayload(s, m); err != nil {
			return nil, err
		}
	} else {
		id, err := s.ReadI16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		info, err := s.ReadI16()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		m.ResponseID = ResponseID(id)
		m.InfoCode = info
		if err := decodeResponsePayload(s, m); err != nil {
			return nil, err
		}
	}
	if s.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMsg, s.Err())
	}
	return m, nil
}

func readHeader(s *wire.Stream) (Header, error) {
	var h Header
	var err error
	if h.Magic, err = s.ReadU32(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	if h.MsgLength, err = s.ReadU16(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	if h.ExchangeID, err = s.ReadU16(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	mt, err := s.ReadU8()
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	h.MsgType = Type(mt)
	if h.ProtocolVersion, err = s.ReadU16(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	return h, nil
}

func decodeCommandPayload(s *wire.Stream, m *Message) error {
	switch m.CommandID {
	case CmdSetModuleEnable, CmdSetUsrctlEnable:
		v, err := s.ReadU8()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		b := v != 0
		m.Enable = &b
	case CmdSetPulseParam:
		p := &PulseParam{}
		var err error
		if p.Index, err = s.ReadU8(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if p.Shape, err = s.ReadI8(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if p.Ampl, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if p.Options, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if p.WidthNS, err = s.ReadU32(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		length, err := s.ReadU16()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(length) > proto.MaxPulseCodeBits {
			return fmt.Errorf("%w: pulse code length %d exceeds maximum %d", ErrBadMsg, length, proto.MaxPulseCodeBits)
		}
		var raw []byte
		if length > 0 {
			raw, err = s.ReadBytes((int(length) + 7) / 8)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		code, err := proto.PulseCodeFromBytes(int(length), raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		p.Code = code
		m.PulseParam = p
	case CmdSetPulseSeq:
		n, err := s.ReadU16()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(n) > proto.MaxPulseSeqEntries {
			return fmt.Errorf("%w: pulse sequence length %d exceeds maximum %d", ErrBadMsg, n, proto.MaxPulseSeqEntries)
		}
		seq := make(proto.PulseSequence, n)
		for i := range seq {
			if seq[i].Slot, err = s.ReadU8(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			if seq[i].Flags, err = s.ReadU8(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		m.PulseSeq = seq
	case CmdSetPulseSeqIndex:
		idx, err := s.ReadU16()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		m.PulseSeqIndex = &idx
	case CmdSetTrigParam:
		t := &proto.TriggerParams{}
		var err error
		if t.Source, err = s.ReadU8(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if t.ExtOptions, err = s.ReadU8(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if t.InternalFreq, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if t.Predelay, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		m.TrigParam = t
	case CmdSetPhase:
		ps := &PhaseSet{}
		var err error
		if ps.Slot, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		n, err := s.ReadU16()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(n) > proto.MaxPhaseEntries {
			return fmt.Errorf("%w: phase table length %d exceeds maximum %d", ErrBadMsg, n, proto.MaxPhaseEntries)
		}
		entries := make(proto.PhaseTable, n)
		for i := range entries {
			if entries[i].Channel, err = s.ReadU16(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			if entries[i].Phase, err = s.ReadF32(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		ps.Entries = entries
		m.Phase = ps
	case CmdReset, CmdPing, CmdGetSysID, CmdGetSysStat:
		// no payload
	default:
		// unknown command id: not a decode error, payload left empty
	}
	return nil
}

func decodeResponsePayload(s *wire.Stream, m *Message) error {
	switch m.ResponseID {
	case RespSysID:
		id := &proto.SystemID{}
		mt, err := s.ReadI8()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		id.ModuleType = proto.ModuleType(mt)
		if id.ModuleVersion, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if id.FirmwareVersion, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if id.LogicVersion, err = s.ReadU16(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		switch id.ModuleType {
		case proto.ModuleSTX2:
			tail := &proto.STX2IDTail{}
			if tail.CardMap, err = s.ReadU16(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			if tail.PulseSlotLengthNS, err = s.ReadU32(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			id.STX2 = tail
		case proto.ModuleBSM:
			tail := &proto.BSMIDTail{}
			if tail.ChannelMap, err = s.ReadU16(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			id.BSM = tail
		default:
			return fmt.Errorf("%w: SYSID response has unknown module type %d", ErrBadMsg, mt)
		}
		m.SystemID = id
	case RespSysStat:
		st, err := decodeSysStat(s)
		if err != nil {
			return err
		}
		m.SystemStatus = st
	case RespAck, RespNak, RespUnk:
		// no payload
	default:
		// unknown response id: common 4-byte head already read, no more
	}
	return nil
}

func decodeSysStat(s *wire.Stream) (*proto.SystemStatus, error) {
	st := &proto.SystemStatus{}
	mt, err := s.ReadI8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}
	st.ModuleType = proto.ModuleType(mt)
	if st.ModuleStatus, err = s.ReadI8(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
	}

	switch st.ModuleType {
	case proto.ModuleSTX2:
		c := &proto.STX2Status{}
		if c.StatusCode, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if c.ChassisDataSize, err = s.ReadU8(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if c.RailSupply, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if c.RailAux, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if c.AmbientTemp, err = s.ReadI8(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		nFans, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(nFans) > proto.MaxChassisFans {
			return nil, fmt.Errorf("%w: n_chassis_fans %d exceeds maximum %d", ErrBadMsg, nFans, proto.MaxChassisFans)
		}
		c.FanSpeed = make([]uint16, nFans)
		for i := range c.FanSpeed {
			if c.FanSpeed[i], err = s.ReadU16(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		if c.CardMap, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		nCards, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(nCards) > proto.MaxRFCards {
			return nil, fmt.Errorf("%w: n_rf_cards %d exceeds maximum %d", ErrBadMsg, nCards, proto.MaxRFCards)
		}
		c.RFCardStat = make([]proto.RFCardStat, nCards)
		for i := range c.RFCardStat {
			card := &c.RFCardStat[i]
			if card.RailSupply, err = s.ReadU16(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			if card.HeatsinkTemp, err = s.ReadI16(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			nOut, err := s.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			if int(nOut) > proto.MaxRFOutputs {
				return nil, fmt.Errorf("%w: rf_card_stat[%d].n_rf_outputs %d exceeds maximum %d", ErrBadMsg, i, nOut, proto.MaxRFOutputs)
			}
			card.OutputStat = make([]proto.RFOutputStat, nOut)
			for j := range card.OutputStat {
				if card.OutputStat[j].ForwardPower, err = s.ReadU16(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
				}
				if card.OutputStat[j].ReturnLoss, err = s.ReadI16(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
				}
			}
		}
		nUnits, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(nUnits) > proto.MaxUnits {
			return nil, fmt.Errorf("%w: n_units %d exceeds maximum %d", ErrBadMsg, nUnits, proto.MaxUnits)
		}
		c.UnitStat = make([]proto.UnitStat, nUnits)
		for i := range c.UnitStat {
			unit := &c.UnitStat[i]
			if unit.Flags, err = s.ReadU8(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			ut, err := s.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
			unit.Type = proto.UnitType(ut)
			if unit.Type == proto.UnitExtCombinerSplitter {
				nTemp, err := s.ReadU8()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
				}
				if int(nTemp) > proto.MaxUnitTemps {
					return nil, fmt.Errorf("%w: unit_stat[%d].n_temperatures %d exceeds maximum %d", ErrBadMsg, i, nTemp, proto.MaxUnitTemps)
				}
				unit.Temperature = make([]int8, nTemp)
				for j := range unit.Temperature {
					if unit.Temperature[j], err = s.ReadI8(); err != nil {
						return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
					}
				}
				nOut, err := s.ReadU8()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
				}
				if int(nOut) > proto.MaxUnitOutputs {
					return nil, fmt.Errorf("%w: unit_stat[%d].n_outputs %d exceeds maximum %d", ErrBadMsg, i, nOut, proto.MaxUnitOutputs)
				}
				unit.Output = make([]proto.RFOutputStat, nOut)
				for j := range unit.Output {
					if unit.Output[j].ForwardPower, err = s.ReadU16(); err != nil {
						return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
					}
					if unit.Output[j].ReturnLoss, err = s.ReadI16(); err != nil {
						return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
					}
				}
			}
		}
		st.STX2 = c
	case proto.ModuleBSM:
		b := &proto.BSMStatus{}
		if b.StatusCode, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if b.RailSupply, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if b.RailAux, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if b.AmbientTemp, err = s.ReadI8(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if b.ChannelMap, err = s.ReadU16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		nFans, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(nFans) > proto.MaxFans {
			return nil, fmt.Errorf("%w: n_fans %d exceeds maximum %d", ErrBadMsg, nFans, proto.MaxFans)
		}
		b.FanSpeed = make([]uint16, nFans)
		for i := range b.FanSpeed {
			if b.FanSpeed[i], err = s.ReadU16(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		nHeat, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
		}
		if int(nHeat) > proto.MaxHeatsinkTemps {
			return nil, fmt.Errorf("%w: n_heatsink_temps %d exceeds maximum %d", ErrBadMsg, nHeat, proto.MaxHeatsinkTemps)
		}
		b.HeatsinkTemp = make([]int8, nHeat)
		for i := range b.HeatsinkTemp {
			if b.HeatsinkTemp[i], err = s.ReadI8(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadMsg, err)
			}
		}
		st.BSM = b
	default:
		return nil, fmt.Errorf("%w: SYSSTAT response has unknown module type %d", ErrBadMsg, mt)
	}
	return st, nil
}
