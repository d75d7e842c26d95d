/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package message implements the ARCP message codec (L3): mapping an
// in-memory Message value to and from a framed byte stream, including
// exact wire-size precomputation.
package message

import (
	"fmt"

	"github.com/atrad/go-arcp/pkg/proto"
	"github.com/atrad/go-arcp/pkg/wire"
)

// Magic is the 4-byte ASCII sequence "ARCP" that begins every frame.
const Magic uint32 = 0x41524350

// MaxMsgSize is the largest frame, header included, the wire format
// allows.
const MaxMsgSize = 1024

// HeaderSize is the fixed size of the common frame header.
const HeaderSize = 11

// MaxProtocolVersion is the highest (major<<8)|minor pair this library
// supports: 1.1.
const MaxProtocolVersion uint16 = 0x0101

// Type distinguishes a command frame from a response frame.
type Type uint8

const (
	TypeCommand  Type = 0
	TypeResponse Type = 1
)

// CommandID enumerates the command IDs a master may issue.
type CommandID uint16

const (
	CmdReset            CommandID = 0x0000
	CmdPing             CommandID = 0x0001
	CmdGetSysID         CommandID = 0x0002
	CmdGetSysStat       CommandID = 0x0010
	CmdSetModuleEnable  CommandID = 0x0020
	CmdSetPulseParam    CommandID = 0x0101
	CmdSetPulseSeq      CommandID = 0x0102
	CmdSetPulseSeqIndex CommandID = 0x0103
	CmdSetTrigParam     CommandID = 0x0110
	CmdSetUsrctlEnable  CommandID = 0x01f0
	CmdSetPhase         CommandID = 0x0200
)

// ResponseID enumerates the response IDs a slave may reply with. Negative
// values are the protocol-level UNK and NAK responses and zero is ACK;
// positive values echo the data-bearing GET_* command they answer.
type ResponseID int16

const (
	RespUnk     ResponseID = -2
	RespNak     ResponseID = -1
	RespAck     ResponseID = 0
	RespSysID   ResponseID = 0x02
	RespSysStat ResponseID = 0x10
)

// Header is the fixed 11-byte frame prefix common to every command and
// response.
type Header struct {
	Magic           uint32
	MsgLength       uint16
	ExchangeID      uint16
	MsgType         Type
	ProtocolVersion uint16
}

// PulseParam is the fixed-size portion of a SET_PULSE_PARAM command,
// together with its attached pulse code (nil for the wire's null code).
type PulseParam struct {
	Index   uint8
	Shape   int8
	Ampl    uint16
	Options uint16
	WidthNS uint32
	Code    *proto.PulseCode
}

// PhaseSet is the payload of a SET_PHASE command: a target phase slot plus
// the phase-table entries to write into it.
type PhaseSet struct {
	Slot    uint16
	Entries proto.PhaseTable
}

// Message is the top-level value exchanged over an ARCP connection. It
// owns whatever dynamic payload it references (PulseCode, PulseSequence,
// PhaseTable, SystemID, SystemStatus); discarding a Message discards those.
//
// At most one of the payload fields below is populated, selected by
// (Header.MsgType, CommandID) for a command or (Header.MsgType, ResponseID)
// for a response; an ID that carries no payload populates none. Fields
// irrelevant to the message's ID are left zero.
type Message struct {
	Header     Header
	CommandID  CommandID  // valid when Header.MsgType == TypeCommand
	ResponseID ResponseID // valid when Header.MsgType == TypeResponse
	InfoCode   int16      // valid when Header.MsgType == TypeResponse

	Enable        *bool // SET_MODULE_ENABLE, SET_USRCTL_ENABLE
	PulseParam    *PulseParam
	PulseSeq      proto.PulseSequence
	PulseSeqIndex *uint16
	TrigParam     *proto.TriggerParams
	Phase         *PhaseSet
	SystemID      *proto.SystemID
	SystemStatus  *proto.SystemStatus
}

// IsCommand reports whether m is a command frame.
func (m *Message) IsCommand() bool { return m.Header.MsgType == TypeCommand }

// IsResponse reports whether m is a response frame.
func (m *Message) IsResponse() bool { return m.Header.MsgType == TypeResponse }

// NewCommand builds a bare command Message with the given ID. Callers
// populate the relevant payload field(s) afterward.
func NewCommand(id CommandID) *Message {
	return &Message{
		Header:    Header{Magic: Magic, MsgType: TypeCommand},
		CommandID: id,
	}
}

// NewResponse builds a bare response Message with the given ID and info
// code, correlated to cmd's exchange ID. Callers populate the relevant
// payload field(s) afterward.
func NewResponse(cmd *Message, id ResponseID, infoCode int16) *Message {
	return &Message{
		Header: Header{
			Magic:      Magic,
			ExchangeID: cmd.Header.ExchangeID,
			MsgType:    TypeResponse,
		},
		ResponseID: id,
		InfoCode:   infoCode,
	}
}

func ceilDiv8(bits int) int {
	return (bits + 7) / 8
}

// Size computes the exact wire size of m, including the 11-byte header,
// per the rules in SPEC_FULL.md / spec.md §4.3.
func (m *Message) Size() (int, error) {
	size := HeaderSize
	if m.IsCommand() {
		size += 2 // command id
		switch m.CommandID {
		case CmdSetModuleEnable, CmdSetUsrctlEnable:
			size += 1
		case CmdSetPulseParam:
			if m.PulseParam == nil {
				return 0, fmt.Errorf("%w: SET_PULSE_PARAM missing payload", ErrBadMsg)
			}
			size += 10 + 2
			size += ceilDiv8(m.PulseParam.Code.Length())
		case CmdSetPulseSeq:
			size += 2 + 2*len(m.PulseSeq)
		case CmdSetPulseSeqIndex:
			size += 2
		case CmdSetTrigParam:
			size += 6
		case CmdSetPhase:
			if m.Phase == nil {
				return 0, fmt.Errorf("%w: SET_PHASE missing payload", ErrBadMsg)
			}
			size += 4 + 6*len(m.Phase.Entries)
		case CmdReset, CmdPing, CmdGetSysID, CmdGetSysStat:
			// no payload
		default:
			// unknown command id, no payload convention defined
		}
		return size, nil
	}

	size += 4 // resp id + info code
	switch m.ResponseID {
	case RespSysID:
		size += 7
		if m.SystemID == nil {
			return 0, fmt.Errorf("%w: SYSID response missing SystemID payload", ErrBadMsg)
		}
		switch m.SystemID.ModuleType {
		case proto.ModuleSTX2:
			size += 6
		case proto.ModuleBSM:
			size += 2
		default:
			return 0, fmt.Errorf("%w: SYSID response has unset module type", ErrBadMsg)
		}
	case RespSysStat:
		size += 2
		if m.SystemStatus == nil {
			return 0, fmt.Errorf("%w: SYSSTAT response missing SystemStatus payload", ErrBadMsg)
		}
		n, err := sysStatPayloadSize(m.SystemStatus)
		if err != nil {
			return 0, err
		}
		size += n
	case RespAck, RespNak, RespUnk:
		// no payload
	default:
		// unknown response id, common 4-byte head only
	}
	return size, nil
}

func sysStatPayloadSize(s *proto.SystemStatus) (int, error) {
	switch s.ModuleType {
	case proto.ModuleSTX2:
		st := s.STX2
		if st == nil {
			return 0, fmt.Errorf("%w: STX2 module type missing STX2 payload", ErrBadMsg)
		}
		n := 2 + 1 + 2 + 2 + 1 + 1 + 2*len(st.FanSpeed) + 2 + 1
		for _, card := range st.RFCardStat {
			n += 2 + 2 + 1 + 4*len(card.OutputStat)
		}
		n += 1
		for _, unit := range st.UnitStat {
			n += 2
			if unit.Type == proto.UnitExtCombinerSplitter {
				n += 1 + len(unit.Temperature) + 1 + 4*len(unit.Output)
			}
		}
		return n, nil
	case proto.ModuleBSM:
		bs := s.BSM
		if bs == nil {
			return 0, fmt.Errorf("%w: BSM module type missing BSM payload", ErrBadMsg)
		}
		n := 2 + 2 + 2 + 1 + 2 + 1 + 2*len(bs.FanSpeed) + 1 + len(bs.HeatsinkTemp)
		return n, nil
	default:
		return 0, fmt.Errorf("%w: SYSSTAT response has unset module type", ErrBadMsg)
	}
}
