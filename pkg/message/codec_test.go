package message

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/atrad/go-arcp/pkg/proto"
)

func TestEncode_PingScenarioA(t *testing.T) {
	cmd := NewCommand(CmdPing)
	cmd.Header.ExchangeID = 0x002A
	cmd.Header.ProtocolVersion = 0x0001

	got, err := Encode(cmd)
	assert.NilError(t, err)
	want := []byte{0x41, 0x52, 0x43, 0x50, 0x00, 0x0D, 0x00, 0x2A, 0x00, 0x00, 0x01, 0x00, 0x01}
	assert.DeepEqual(t, got, want)

	decoded, err := Decode(want)
	assert.NilError(t, err)
	assert.Equal(t, decoded.CommandID, CmdPing)
	assert.Equal(t, decoded.Header.ExchangeID, uint16(0x002A))
}

func TestEncode_PingResponseScenarioA(t *testing.T) {
	cmd := NewCommand(CmdPing)
	cmd.Header.ExchangeID = 0x002A
	resp := NewResponse(cmd, RespAck, 0)
	resp.Header.ProtocolVersion = 0x0001

	got, err := Encode(resp)
	assert.NilError(t, err)
	want := []byte{0x41, 0x52, 0x43, 0x50, 0x00, 0x0F, 0x00, 0x2A, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	assert.DeepEqual(t, got, want)

	decoded, err := Decode(want)
	assert.NilError(t, err)
	assert.Equal(t, decoded.ResponseID, RespAck)
	assert.Equal(t, decoded.Header.ExchangeID, uint16(0x002A))
}

func TestDecode_SysStatBSMScenarioB(t *testing.T) {
	cmd := NewCommand(CmdGetSysStat)
	cmd.Header.ExchangeID = 1
	resp := NewResponse(cmd, RespSysStat, 0)
	resp.SystemStatus = &proto.SystemStatus{
		ModuleType:   proto.ModuleBSM,
		ModuleStatus: 0,
		BSM: &proto.BSMStatus{
			StatusCode:   0x0000,
			RailSupply:   5000,
			RailAux:      3000,
			AmbientTemp:  25,
			ChannelMap:   0x000F,
			FanSpeed:     []uint16{1500},
			HeatsinkTemp: []int8{30},
		},
	}

	raw, err := Encode(resp)
	assert.NilError(t, err)

	decoded, err := Decode(raw)
	assert.NilError(t, err)
	assert.Equal(t, decoded.SystemStatus.BSM.RailSupply, uint16(5000))
	assert.Equal(t, len(decoded.SystemStatus.BSM.FanSpeed), 1)
}

func TestSize_AgreesWithEncodedLength(t *testing.T) {
	cmd := NewCommand(CmdSetPulseSeq)
	cmd.PulseSeq = proto.PulseSequence{{Slot: 1, Flags: 2}, {Slot: 3, Flags: 4}}

	size, err := cmd.Size()
	assert.NilError(t, err)

	raw, err := Encode(cmd)
	assert.NilError(t, err)
	assert.Equal(t, len(raw), size)
	assert.Equal(t, int(cmd.Header.MsgLength), size)
}

func TestRoundTrip_SetPulseParamWithCode(t *testing.T) {
	code := proto.NewPulseCode()
	assert.NilError(t, code.SetBit(3, true))
	assert.NilError(t, code.SetBit(7, true))

	cmd := NewCommand(CmdSetPulseParam)
	cmd.PulseParam = &PulseParam{
		Index:   1,
		Shape:   -1,
		Ampl:    100,
		Options: 0,
		WidthNS: 1000,
		Code:    code,
	}

	raw, err := Encode(cmd)
	assert.NilError(t, err)

	decoded, err := Decode(raw)
	assert.NilError(t, err)
	assert.Equal(t, decoded.PulseParam.Code.Length(), 8)
	assert.Equal(t, decoded.PulseParam.Code.GetBit(3), true)
	assert.Equal(t, decoded.PulseParam.Code.GetBit(4), false)
}

func TestRoundTrip_NullPulseCodeStaysNull(t *testing.T) {
	cmd := NewCommand(CmdSetPulseParam)
	cmd.PulseParam = &PulseParam{Index: 0, Code: nil}

	raw, err := Encode(cmd)
	assert.NilError(t, err)

	decoded, err := Decode(raw)
	assert.NilError(t, err)
	assert.Equal(t, decoded.PulseParam.Code, (*proto.PulseCode)(nil))
}

func TestDecode_OversizedFrameRejected(t *testing.T) {
	raw := make([]byte, HeaderSize)
	raw[0], raw[1], raw[2], raw[3] = 0x41, 0x52, 0x43, 0x50
	raw[4], raw[5] = 0x08, 0x00 // 2048, big-endian
	_, err := Decode(raw)
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestDecode_BadMagicRejected(t *testing.T) {
	raw := make([]byte, HeaderSize)
	raw[0], raw[1], raw[2], raw[3] = 0, 0, 0, 0
	raw[4], raw[5] = 0, HeaderSize
	_, err := Decode(raw)
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestDecode_PulseSeqCountCapEnforced(t *testing.T) {
	cmd := NewCommand(CmdSetPulseSeq)
	raw, err := Encode(cmd)
	assert.NilError(t, err)

	// Tamper with the count field to exceed the domain maximum.
	raw[HeaderSize+2] = 0xFF
	raw[HeaderSize+3] = 0xFF

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrBadMsg)
}
