package arcp

import (
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/atrad/go-arcp/pkg/message"
	"github.com/atrad/go-arcp/pkg/proto"
)

func TestHandle_PingRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	hc := NewHandle(client)
	hs := NewHandle(server)
	defer hc.Close()
	defer hs.Close()

	done := make(chan error, 1)
	go func() {
		cmd, err := hs.Receive()
		if err != nil {
			done <- err
			return
		}
		done <- hs.SendAck(cmd)
	}()

	assert.NilError(t, hc.Ping())
	assert.NilError(t, <-done)
}

func TestHandle_GetSysID(t *testing.T) {
	client, server := net.Pipe()
	hc := NewHandle(client)
	hs := NewHandle(server)
	defer hc.Close()
	defer hs.Close()

	want := &proto.SystemID{
		ModuleType:      proto.ModuleBSM,
		ModuleVersion:   1,
		FirmwareVersion: 2,
		LogicVersion:    3,
		BSM:             &proto.BSMIDTail{ChannelMap: 0xFF},
	}

	go func() {
		cmd, err := hs.Receive()
		assert.NilError(t, err)
		assert.NilError(t, hs.SendSysID(cmd, want))
	}()

	got, err := hc.GetSysID()
	assert.NilError(t, err)
	assert.DeepEqual(t, got, want)
}

// TestHandle_Exchange_SequenceMismatch reproduces spec.md's testable
// property #9: a response whose exchange_id does not match the outstanding
// command surfaces KindSequence.
func TestHandle_Exchange_SequenceMismatch(t *testing.T) {
	client, server := net.Pipe()
	hc := NewHandle(client)
	hs := NewHandle(server)
	defer hc.Close()
	defer hs.Close()

	go func() {
		cmd, err := hs.Receive()
		assert.NilError(t, err)
		resp := message.NewResponse(cmd, message.RespAck, 0)
		resp.Header.ExchangeID = cmd.Header.ExchangeID + 1
		_ = hs.send(resp)
	}()

	err := hc.Ping()
	assert.ErrorIs(t, err, KindSequence)
}

// TestHandle_Exchange_VersionClamp reproduces testable property #10: a
// response declaring a lower protocol version clamps the handle's
// negotiated version down.
func TestHandle_Exchange_VersionClamp(t *testing.T) {
	client, server := net.Pipe()
	hc := NewHandle(client)
	hs := NewHandle(server, WithInitialVersion(1, 0))
	defer hc.Close()
	defer hs.Close()

	assert.Equal(t, hc.Version().Minor, 1)

	go func() {
		cmd, err := hs.Receive()
		assert.NilError(t, err)
		resp := message.NewResponse(cmd, message.RespAck, 0)
		resp.Header.ProtocolVersion = hs.version
		_ = hs.send(resp)
	}()

	assert.NilError(t, hc.Ping())
	assert.Equal(t, hc.Version().Major, 1)
	assert.Equal(t, hc.Version().Minor, 0)
}

// recordingConn is a net.Conn whose Write calls are all recorded, used to
// verify that a version-gated command is rejected without touching the
// wire (spec.md Scenario C).
type recordingConn struct {
	net.Conn
	writes [][]byte
}

func (c *recordingConn) Write(b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	c.writes = append(c.writes, cp)
	return len(b), nil
}

func (c *recordingConn) Read(b []byte) (int, error) {
	<-time.After(time.Hour)
	return 0, nil
}

func (c *recordingConn) Close() error { return nil }

func TestHandle_SetPhase_RequiresVersion11(t *testing.T) {
	rc := &recordingConn{}
	h := NewHandle(rc, WithInitialVersion(1, 0))

	err := h.SetPhase(0, proto.PhaseTable{{Channel: 0, Phase: 1.5}})
	assert.ErrorIs(t, err, KindUnknownCmd)
	assert.Equal(t, len(rc.writes), 0)
}
