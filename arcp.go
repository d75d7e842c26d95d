/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package arcp implements the Atrad Radar Control Protocol exchange engine
// (L5): dialing a module, negotiating a protocol version, and issuing
// correlated request/response exchanges over the framed message codec.
package arcp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/atrad/go-arcp/pkg/framer"
	"github.com/atrad/go-arcp/pkg/message"
	"github.com/atrad/go-arcp/pkg/proto"
	"github.com/atrad/go-arcp/pkg/version"
)

var exchangeCounter uint32

// nextExchangeID returns the next exchange ID from a process-wide,
// monotonically wrapping counter. Exchange IDs need only be unlikely to
// collide with an outstanding exchange on the same Handle; a single
// connection never has more than one exchange outstanding (Exchange serializes
// them), so wraparound is harmless.
func nextExchangeID() uint16 {
	return uint16(atomic.AddUint32(&exchangeCounter, 1))
}

// Handle is one open ARCP connection: a master-side view that negotiates a
// protocol version downward from MaxProtocolVersion and serializes
// request/response exchanges, or a slave-side view used to decode commands
// and send correlated responses.
type Handle struct {
	ID xid.ID

	mu      sync.Mutex
	nc      net.Conn
	stats   *Stats
	version uint16
	ascii   bool
	log     *logrus.Entry
}

// Option configures a Handle at construction.
type Option func(*Handle)

// WithLogger attaches the structured logger the handle writes to: a warning
// when a read resynchronized past garbage, and a debug line when Exchange
// clamps the negotiated version down.
func WithLogger(l *logrus.Entry) Option {
	return func(h *Handle) { h.log = l }
}

// WithASCIISideband enables recognizing LF-terminated ASCII lines alongside
// binary ARCP frames on every read of this handle. A read that yields an
// ASCII line instead of a frame fails with KindBadMsg.
func WithASCIISideband(enabled bool) Option {
	return func(h *Handle) { h.ascii = enabled }
}

// WithInitialVersion overrides the protocol version a Handle starts
// negotiation from. Defaults to message.MaxProtocolVersion.
func WithInitialVersion(major, minor int) Option {
	return func(h *Handle) { h.version = version.Pair{Major: major, Minor: minor}.Encode() }
}

// NewHandle wraps an already-connected net.Conn (a TCP connection to an
// STX2 or BSM module, or the slave-side end of one) as an ARCP Handle.
func NewHandle(nc net.Conn, opts ...Option) *Handle {
	h := &Handle{
		ID:      xid.New(),
		stats:   newStats(),
		version: message.MaxProtocolVersion,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.nc = wrapConn(nc, h.stats)
	return h
}

// Dial opens a TCP connection to an ARCP module and wraps it as a Handle.
func Dial(network, addr string, opts ...Option) (*Handle, error) {
	nc, err := net.Dial(network, addr)
	if err != nil {
		return nil, newError(KindConnDropped, err, "dial %s %s", network, addr)
	}
	return NewHandle(nc, opts...), nil
}

// Close releases the underlying connection.
func (h *Handle) Close() error {
	return h.nc.Close()
}

// Conn exposes the handle's underlying instrumented net.Conn, for callers
// that need the raw socket (e.g. pkg/metrics extracting its file
// descriptor).
func (h *Handle) Conn() net.Conn {
	return h.nc
}

// Stats returns a snapshot of this handle's traffic counters.
func (h *Handle) Stats() Stats {
	return h.stats.Snapshot()
}

// Version returns the currently negotiated (major, minor) protocol version.
func (h *Handle) Version() version.Pair {
	return version.Decode(h.version)
}

func (h *Handle) send(m *message.Message) error {
	m.Header.ProtocolVersion = h.version
	buf, err := message.Encode(m)
	if err != nil {
		return newError(KindBadMsg, err, "encode %v", m)
	}
	for n := 0; n < len(buf); {
		written, err := h.nc.Write(buf[n:])
		n += written
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return newError(KindConnTimeout, err, "write")
			}
			return newError(KindConnDropped, err, "write")
		}
	}
	return nil
}

func (h *Handle) recv() (*message.Message, error) {
	mode := framer.ModeARCP
	if h.ascii {
		mode = framer.ModeBoth
	}
	res, err := framer.Read(h.nc, mode)
	if err != nil {
		return nil, h.classifyFramerErr(err)
	}
	if res.Frame == nil {
		return nil, newError(KindBadMsg, nil, "unexpected ASCII sideband line %q", res.ASCII)
	}
	if res.Resynced {
		h.stats.recordResync()
		h.log.WithFields(logrus.Fields{
			"handle":        h.ID.String(),
			"skipped_bytes": res.SkippedBytes,
		}).Warn("resynchronized after garbage on the wire")
	}
	m, err := message.Decode(res.Frame)
	if err != nil {
		return nil, newError(KindBadMsg, err, "decode frame")
	}
	return m, nil
}

func (h *Handle) classifyFramerErr(err error) error {
	switch {
	case err == framer.ErrConnTimeout:
		h.stats.incr(&h.stats.Timeouts)
		return newError(KindConnTimeout, err, "read")
	case err == framer.ErrConnDropped:
		h.stats.incr(&h.stats.Dropped)
		return newError(KindConnDropped, err, "read")
	default:
		return newError(KindBadMsg, err, "read")
	}
}

// responseAllowed reports whether respID is a permitted reply to cmdID:
// the data-bearing response specific to that command, or the universal
// ACK/NAK/UNK triad.
func responseAllowed(cmdID message.CommandID, respID message.ResponseID) bool {
	switch respID {
	case message.RespAck, message.RespNak, message.RespUnk:
		return true
	case message.RespSysID:
		return cmdID == message.CmdGetSysID
	case message.RespSysStat:
		return cmdID == message.CmdGetSysStat
	default:
		return false
	}
}

// Exchange sends cmd and returns the correlated response, validating
// exchange-ID correlation, protocol version agreement, and response-ID
// legality per spec.md §4.5/§7. On success it clamps the negotiated version
// down to whatever the module actually replied with.
func (h *Handle) Exchange(cmd *message.Message) (*message.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !cmd.IsCommand() {
		return nil, newError(KindNotCmd, nil, "Exchange requires a command message")
	}
	cmd.Header.ExchangeID = nextExchangeID()

	if err := h.send(cmd); err != nil {
		return nil, err
	}
	h.stats.incr(&h.stats.Exchanges)

	resp, err := h.recv()
	if err != nil {
		return nil, err
	}
	if !resp.IsResponse() {
		return nil, newError(KindNotResp, nil, "expected response, got command %v", resp.CommandID)
	}
	if resp.Header.ExchangeID != cmd.Header.ExchangeID {
		return nil, newError(KindSequence, nil, "exchange id %d does not match outstanding %d", resp.Header.ExchangeID, cmd.Header.ExchangeID)
	}
	if resp.Header.ProtocolVersion > cmd.Header.ProtocolVersion {
		return nil, newError(KindBadProtoVer, nil, "response declares version %#04x newer than command's %#04x", resp.Header.ProtocolVersion, cmd.Header.ProtocolVersion)
	}
	if !responseAllowed(cmd.CommandID, resp.ResponseID) {
		return nil, newError(KindBadResponse, nil, "response id %d not permitted for command %v", resp.ResponseID, cmd.CommandID)
	}
	if resp.Header.ProtocolVersion < h.version {
		h.stats.incr(&h.stats.VersionClamps)
		h.log.WithFields(logrus.Fields{
			"handle": h.ID.String(),
			"from":   version.Decode(h.version),
			"to":     version.Decode(resp.Header.ProtocolVersion),
		}).Debug("clamping negotiated protocol version down")
		h.version = resp.Header.ProtocolVersion
	}
	if resp.ResponseID == message.RespNak {
		h.stats.incr(&h.stats.NAKs)
	}
	return resp, nil
}

// respErr turns a non-ACK response (NAK/UNK, or a command-specific response
// that still failed) into a Go error, nil for a plain ACK or data response.
func respErr(resp *message.Message) error {
	switch resp.ResponseID {
	case message.RespNak:
		return newError(KindBadResponse, nil, "module NAK, info_code %d", resp.InfoCode)
	case message.RespUnk:
		return newError(KindUnknownCmd, nil, "module UNK, info_code %d", resp.InfoCode)
	default:
		return nil
	}
}

// respErrCode is respErr for commands whose NAK info_code is itself a
// module-specific error code (SET_PULSE_PARAM, SET_PULSE_SEQ,
// SET_TRIG_PARAM per spec.md §4.5/§6, e.g. an STX2 "-200 pulse too long for
// slot"), rather than a generic rejection. The code is attached to the
// returned error and recoverable with InfoCodeOf, mirroring Kind.Code's
// negative-code convention in the other direction.
func respErrCode(resp *message.Message) error {
	switch resp.ResponseID {
	case message.RespNak:
		e := newError(KindBadResponse, nil, "module NAK, info_code %d", resp.InfoCode)
		code := resp.InfoCode
		e.infoCode = &code
		return e
	case message.RespUnk:
		return newError(KindUnknownCmd, nil, "module UNK, info_code %d", resp.InfoCode)
	default:
		return nil
	}
}

// Ping issues PING and returns nil if the module replied ACK.
func (h *Handle) Ping() error {
	resp, err := h.Exchange(message.NewCommand(message.CmdPing))
	if err != nil {
		return err
	}
	return respErr(resp)
}

// Reset issues RESET and returns nil if the module replied ACK.
func (h *Handle) Reset() error {
	resp, err := h.Exchange(message.NewCommand(message.CmdReset))
	if err != nil {
		return err
	}
	return respErr(resp)
}

// GetSysID issues GET_SYSID and returns the module's identity record.
func (h *Handle) GetSysID() (*proto.SystemID, error) {
	resp, err := h.Exchange(message.NewCommand(message.CmdGetSysID))
	if err != nil {
		return nil, err
	}
	if err := respErr(resp); err != nil {
		return nil, err
	}
	if resp.ResponseID != message.RespSysID {
		return nil, newError(KindBadResponse, nil, "GET_SYSID answered with response id %d, not SYSID", resp.ResponseID)
	}
	return resp.SystemID, nil
}

// GetSysStat issues GET_SYSSTAT and returns the module's status record.
func (h *Handle) GetSysStat() (*proto.SystemStatus, error) {
	resp, err := h.Exchange(message.NewCommand(message.CmdGetSysStat))
	if err != nil {
		return nil, err
	}
	if err := respErr(resp); err != nil {
		return nil, err
	}
	if resp.ResponseID != message.RespSysStat {
		return nil, newError(KindBadResponse, nil, "GET_SYSSTAT answered with response id %d, not SYSSTAT", resp.ResponseID)
	}
	return resp.SystemStatus, nil
}

// SetModuleEnable issues SET_MODULE_ENABLE.
func (h *Handle) SetModuleEnable(enable bool) error {
	cmd := message.NewCommand(message.CmdSetModuleEnable)
	cmd.Enable = &enable
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErr(resp)
}

// SetUsrctlEnable issues SET_USRCTL_ENABLE.
func (h *Handle) SetUsrctlEnable(enable bool) error {
	cmd := message.NewCommand(message.CmdSetUsrctlEnable)
	cmd.Enable = &enable
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErr(resp)
}

// SetPulseParam issues SET_PULSE_PARAM for the given slot index. A NAK's
// info_code is a module-specific error code, recoverable from the returned
// error with InfoCodeOf.
func (h *Handle) SetPulseParam(p *message.PulseParam) error {
	cmd := message.NewCommand(message.CmdSetPulseParam)
	cmd.PulseParam = p
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErrCode(resp)
}

// SetPulseSeq issues SET_PULSE_SEQ with the given sequence. A NAK's
// info_code is a module-specific error code, recoverable from the returned
// error with InfoCodeOf.
func (h *Handle) SetPulseSeq(seq proto.PulseSequence) error {
	cmd := message.NewCommand(message.CmdSetPulseSeq)
	cmd.PulseSeq = seq
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErrCode(resp)
}

// SetPulseSeqIndex issues SET_PULSE_SEQ_INDEX, restarting sequence playback
// at the given index.
func (h *Handle) SetPulseSeqIndex(index uint16) error {
	cmd := message.NewCommand(message.CmdSetPulseSeqIndex)
	cmd.PulseSeqIndex = &index
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErr(resp)
}

// SetTrigParam issues SET_TRIG_PARAM. A NAK's info_code is a
// module-specific error code, recoverable from the returned error with
// InfoCodeOf.
func (h *Handle) SetTrigParam(p *proto.TriggerParams) error {
	cmd := message.NewCommand(message.CmdSetTrigParam)
	cmd.TrigParam = p
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErrCode(resp)
}

// SetPhase issues SET_PHASE, which requires a negotiated protocol version of
// at least 1.1. On a connection still negotiated at 1.0 this returns a
// KindUnknownCmd error without writing anything to the wire, matching a
// module that would itself UNK the command.
func (h *Handle) SetPhase(slot uint16, entries proto.PhaseTable) error {
	h.mu.Lock()
	current := h.version
	h.mu.Unlock()
	if !version.AtLeast(current, 1, 1) {
		return newError(KindUnknownCmd, nil, "SET_PHASE requires protocol version >= 1.1, handle negotiated at %v", version.Decode(current))
	}
	cmd := message.NewCommand(message.CmdSetPhase)
	cmd.Phase = &message.PhaseSet{Slot: slot, Entries: entries}
	resp, err := h.Exchange(cmd)
	if err != nil {
		return err
	}
	return respErr(resp)
}

// Receive reads and decodes the next command from the peer, for the
// slave-side of a Handle. Use with SendAck/SendNak/SendUnk/SendSysID/
// SendSysStat to answer it.
func (h *Handle) Receive() (*message.Message, error) {
	m, err := h.recv()
	if err != nil {
		return nil, err
	}
	if !m.IsCommand() {
		return nil, newError(KindNotCmd, nil, "expected command, got response %v", m.ResponseID)
	}
	return m, nil
}

// SendAck replies to cmd with a plain ACK.
func (h *Handle) SendAck(cmd *message.Message) error {
	return h.send(message.NewResponse(cmd, message.RespAck, 0))
}

// SendNak replies to cmd with a NAK carrying infoCode, typically a Kind's
// negative Code().
func (h *Handle) SendNak(cmd *message.Message, infoCode int16) error {
	h.stats.incr(&h.stats.NAKs)
	return h.send(message.NewResponse(cmd, message.RespNak, infoCode))
}

// SendUnk replies to cmd with UNK, indicating an unrecognized command ID or
// one unavailable at the negotiated protocol version.
func (h *Handle) SendUnk(cmd *message.Message) error {
	return h.send(message.NewResponse(cmd, message.RespUnk, 0))
}

// SendSysID replies to a GET_SYSID command with id.
func (h *Handle) SendSysID(cmd *message.Message, id *proto.SystemID) error {
	if err := id.Validate(); err != nil {
		return newError(KindInternal, err, "SendSysID")
	}
	resp := message.NewResponse(cmd, message.RespSysID, 0)
	resp.SystemID = id
	return h.send(resp)
}

// SendSysStat replies to a GET_SYSSTAT command with stat.
func (h *Handle) SendSysStat(cmd *message.Message, stat *proto.SystemStatus) error {
	if err := stat.Validate(); err != nil {
		return newError(KindInternal, err, "SendSysStat")
	}
	resp := message.NewResponse(cmd, message.RespSysStat, 0)
	resp.SystemStatus = stat
	return h.send(resp)
}

// String renders a short diagnostic identity for logging.
func (h *Handle) String() string {
	return fmt.Sprintf("arcp.Handle{id=%s, version=%v}", h.ID, h.Version())
}
