/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

package arcp

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error kinds the exchange engine and its
// collaborators raise. Every error returned by a Handle method wraps one of
// these; the pkg/ packages below it return their own sentinel errors, which
// the Handle wraps under a Kind.
type Kind int

const (
	// KindInternal marks a programmer error: wrong message type handed to
	// an API, a missing output, or an invalid ID chosen for a "simple"
	// wrapper.
	KindInternal Kind = iota
	// KindLocal marks an allocation failure or other locally-detectable
	// resource exhaustion.
	KindLocal
	// KindBadMsg marks a structural wire-format failure.
	KindBadMsg
	// KindBadProtoVer marks a response declaring a newer protocol version
	// than the command that elicited it.
	KindBadProtoVer
	// KindBadResponse marks a response ID that is not permitted for the
	// issuing command, and a module's NAK reply to a typed command wrapper.
	KindBadResponse
	// KindSequence marks a response exchange_id that does not match the
	// outstanding command.
	KindSequence
	// KindNotCmd marks an API that expected a command being handed a
	// response.
	KindNotCmd
	// KindNotResp marks an API that expected a response being handed a
	// command.
	KindNotResp
	// KindUnknownCmd marks a module's UNK reply to a typed command wrapper,
	// and SetPhase refused locally below protocol 1.1. Callers implementing
	// slave-side dispatch can also use it for an unrecognized command ID.
	KindUnknownCmd
	// KindUnknownResp is reserved for callers implementing slave-side
	// dispatch of an unrecognized response ID.
	KindUnknownResp
	// KindConnTimeout marks a socket read/write that reported would-block
	// or timeout.
	KindConnTimeout
	// KindConnDropped marks a socket read or write that returned 0 bytes or
	// an unrecoverable error, and a failed Dial.
	KindConnDropped
)

// Error lets a bare Kind value be used directly as an errors.Is target,
// e.g. errors.Is(err, arcp.KindSequence).
func (k Kind) Error() string {
	return k.String()
}

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "INTERNAL"
	case KindLocal:
		return "LOCAL"
	case KindBadMsg:
		return "BADMSG"
	case KindBadProtoVer:
		return "BAD_PROTO_VER"
	case KindBadResponse:
		return "BAD_RESPONSE"
	case KindSequence:
		return "SEQUENCE"
	case KindNotCmd:
		return "NOT_CMD"
	case KindNotResp:
		return "NOT_RESP"
	case KindUnknownCmd:
		return "UNKNOWN_CMD"
	case KindUnknownResp:
		return "UNKNOWN_RESP"
	case KindConnTimeout:
		return "CONN_TIMEOUT"
	case KindConnDropped:
		return "CONN_DROPPED"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code returns the negative API return-code value historically associated
// with this Kind, for callers that bridge to the original C-style negative
// return convention (e.g. a NAK info_code).
func (k Kind) Code() int16 {
	return -int16(k) - 1
}

// Error wraps a Kind with context. It participates in errors.Is/As via
// Unwrap and via a Kind-only sentinel comparison through errors.Is(err,
// SomeKind) — see Is.
type Error struct {
	Kind Kind
	msg  string
	err  error

	// infoCode is set for a NAK whose module-specific info_code (e.g. an
	// STX2 "-200 pulse too long for slot") is itself meaningful to the
	// caller, as opposed to the generic NAK handling in respErr. See
	// InfoCode and Kind.Code, the bridge this mirrors in the other
	// direction.
	infoCode *int16
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is the same Kind as e, so that
// errors.Is(err, arcp.KindSequence) works without a sentinel var per kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// InfoCode returns the module-specific NAK info_code carried by e, if any.
// ok is false for errors not produced from a NAK with a meaningful code
// (e.g. SetPulseParam/SetPulseSeq/SetTrigParam's rejection path).
func (e *Error) InfoCode() (code int16, ok bool) {
	if e.infoCode == nil {
		return 0, false
	}
	return *e.infoCode, true
}

// newError builds an *Error of the given kind, wrapping cause (which may be
// nil) and formatting msg/args as context.
func newError(kind Kind, cause error, msg string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(msg, args...), err: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (k Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// InfoCodeOf extracts a module-specific NAK info_code from err if it (or
// something it wraps) is an *Error carrying one; ok is false otherwise.
func InfoCodeOf(err error) (code int16, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.InfoCode()
	}
	return 0, false
}
