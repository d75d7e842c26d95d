/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package framer implements the ARCP transport framer (L4): reading one
// framed message (or one line-oriented ASCII sideband message) from a
// blocking byte stream, with magic-number resynchronization.
package framer

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/atrad/go-arcp/pkg/message"
)

// ErrConnDropped maps a socket read that returned 0 bytes or an
// unrecoverable error.
var ErrConnDropped = errors.New("framer: connection dropped")

// ErrConnTimeout maps a socket read that would-block or timed out.
var ErrConnTimeout = errors.New("framer: read timed out")

// ErrBadMsg maps a structural framing failure (bad length).
var ErrBadMsg = errors.New("framer: malformed frame")

const maxASCIILine = 4 // including the trailing LF

// Mode selects which sideband(s) a Read call recognizes.
type Mode int

const (
	// ModeARCP recognizes only binary ARCP frames.
	ModeARCP Mode = iota
	// ModeASCII recognizes only LF-terminated ASCII lines.
	ModeASCII
	// ModeBoth recognizes either, typically used only on the first read
	// of a connection.
	ModeBoth
)

// Result is the outcome of one Read: exactly one of Frame or ASCII is set.
type Result struct {
	Frame []byte // complete ARCP frame, header included
	ASCII []byte // ASCII sideband payload, CR/LF stripped

	// Resynced is true if Read had to discard one or more bytes before
	// finding the magic number that starts Frame, i.e. the stream was
	// desynchronized (a partial frame, a dropped byte) and this Read
	// resynchronized on it. SkippedBytes counts how many.
	Resynced     bool
	SkippedBytes int
}

// byteReader is the minimal interface the framer needs from a connection.
type byteReader interface {
	Read(b []byte) (int, error)
}

// readFull reads exactly len(buf) bytes, resuming transparently across
// interrupted system calls and otherwise mapping the first unrecoverable
// error through classifyReadError.
func readFull(r byteReader, buf []byte) error {
	for n := 0; n < len(buf); {
		m, err := r.Read(buf[n:])
		n += m
		if err == nil {
			continue
		}
		if isInterrupted(err) {
			continue
		}
		return classifyReadError(err)
	}
	return nil
}

func isInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, syscall.EINTR)
}

// classifyReadError maps a socket-layer error that readFull could not
// resume past to the framer's two connection errors: would-block/timeout
// maps to ErrConnTimeout, 0-byte/EOF/unrecoverable maps to ErrConnDropped.
func classifyReadError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrConnDropped
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ErrConnTimeout
	}
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return ErrConnTimeout
	}
	return ErrConnDropped
}

// Read consumes bytes from r one at a time into a 32-bit shift register
// until either the register equals the ARCP magic number, or (when mode
// permits ASCII) the most recent byte is '\n'. On a magic match it then
// reads msg_length and the remaining frame body; on a line match it
// strips CR/LF and returns the ASCII payload.
func Read(r byteReader, mode Mode) (*Result, error) {
	var shift uint32
	var count int
	one := make([]byte, 1)
	var line []byte

	acceptASCII := mode == ModeASCII || mode == ModeBoth
	acceptARCP := mode == ModeARCP || mode == ModeBoth

	for {
		if err := readFull(r, one); err != nil {
			return nil, err
		}
		b := one[0]
		shift = shift<<8 | uint32(b)
		count++

		if acceptASCII {
			line = append(line, b)
			if len(line) > maxASCIILine {
				line = line[len(line)-maxASCIILine:]
			}
			if b == '\n' {
				return &Result{ASCII: trimLine(line)}, nil
			}
		}

		if acceptARCP && shift == message.Magic {
			res, err := readARCPBody(r, shift)
			if err != nil {
				return nil, err
			}
			if count > 4 {
				res.Resynced = true
				res.SkippedBytes = count - 4
			}
			return res, nil
		}
	}
}

func trimLine(line []byte) []byte {
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	out := make([]byte, n)
	copy(out, line[:n])
	return out
}

func readARCPBody(r byteReader, magic uint32) (*Result, error) {
	lenBuf := make([]byte, 2)
	if err := readFull(r, lenBuf); err != nil {
		return nil, err
	}
	msgLength := binary.BigEndian.Uint16(lenBuf)
	if msgLength <= message.HeaderSize || int(msgLength) > message.MaxMsgSize {
		return nil, ErrBadMsg
	}

	frame := make([]byte, msgLength)
	binary.BigEndian.PutUint32(frame[0:4], magic)
	copy(frame[4:6], lenBuf)

	if err := readFull(r, frame[6:]); err != nil {
		return nil, err
	}
	return &Result{Frame: frame}, nil
}
