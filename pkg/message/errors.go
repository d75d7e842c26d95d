package message

import "errors"

// ErrBadMsg is returned whenever a frame fails a structural check: bad
// magic, bad length, a stream under/overflow, or a count field exceeding
// its domain maximum.
var ErrBadMsg = errors.New("message: malformed ARCP frame")
