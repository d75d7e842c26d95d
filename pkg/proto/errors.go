package proto

import "errors"

// ErrBadLength is returned by a container's length/count setter when the
// requested size exceeds the domain maximum for that container (§3 of
// SPEC_FULL.md). Callers in pkg/message map this to the BADMSG/LOCAL error
// kinds as appropriate for the direction (decode vs. local mutation).
var ErrBadLength = errors.New("proto: length exceeds domain maximum")

// ErrWrongVariant is returned when an accessor or encoder is asked to read
// or write the module-typed tail of a SystemID/SystemStatus that does not
// match the record's ModuleType (e.g. reading STX2 fields from a BSM
// record).
var ErrWrongVariant = errors.New("proto: wrong module-type variant")
