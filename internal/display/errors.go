package display

import (
	"errors"
	"fmt"
)

// Code is a display subsystem status code. Zero means success and is never
// returned as an error; nonzero values follow the CoreGraphics CGError
// numbering so every backend reports failures in one vocabulary.
type Code int32

const (
	Success           Code = 0
	Failure           Code = 1000
	IllegalArgument   Code = 1001
	InvalidConnection Code = 1002
	InvalidContext    Code = 1003
	CannotComplete    Code = 1004
	NotImplemented    Code = 1006
	RangeCheck        Code = 1007
	TypeCheck         Code = 1008
	InvalidOperation  Code = 1010
	NoneAvailable     Code = 1011
)

var codeNames = map[Code]string{
	Success:           "success",
	Failure:           "failure",
	IllegalArgument:   "illegal argument",
	InvalidConnection: "invalid connection",
	InvalidContext:    "invalid context",
	CannotComplete:    "cannot complete",
	NotImplemented:    "not implemented",
	RangeCheck:        "range check",
	TypeCheck:         "type check",
	InvalidOperation:  "invalid operation",
	NoneAvailable:     "none available",
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c Code) Error() string {
	return fmt.Sprintf("display subsystem error %d (%s)", int32(c), c.String())
}

// ErrModeNotFound reports a mode index outside the catalog. It is a user input
// error and never carries a subsystem Code.
var ErrModeNotFound = errors.New("no such display mode index")

// CodeOf extracts the subsystem code carried by err. A nil error yields
// Success; an error without a Code yields Failure.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return Failure
}

// FromCode converts a raw status into an error, mapping Success to nil.
func FromCode(code Code) error {
	if code == Success {
		return nil
	}
	return code
}
