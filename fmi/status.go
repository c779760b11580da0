// Package fmi defines the value types, the status-return convention, and the
// host callback table of the FMI 2.0 co-simulation interface.
package fmi

// Status is the result of every call from the master into a slave.
type Status int

// The statuses, in the order of increasing severity.
const (
	OK Status = iota
	Warning
	Discard
	Error
	Fatal
	Pending
)

var statusNames = [...]string{
	OK:      "fmi2OK",
	Warning: "fmi2Warning",
	Discard: "fmi2Discard",
	Error:   "fmi2Error",
	Fatal:   "fmi2Fatal",
	Pending: "fmi2Pending",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "fmi2Unknown"
	}

	return statusNames[s]
}

// Boolean is the FMI boolean type.
type Boolean = bool

// Real is the FMI real type.
type Real = float64

// Integer is the FMI integer type.
type Integer = int32

// ValueReference identifies a scalar variable of a model.
type ValueReference uint32
