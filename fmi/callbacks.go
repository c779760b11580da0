package fmi

import (
	"log"
)

// Log categories used by the adapter, following the FMI 2.0 standard
// categories.
const (
	LogEvents      = "logEvents"
	LogStatusError = "logStatusError"
	LogStatusFatal = "logStatusFatal"
	LogAll         = "logAll"
)

// CallbackFunctions is the table of functions that the host supplies when it
// creates an instance. The instance only borrows it and must not outlive the
// host.
type CallbackFunctions interface {
	// Logger reports a message to the host.
	Logger(instanceName string, status Status, category, message string)

	// StepFinished reports the end of an asynchronous step.
	StepFinished(status Status)
}

// CallbackFuncs implements CallbackFunctions with optional function fields.
// Nil fields are ignored.
type CallbackFuncs struct {
	LoggerFunc       func(instanceName string, status Status, category, message string)
	StepFinishedFunc func(status Status)
}

// Logger calls LoggerFunc if it is set.
func (c CallbackFuncs) Logger(
	instanceName string,
	status Status,
	category, message string,
) {
	if c.LoggerFunc != nil {
		c.LoggerFunc(instanceName, status, category, message)
	}
}

// StepFinished calls StepFinishedFunc if it is set.
func (c CallbackFuncs) StepFinished(status Status) {
	if c.StepFinishedFunc != nil {
		c.StepFinishedFunc(status)
	}
}

// LogCallbacks writes the host messages with a standard logger.
type LogCallbacks struct {
	out *log.Logger
}

// NewLogCallbacks creates a LogCallbacks that writes with the given logger. A
// nil logger means the standard logger.
func NewLogCallbacks(l *log.Logger) LogCallbacks {
	if l == nil {
		l = log.Default()
	}

	return LogCallbacks{out: l}
}

// Logger prints the message.
func (c LogCallbacks) Logger(
	instanceName string,
	status Status,
	category, message string,
) {
	c.out.Printf("[%s] %s %s: %s", instanceName, status, category, message)
}

// StepFinished prints the status of the finished step.
func (c LogCallbacks) StepFinished(status Status) {
	c.out.Printf("step finished: %s", status)
}
