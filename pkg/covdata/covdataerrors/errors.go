// Package covdataerrors defines the error kinds surfaced by the
// coverage data engine. This is a leaf package with no internal
// dependencies, designed to be imported by both the persistent store
// and the data API without causing circular imports.
//
// Import graph: covdataerrors <- sqlitestore <- covdata
package covdataerrors

import "fmt"

// DataError indicates a malformed store, a mode conflict (lines vs.
// arcs), a tracer conflict, or an operation attempted on an untouched
// file.
type DataError struct {
	Message string
}

func (e *DataError) Error() string {
	return e.Message
}

// NewDataError builds a DataError from a format string.
func NewDataError(format string, args ...any) *DataError {
	return &DataError{Message: fmt.Sprintf(format, args...)}
}

// DataFileError wraps an underlying store I/O or constraint failure
// together with the offending filename.
type DataFileError struct {
	Filename string
	Err      error
}

func (e *DataFileError) Error() string {
	return fmt.Sprintf("couldn't use data file %q: %s", e.Filename, e.Err)
}

func (e *DataFileError) Unwrap() error {
	return e.Err
}

// NewDataFileError wraps err with the filename that produced it.
func NewDataFileError(filename string, err error) *DataFileError {
	return &DataFileError{Filename: filename, Err: err}
}

// ConfigError indicates a caller-supplied parameter is out of its
// valid range (e.g. fail_under outside [0,100], precision outside
// [0,10)).
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// UnrecognizedSerializationError indicates Loads received data that
// does not begin with the expected 'z' prefix byte.
type UnrecognizedSerializationError struct {
	Head []byte
	Len  int
}

func (e *UnrecognizedSerializationError) Error() string {
	return fmt.Sprintf("unrecognized serialization: %q (head of %d bytes)", e.Head, e.Len)
}

// NewUnrecognizedSerializationError builds the error from the offending data,
// keeping only a short head for the message.
func NewUnrecognizedSerializationError(data []byte) *UnrecognizedSerializationError {
	head := data
	if len(head) > 40 {
		head = head[:40]
	}
	return &UnrecognizedSerializationError{Head: head, Len: len(data)}
}
