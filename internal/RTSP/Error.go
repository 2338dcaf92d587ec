package RTSP

import (
	"github.com/pkg/errors"
)

// ErrDisconnected is returned by the parsers when the peer closed the stream
// before the first byte of a message.
var ErrDisconnected = errors.New("peer disconnected")

// RtspError carries the status that best describes a failure: the code to
// answer with on the server, the peer's code on the client, or StatusUnknown
// for transport failures.
type RtspError struct {
	Status StatusCode
	Err    error
}

func NewRtspError(status StatusCode, format string, args ...interface{}) *RtspError {
	return &RtspError{Status: status, Err: errors.Errorf(format, args...)}
}

func WrapRtspError(status StatusCode, err error, msg string) *RtspError {
	return &RtspError{Status: status, Err: errors.Wrap(err, msg)}
}

func (e *RtspError) Error() string {
	if e.Status == StatusUnknown {
		return "rtsp: " + e.Err.Error()
	}
	return "rtsp " + e.Status.String() + ": " + e.Err.Error()
}

func (e *RtspError) Unwrap() error {
	return e.Err
}

func (e *RtspError) Cause() error {
	return e.Err
}

// StatusOf digs an RtspError out of err. Anything else is StatusUnknown.
func StatusOf(err error) StatusCode {
	var re *RtspError
	if errors.As(err, &re) {
		return re.Status
	}
	return StatusUnknown
}

// asRtspError converts err for the client listener, keeping an existing
// status when there is one.
func asRtspError(err error) *RtspError {
	var re *RtspError
	if errors.As(err, &re) {
		return re
	}
	return &RtspError{Status: StatusUnknown, Err: err}
}
