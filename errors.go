// errors.go - Error kinds for VNCBridge

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"errors"
	"fmt"
)

// The session reports failures as one of these kinds. A non-nil error from
// Connect, HandleKey, CheckWaitObjs or from the processing of an Event leaves
// the session in a terminal state; the host is expected to call Exit. A
// rejected SetParam value and an oversized channel chunk passed to Event are
// reported without ending the session.
var (
	ErrTransport = errors.New("transport error")
	ErrProtocol  = errors.New("protocol error")
	ErrAuth      = errors.New("authentication error")
	ErrConfig    = errors.New("configuration error")
	ErrResize    = errors.New("resize error")
)

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
}

func protocolErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

func authErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuth, fmt.Sprintf(format, args...))
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
