// transport.go - Blocking transport with readiness polling

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"bufio"
	"errors"
	"net"
	"os"
	"time"
)

// Transport carries the RFB byte stream. ForceRead returns exactly n bytes or
// an error; partial reads are retried internally and are invisible to
// callers. The session owns its transport exclusively.
type Transport interface {
	Connect(address string, timeout time.Duration) error
	ForceRead(n int) ([]byte, error)
	ForceWrite(data []byte) error
	// Readable reports whether at least one byte can be read without
	// blocking longer than the given timeout.
	Readable(timeout time.Duration) (bool, error)
	Close() error
}

type tcpTransport struct {
	conn net.Conn
	br   *bufio.Reader
}

// NewTCPTransport returns an unconnected TCP transport.
func NewTCPTransport() Transport {
	return &tcpTransport{}
}

func (t *tcpTransport) Connect(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return transportErr("connect "+address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	t.conn = conn
	t.br = bufio.NewReaderSize(conn, 64*1024)
	return nil
}

func (t *tcpTransport) ForceRead(n int) ([]byte, error) {
	if t.conn == nil {
		return nil, transportErr("read", errors.New("not connected"))
	}
	t.conn.SetReadDeadline(time.Time{})
	buf := make([]byte, n)
	pos := 0
	for pos < n {
		got, err := t.br.Read(buf[pos:])
		pos += got
		if err != nil {
			return nil, transportErr("read", err)
		}
	}
	return buf, nil
}

func (t *tcpTransport) ForceWrite(data []byte) error {
	if t.conn == nil {
		return transportErr("write", errors.New("not connected"))
	}
	pos := 0
	for pos < len(data) {
		n, err := t.conn.Write(data[pos:])
		pos += n
		if err != nil {
			return transportErr("write", err)
		}
	}
	return nil
}

func (t *tcpTransport) Readable(timeout time.Duration) (bool, error) {
	if t.conn == nil {
		return false, transportErr("poll", errors.New("not connected"))
	}
	if t.br.Buffered() > 0 {
		return true, nil
	}
	t.conn.SetReadDeadline(time.Now().Add(timeout))
	_, err := t.br.Peek(1)
	t.conn.SetReadDeadline(time.Time{})
	if err == nil {
		return true, nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return false, nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return false, nil
	}
	return false, transportErr("poll", err)
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.br = nil
	return err
}
