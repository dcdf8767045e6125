// session_test_helpers_test.go - Shared test harness: scripted transport and recording host

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

// memTransport feeds scripted server bytes to the session and records every
// message the session writes.
type memTransport struct {
	in        bytes.Buffer
	writes    [][]byte
	connected bool
	closed    bool
}

func (m *memTransport) Connect(address string, timeout time.Duration) error {
	m.connected = true
	return nil
}

func (m *memTransport) ForceRead(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(&m.in, buf); err != nil {
		return nil, transportErr("read", err)
	}
	return buf, nil
}

func (m *memTransport) ForceWrite(data []byte) error {
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

func (m *memTransport) Readable(timeout time.Duration) (bool, error) {
	return m.in.Len() > 0, nil
}

func (m *memTransport) Close() error {
	m.closed = true
	return nil
}

func (m *memTransport) feed(data ...byte) {
	m.in.Write(data)
}

func (m *memTransport) allWrites() []byte {
	var all []byte
	for _, w := range m.writes {
		all = append(all, w...)
	}
	return all
}

// Scripted-input builders.

func be16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func be32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func le16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func cat(parts ...[]byte) []byte {
	var all []byte
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

// feedRectHeader scripts a framebuffer update rectangle header.
func (m *memTransport) feedRectHeader(x, y, cx, cy int, encoding encodingType) {
	m.in.Write(cat(be16(uint16(x)), be16(uint16(y)),
		be16(uint16(cx)), be16(uint16(cy)), be32(uint32(encoding))))
}

// feedUpdateHeader scripts a FramebufferUpdate message header (without the
// leading message type octet).
func (m *memTransport) feedUpdateHeader(numRects int) {
	m.in.Write(cat([]byte{0}, be16(uint16(numRects))))
}

// feedScreenList scripts an ExtendedDesktopSize screen list.
func (m *memTransport) feedScreenList(screens ...Screen) {
	m.in.Write([]byte{byte(len(screens)), 0, 0, 0})
	for _, s := range screens {
		m.in.Write(cat(be32(s.ID), be16(s.X), be16(s.Y),
			be16(s.Width), be16(s.Height), be32(s.Flags)))
	}
}

type paintCall struct {
	x, y, cx, cy           int
	data                   []byte
	srcW, srcH, srcX, srcY int
}

type bltCall struct {
	x, y, cx, cy, srcX, srcY int
}

type cursorCall struct {
	hotX, hotY int
	data, mask []byte
}

type resetCall struct {
	width, height, bpp int
}

type chanSend struct {
	chanID int
	data   []byte
	total  int
	flags  int
}

// recordingHost records every callback so tests can assert on the exact
// host-facing traffic.
type recordingHost struct {
	begins   int
	ends     int
	paints   []paintCall
	blts     []bltCall
	cursors  []cursorCall
	palettes [][]uint32
	bells    int
	msgs     []string
	resets   []resetCall
	fgColor  uint32
	fills    []bltCall
	sends    []chanSend
	chanID   int
}

func newRecordingHost() *recordingHost {
	return &recordingHost{chanID: 1}
}

func (r *recordingHost) BeginUpdate() error { r.begins++; return nil }
func (r *recordingHost) EndUpdate() error   { r.ends++; return nil }

func (r *recordingHost) PaintRect(x, y, cx, cy int, data []byte, srcW, srcH, srcX, srcY int) error {
	r.paints = append(r.paints, paintCall{x, y, cx, cy,
		append([]byte(nil), data...), srcW, srcH, srcX, srcY})
	return nil
}

func (r *recordingHost) ScreenBlt(x, y, cx, cy, srcX, srcY int) error {
	r.blts = append(r.blts, bltCall{x, y, cx, cy, srcX, srcY})
	return nil
}

func (r *recordingHost) SetCursor(hotX, hotY int, data, mask []byte) error {
	r.cursors = append(r.cursors, cursorCall{hotX, hotY,
		append([]byte(nil), data...), append([]byte(nil), mask...)})
	return nil
}

func (r *recordingHost) SetPalette(palette []uint32) error {
	r.palettes = append(r.palettes, append([]uint32(nil), palette...))
	return nil
}

func (r *recordingHost) Bell() error { r.bells++; return nil }

func (r *recordingHost) Msg(text string, level int) error {
	r.msgs = append(r.msgs, text)
	return nil
}

func (r *recordingHost) Reset(width, height, bpp int) error {
	r.resets = append(r.resets, resetCall{width, height, bpp})
	return nil
}

func (r *recordingHost) SetFgColor(color uint32) error {
	r.fgColor = color
	return nil
}

func (r *recordingHost) FillRect(x, y, cx, cy int) error {
	r.fills = append(r.fills, bltCall{x: x, y: y, cx: cx, cy: cy})
	return nil
}

func (r *recordingHost) SendToChannel(chanID int, data []byte, total, flags int) error {
	r.sends = append(r.sends, chanSend{chanID, append([]byte(nil), data...), total, flags})
	return nil
}

func (r *recordingHost) GetChannelID(name string) int {
	if name == "cliprdr" {
		return r.chanID
	}
	return -1
}

// newTestSession wires a session to a recording host and a scripted
// transport, already past the handshake: 24 bpp, 800x600 server, single
// 800x600 client screen, clipboard channel open.
func newTestSession() (*Session, *recordingHost, *memTransport) {
	host := newRecordingHost()
	trans := &memTransport{}
	s := NewSession(host)
	s.SetTransport(trans)
	s.serverBPP = 24
	s.serverWidth = 800
	s.serverHeight = 600
	s.clientLayout.setSingleScreen(800, 600)
	s.clipChanID = 1
	s.connected = true
	s.resizeStatus = ResizeDone
	return s, host, trans
}
