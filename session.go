// session.go - RFB client session controller

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"crypto/des"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Host event codes accepted by Event. Mouse events 100-110 update the button
// bitmask and become PointerEvents; 200 requests a full repaint; 0x5555
// carries virtual channel data.
const (
	eventMouseFirst  = 100
	eventMouseLast   = 110
	eventInvalidate  = 200
	eventChannelData = 0x5555
)

const connectTimeout = 3 * time.Second

// Session is one RFB client connection: it speaks RFB to the upstream VNC
// server and drives the downstream host through the SessionHost callbacks.
// A session is not safe for concurrent use; the host calls every entry point
// from one thread.
type Session struct {
	host  SessionHost
	trans Transport

	// Parameters, set before Connect.
	username             string
	password             string
	ip                   string
	port                 string
	keylayout            int
	delayMS              int
	guid                 [16]byte
	gotGUID              bool
	enabledEncodingsMask uint32

	// Negotiated server state.
	serverBPP    int
	serverWidth  int
	serverHeight int
	serverName   string

	palette        [256]uint32
	clipBuffer     []byte
	clipChanID     int
	mouseState     uint8
	suppressOutput bool
	resizeStatus   ResizeStatus
	clientLayout   ScreenLayout
	keymap         *Keymap

	connected bool
	dead      bool
}

// NewSession creates an unconnected session bound to the given host.
func NewSession(host SessionHost) *Session {
	return &Session{
		host:                 host,
		trans:                NewTCPTransport(),
		enabledEncodingsMask: ^uint32(0),
		clipChanID:           -1,
		keymap:               NewKeymap(),
	}
}

// SetTransport replaces the transport before Connect. Used to run sessions
// over something other than plain TCP.
func (s *Session) SetTransport(t Transport) {
	s.trans = t
}

// Keymap exposes the session's keymap, e.g. to apply an overlay file.
func (s *Session) Keymap() *Keymap {
	return s.keymap
}

// ServerName returns the desktop name from the server init message.
func (s *Session) ServerName() string {
	return s.serverName
}

// ServerGeometry returns the negotiated upstream geometry.
func (s *Session) ServerGeometry() (width, height, bpp int) {
	return s.serverWidth, s.serverHeight, s.serverBPP
}

// SetParam sets a named connection parameter. Unrecognised names are
// ignored. The guid value is 16 raw bytes; disabled_encodings_mask is stored
// negated, as an enable mask.
func (s *Session) SetParam(name, value string) error {
	switch strings.ToLower(name) {
	case "username":
		s.username = value
	case "password":
		s.password = value
	case "ip":
		s.ip = value
	case "port":
		s.port = value
	case "keylayout":
		s.keylayout, _ = strconv.Atoi(value)
	case "delay_ms":
		s.delayMS, _ = strconv.Atoi(value)
	case "guid":
		if len(value) != 16 {
			return configErr("guid must be 16 bytes, got %d", len(value))
		}
		copy(s.guid[:], value)
		s.gotGUID = true
	case "disabled_encodings_mask":
		mask, _ := strconv.Atoi(value)
		s.enabledEncodingsMask = ^uint32(mask)
	}
	return nil
}

// SetClientInfo records the downstream client's monitor layout.
func (s *Session) SetClientInfo(info *ClientInfo) {
	s.clientLayout = layoutFromClientInfo(info)
	logger.Debug("client layout", "layout", s.clientLayout.String())
}

// Start paints the downstream display black and records its depth.
func (s *Session) Start(width, height, bpp int) error {
	s.host.BeginUpdate()
	s.host.SetFgColor(0)
	s.host.FillRect(0, 0, width, height)
	s.host.EndUpdate()
	s.serverBPP = bpp
	return nil
}

// Connect performs the full RFB 3.3 handshake and leaves the session ready
// for CheckWaitObjs. Any failure is terminal.
func (s *Session) Connect() error {
	if err := s.connect(); err != nil {
		s.dead = true
		s.trans.Close()
		s.host.Msg("VNC error - problem connecting", MsgInfo)
		return err
	}
	s.connected = true
	s.host.Msg("VNC connection complete, connected ok", MsgInfo)
	s.openClipChannel()
	return nil
}

func (s *Session) connect() error {
	s.host.Msg("VNC started connecting", MsgInfo)

	if !supportedBPP[s.serverBPP] {
		s.host.Msg("VNC error - only supporting 8, 15, 16, 24 and 32 "+
			"bpp rdp connections", MsgInfo)
		return configErr("unsupported bpp %d", s.serverBPP)
	}
	if s.ip == "" {
		s.host.Msg("VNC error - no ip set", MsgInfo)
		return configErr("no ip set")
	}

	if s.delayMS > 0 {
		s.host.Msg(fmt.Sprintf("Waiting %d ms for VNC to start...", s.delayMS), MsgInfo)
		time.Sleep(time.Duration(s.delayMS) * time.Millisecond)
	}

	address := s.ip + ":" + s.port
	s.host.Msg(fmt.Sprintf("VNC connecting to %s", address), MsgInfo)
	if err := s.trans.Connect(address, connectTimeout); err != nil {
		return err
	}
	s.host.Msg("VNC tcp connected", MsgInfo)

	// Protocol version. Whatever the server offers, we speak 3.3.
	if _, err := s.trans.ForceRead(12); err != nil {
		return err
	}
	if err := s.trans.ForceWrite([]byte("RFB 003.003\n")); err != nil {
		return err
	}

	checkSecResult, err := s.negotiateSecurity()
	if err != nil {
		logger.Error("security negotiation failed", "err", err)
		return err
	}

	if checkSecResult {
		body, err := s.trans.ForceRead(4)
		if err != nil {
			return err
		}
		if newBEReader(body).u32() != 0 {
			s.host.Msg("VNC password failed", MsgInfo)
			return authErr("password failed")
		}
		s.host.Msg("VNC password ok", MsgInfo)
	}

	s.host.Msg("VNC sending share flag", MsgInfo)
	if err := s.trans.ForceWrite([]byte{1}); err != nil {
		return err
	}

	if err := s.readServerInit(); err != nil {
		return err
	}

	if err := s.sendPixelFormat(); err != nil {
		return err
	}
	if err := s.sendEncodings(); err != nil {
		return err
	}

	s.resizeStatus = ResizeWaitingFirstUpdate
	if err := s.sendUpdateRequestForResizeStatus(); err != nil {
		return err
	}

	s.host.Msg("VNC sending cursor", MsgInfo)
	if err := s.installDotCursor(); err != nil {
		return err
	}

	return nil
}

// negotiateSecurity reads the 3.3 security word and authenticates. The
// returned flag tells the caller whether a security result word follows.
func (s *Session) negotiateSecurity() (bool, error) {
	body, err := s.trans.ForceRead(4)
	if err != nil {
		return false, err
	}
	secType := newBEReader(body).u32()
	s.host.Msg(fmt.Sprintf("VNC security level is %d (1 = none, 2 = standard)",
		secType), MsgInfo)

	switch secType {
	case secNone:
		return false, nil

	case secVNCAuth:
		challenge, err := s.trans.ForceRead(16)
		if err != nil {
			return false, err
		}
		password := s.password
		if s.gotGUID {
			password = hashedAuthPassword(hex.EncodeToString(s.guid[:]))
		}
		response, err := encryptChallenge(challenge, password)
		if err != nil {
			return false, err
		}
		if err := s.trans.ForceWrite(response); err != nil {
			return false, err
		}
		return true, nil

	case secInvalid:
		return false, authErr("server will disconnect")

	default:
		return false, authErr("unsupported security level %d", secType)
	}
}

// encryptChallenge answers a VNC auth challenge: the password is truncated
// or zero-padded to an 8-byte DES key and each half of the challenge is
// encrypted independently with it.
func encryptChallenge(challenge []byte, password string) ([]byte, error) {
	var key [8]byte
	copy(key[:], password)
	cipher, err := des.NewCipher(key[:])
	if err != nil {
		return nil, authErr("des: %v", err)
	}
	response := make([]byte, 16)
	cipher.Encrypt(response[0:8], challenge[0:8])
	cipher.Encrypt(response[8:16], challenge[8:16])
	return response, nil
}

// hashedAuthPassword derives the auth password from a seed string: SHA-1
// over "xrdp_vnc" plus the seed twice, with the first four hash bytes
// rendered as eight hex characters.
func hashedAuthPassword(seed string) string {
	h := sha1.New()
	h.Write([]byte("xrdp_vnc"))
	h.Write([]byte(seed))
	h.Write([]byte(seed))
	sum := h.Sum(nil)
	return fmt.Sprintf("%2.2x%2.2x%2.2x%2.2x", sum[0], sum[1], sum[2], sum[3])
}

func (s *Session) readServerInit() error {
	s.host.Msg("VNC receiving server init", MsgInfo)
	body, err := s.trans.ForceRead(4)
	if err != nil {
		return err
	}
	r := newBEReader(body)
	s.serverWidth = int(r.u16())
	s.serverHeight = int(r.u16())

	// The server's native pixel format is discarded; we negotiate our own.
	s.host.Msg("VNC receiving pixel format", MsgInfo)
	if _, err := s.trans.ForceRead(16); err != nil {
		return err
	}

	s.host.Msg("VNC receiving name length", MsgInfo)
	body, err = s.trans.ForceRead(4)
	if err != nil {
		return err
	}
	nameLen := newBEReader(body).u32()
	if nameLen > 255 {
		return protocolErr("server name too long: %d", nameLen)
	}

	s.host.Msg("VNC receiving name", MsgInfo)
	name, err := s.trans.ForceRead(int(nameLen))
	if err != nil {
		return err
	}
	s.serverName = string(name)
	return nil
}

func (s *Session) sendPixelFormat() error {
	w := newBEWriter()
	w.u8(c2sSetPixelFormat)
	w.pad(3)
	w.bytes(pixelFormatBlock(s.serverBPP))
	s.host.Msg("VNC sending pixel format", MsgInfo)
	return s.trans.ForceWrite(w.buf)
}

func (s *Session) sendEncodings() error {
	encodings := []encodingType{encRaw, encCopyRect, encCursor, encDesktopSize}
	if s.enabledEncodingsMask&mskExtendedDesktopSize != 0 {
		encodings = append(encodings, encExtendedDesktopSize)
	} else {
		logger.Info("user disabled ExtendedDesktopSize")
	}

	w := newBEWriter()
	w.u8(c2sSetEncodings)
	w.u8(0)
	w.u16(uint16(len(encodings)))
	for _, e := range encodings {
		w.u32(uint32(e))
	}
	return s.trans.ForceWrite(w.buf)
}

// installDotCursor sets the default "little dot" cursor with hotspot (3,3):
// the data holds a 3x3 block of white pixels at the top-left of the displayed
// cursor, and every mask bit is set. A host that applies the mask as an AND
// mask over XOR data shows the block inverted; under the set-bit-is-
// transparent reading of SessionHost.SetCursor, which EbitenHost follows,
// nothing is drawn.
func (s *Session) installDotCursor() error {
	cursorData := make([]byte, cursorDataSize)
	cursorMask := make([]byte, cursorMaskSize)
	for row := 1; row <= 3; row++ {
		start := cursorDataSize - row*cursorSide*3
		for i := 0; i < 9; i++ {
			cursorData[start+i] = 0xff
		}
	}
	for i := range cursorMask {
		cursorMask[i] = 0xff
	}
	return s.host.SetCursor(3, 3, cursorData, cursorMask)
}

// Event is the host's dispatch entry: mouse events (100-110), an invalidate
// request (200), or virtual channel data (0x5555). For channel data, param1
// carries the channel id in its low word and data holds the chunk.
func (s *Session) Event(msg int, param1, param2 uint32, data []byte) error {
	if s.dead {
		return protocolErr("session is dead")
	}

	switch {
	case msg == eventChannelData:
		chanID := int(param1 & 0xffff)
		if len(data) > maxChannelChunk {
			return protocolErr("channel chunk too big: %d", len(data))
		}
		if err := s.processChannelData(chanID, data); err != nil {
			s.dead = true
			return err
		}
		return nil

	case msg == 15 || msg == 16:
		// Key events arrive through HandleKey, not here.
		return nil

	case msg >= eventMouseFirst && msg <= eventMouseLast:
		s.applyMouseEvent(msg)
		if err := s.sendPointerEvent(int(param1), int(param2)); err != nil {
			s.dead = true
			return err
		}
		return nil

	case msg == eventInvalidate:
		if s.suppressOutput {
			return nil
		}
		x := int(param1>>16) & 0xffff
		y := int(param1) & 0xffff
		w := int(param2>>16) & 0xffff
		h := int(param2) & 0xffff
		if err := s.sendUpdateRequest(false, x, y, w, h); err != nil {
			s.dead = true
			return err
		}
		return nil

	default:
		logger.Debug("unhandled host event", "msg", msg)
		return nil
	}
}

// applyMouseEvent folds one mouse message into the persistent button mask.
func (s *Session) applyMouseEvent(msg int) {
	switch msg {
	case 100: // move only
	case 101:
		s.mouseState &^= 1
	case 102:
		s.mouseState |= 1
	case 103:
		s.mouseState &^= 4
	case 104:
		s.mouseState |= 4
	case 105:
		s.mouseState &^= 2
	case 106:
		s.mouseState |= 2
	case 107:
		s.mouseState &^= 8
	case 108:
		s.mouseState |= 8
	case 109:
		s.mouseState &^= 16
	case 110:
		s.mouseState |= 16
	}
}

func (s *Session) sendPointerEvent(x, y int) error {
	w := newBEWriter()
	w.u8(c2sPointerEvent)
	w.u8(s.mouseState)
	w.u16(uint16(x))
	w.u16(uint16(y))
	return s.trans.ForceWrite(w.buf)
}

// HandleKey translates one host key event. direction 0x8000 means release;
// anything else is a press. Unmapped events are absorbed.
func (s *Session) HandleKey(scancode, direction int) error {
	if s.dead {
		return protocolErr("session is dead")
	}
	err := s.keymap.Handle(scancode, direction, s.sendKeyEvent)
	if err != nil {
		s.dead = true
	}
	return err
}

func (s *Session) sendKeyEvent(sym uint32, down bool) error {
	w := newBEWriter()
	w.u8(c2sKeyEvent)
	if down {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.pad(2)
	w.u32(sym)
	return s.trans.ForceWrite(w.buf)
}

// WaitReadable blocks until the upstream has data to process, the timeout
// elapses (returning false), or the transport fails. This is the wait-object
// half of the host's event loop.
func (s *Session) WaitReadable(timeout time.Duration) (bool, error) {
	if s.dead {
		return false, protocolErr("session is dead")
	}
	return s.trans.Readable(timeout)
}

// CheckWaitObjs drains and processes every server message that can be read
// without blocking. Any error is terminal.
func (s *Session) CheckWaitObjs() error {
	if s.dead {
		return protocolErr("session is dead")
	}
	for {
		readable, err := s.trans.Readable(0)
		if err != nil {
			s.dead = true
			return err
		}
		if !readable {
			return nil
		}
		if err := s.processMessage(); err != nil {
			s.dead = true
			logger.Error("processing server message failed", "err", err)
			return err
		}
	}
}

// processMessage reads and dispatches one server message.
func (s *Session) processMessage() error {
	hdr, err := s.trans.ForceRead(1)
	if err != nil {
		return err
	}
	switch hdr[0] {
	case s2cFramebufferUpdate:
		switch s.resizeStatus {
		case ResizeWaitingFirstUpdate:
			return s.framebufferFirstUpdate()
		case ResizeWaitingConfirm:
			return s.framebufferResizeConfirm()
		default:
			return s.framebufferUpdate()
		}
	case s2cSetColorMapEntries:
		return s.paletteUpdate()
	case s2cBell:
		return s.host.Bell()
	case s2cServerCutText:
		logger.Debug("got server cut text")
		return s.serverCutText()
	default:
		s.host.Msg(fmt.Sprintf("VNC unknown server message %d", hdr[0]), MsgError)
		return protocolErr("unknown server message type %d", hdr[0])
	}
}

// SuppressOutput pauses or resumes framebuffer traffic. Resuming requests a
// full update of the server area.
func (s *Session) SuppressOutput(suppress bool, left, top, right, bottom int) error {
	s.suppressOutput = suppress
	if suppress || !s.connected {
		return nil
	}
	return s.sendUpdateRequest(false, 0, 0, s.serverWidth, s.serverHeight)
}

// ServerMonitorResize collapses the client layout to a single screen of the
// given size and restarts the geometry negotiation.
func (s *Session) ServerMonitorResize(width, height int) error {
	s.clientLayout.setSingleScreen(width, height)
	s.resizeStatus = ResizeWaitingFirstUpdate
	return s.sendUpdateRequestForResizeStatus()
}

// Exit tears the session down. The session cannot be reused afterwards.
func (s *Session) Exit() error {
	s.dead = true
	s.clipBuffer = nil
	return s.trans.Close()
}
