// session_test.go - Session controller tests

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"bytes"
	"crypto/des"
	"errors"
	"testing"
)

// newConnectFixture returns a session parameterised for Connect against a
// scripted transport, with a 24 bpp wire and a 1280x720 single-screen
// client.
func newConnectFixture() (*Session, *recordingHost, *memTransport) {
	host := newRecordingHost()
	trans := &memTransport{}
	s := NewSession(host)
	s.SetTransport(trans)
	s.SetParam("ip", "10.0.0.1")
	s.SetParam("port", "5900")
	s.SetClientInfo(&ClientInfo{Width: 1280, Height: 720})
	s.Start(1280, 720, 24)
	return s, host, trans
}

// feedHandshake scripts the post-security part of the server's handshake.
func feedHandshake(trans *memTransport, width, height int, name string) {
	trans.feed(be16(uint16(width))...)
	trans.feed(be16(uint16(height))...)
	trans.feed(make([]byte, 16)...) // server pixel format, discarded
	trans.feed(be32(uint32(len(name)))...)
	trans.feed([]byte(name)...)
}

// Scenario: handshake with no authentication. Checks every message we put
// on the wire, octet for octet.
func TestConnectHandshakeAuthNone(t *testing.T) {
	s, host, trans := newConnectFixture()
	s.SetParam("disabled_encodings_mask", "1") // classic four-encoding setup

	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secNone)...)
	feedHandshake(trans, 1024, 768, "abcd")

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if s.serverWidth != 1024 || s.serverHeight != 768 {
		t.Errorf("server geometry: %dx%d", s.serverWidth, s.serverHeight)
	}
	if s.ServerName() != "abcd" {
		t.Errorf("server name: %q", s.ServerName())
	}

	if len(trans.writes) != 5 {
		t.Fatalf("write count %d: % x", len(trans.writes), trans.allWrites())
	}
	if string(trans.writes[0]) != "RFB 003.003\n" {
		t.Errorf("version reply: %q", trans.writes[0])
	}
	if !bytes.Equal(trans.writes[1], []byte{1}) {
		t.Errorf("share flag: % x", trans.writes[1])
	}

	wantPF := append([]byte{c2sSetPixelFormat, 0, 0, 0}, pixelFormatBlock(24)...)
	if !bytes.Equal(trans.writes[2], wantPF) {
		t.Errorf("SetPixelFormat:\n got  % x\n want % x", trans.writes[2], wantPF)
	}

	wantEnc := cat([]byte{c2sSetEncodings, 0}, be16(4),
		be32(uint32(encRaw)), be32(uint32(encCopyRect)),
		be32(uint32(encCursor)), be32(uint32(encDesktopSize)))
	if !bytes.Equal(trans.writes[3], wantEnc) {
		t.Errorf("SetEncodings:\n got  % x\n want % x", trans.writes[3], wantEnc)
	}

	if !bytes.Equal(trans.writes[4], []byte{3, 0, 0, 0, 0, 0, 0, 1, 0, 1}) {
		t.Errorf("initial update request: % x", trans.writes[4])
	}

	if s.resizeStatus != ResizeWaitingFirstUpdate {
		t.Errorf("resize status %d", s.resizeStatus)
	}

	// The little-dot cursor is installed and the clip channel greets.
	if len(host.cursors) != 1 {
		t.Fatalf("cursor count %d", len(host.cursors))
	}
	if host.cursors[0].hotX != 3 || host.cursors[0].hotY != 3 {
		t.Errorf("dot cursor hotspot: %d,%d", host.cursors[0].hotX, host.cursors[0].hotY)
	}
	if len(host.sends) != 1 || !bytes.Equal(host.sends[0].data,
		[]byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("clip channel greeting: %+v", host.sends)
	}
}

// With the default encodings mask, ExtendedDesktopSize goes out as the
// fifth encoding.
func TestConnectSendsExtendedDesktopSize(t *testing.T) {
	s, _, trans := newConnectFixture()

	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secNone)...)
	feedHandshake(trans, 800, 600, "x")

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	enc := trans.writes[3]
	r := newBEReader(enc)
	r.skip(2)
	if got := r.u16(); got != 5 {
		t.Fatalf("encoding count %d", got)
	}
	r.skip(16)
	if got := r.u32(); got != uint32(encExtendedDesktopSize) {
		t.Fatalf("fifth encoding %08x", got)
	}
}

// Scenario: VNC auth with a zero challenge and password "hello". The
// response must be the two DES halves of zeros under the padded key.
func TestConnectVNCAuth(t *testing.T) {
	s, _, trans := newConnectFixture()
	s.SetParam("password", "hello")

	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secVNCAuth)...)
	trans.feed(make([]byte, 16)...) // challenge
	trans.feed(be32(0)...)          // auth ok
	feedHandshake(trans, 800, 600, "x")

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	response := trans.writes[1]
	if len(response) != 16 {
		t.Fatalf("auth response length %d", len(response))
	}

	key := []byte("hello\x00\x00\x00")
	cipher, err := des.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 16)
	cipher.Encrypt(want[0:8], make([]byte, 8))
	cipher.Encrypt(want[8:16], make([]byte, 8))
	if !bytes.Equal(response, want) {
		t.Fatalf("auth response:\n got  % x\n want % x", response, want)
	}
}

func TestConnectVNCAuthWrongPassword(t *testing.T) {
	s, _, trans := newConnectFixture()
	s.SetParam("password", "nope")

	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secVNCAuth)...)
	trans.feed(make([]byte, 16)...)
	trans.feed(be32(1)...) // auth failed

	err := s.Connect()
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("want ErrAuth, got %v", err)
	}
	if !trans.closed {
		t.Errorf("transport left open after failed connect")
	}
}

// With a GUID set, the DES password is derived from a SHA-1 over the GUID's
// hex form; the response differs from the plain-password one.
func TestConnectVNCAuthGUID(t *testing.T) {
	s, _, trans := newConnectFixture()
	s.SetParam("password", "hello")
	guid := "0123456789abcdef" // 16 raw bytes
	s.SetParam("guid", guid)

	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secVNCAuth)...)
	trans.feed(make([]byte, 16)...)
	trans.feed(be32(0)...)
	feedHandshake(trans, 800, 600, "x")

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	key := []byte("hello\x00\x00\x00")
	cipher, _ := des.NewCipher(key)
	plain := make([]byte, 16)
	cipher.Encrypt(plain[0:8], make([]byte, 8))
	cipher.Encrypt(plain[8:16], make([]byte, 8))
	if bytes.Equal(trans.writes[1], plain) {
		t.Fatalf("GUID auth used the plain password key")
	}
}

func TestHashedAuthPasswordShape(t *testing.T) {
	pw := hashedAuthPassword("00112233445566778899aabbccddeeff")
	if len(pw) != 8 {
		t.Fatalf("derived password length %d", len(pw))
	}
	for _, c := range pw {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("derived password %q is not lowercase hex", pw)
		}
	}
	if pw != hashedAuthPassword("00112233445566778899aabbccddeeff") {
		t.Fatalf("derivation is not deterministic")
	}
}

func TestConnectRejectsBadConfig(t *testing.T) {
	host := newRecordingHost()
	s := NewSession(host)
	s.SetTransport(&memTransport{})
	s.SetParam("ip", "10.0.0.1")
	// serverBPP never set.
	if err := s.Connect(); !errors.Is(err, ErrConfig) {
		t.Fatalf("bad bpp: want ErrConfig, got %v", err)
	}

	s2 := NewSession(host)
	s2.SetTransport(&memTransport{})
	s2.Start(800, 600, 24)
	if err := s2.Connect(); !errors.Is(err, ErrConfig) {
		t.Fatalf("empty ip: want ErrConfig, got %v", err)
	}
}

func TestConnectRejectsSecurityZero(t *testing.T) {
	s, _, trans := newConnectFixture()
	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secInvalid)...)
	if err := s.Connect(); !errors.Is(err, ErrAuth) {
		t.Fatalf("want ErrAuth, got %v", err)
	}
}

func TestConnectRejectsLongName(t *testing.T) {
	s, _, trans := newConnectFixture()
	trans.feed([]byte("RFB 003.003\n")...)
	trans.feed(be32(secNone)...)
	trans.feed(be16(800)...)
	trans.feed(be16(600)...)
	trans.feed(make([]byte, 16)...)
	trans.feed(be32(1000)...)
	if err := s.Connect(); !errors.Is(err, ErrProtocol) {
		t.Fatalf("want ErrProtocol, got %v", err)
	}
}

func TestMouseEvents(t *testing.T) {
	s, _, trans := newTestSession()

	// Left button down at (10, 20), then a move: the button bit persists.
	if err := s.Event(102, 10, 20, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Event(100, 11, 21, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Event(101, 11, 21, nil); err != nil {
		t.Fatal(err)
	}

	wants := [][]byte{
		cat([]byte{c2sPointerEvent, 1}, be16(10), be16(20)),
		cat([]byte{c2sPointerEvent, 1}, be16(11), be16(21)),
		cat([]byte{c2sPointerEvent, 0}, be16(11), be16(21)),
	}
	if len(trans.writes) != len(wants) {
		t.Fatalf("write count %d", len(trans.writes))
	}
	for i, want := range wants {
		if !bytes.Equal(trans.writes[i], want) {
			t.Errorf("pointer event %d: got % x, want % x", i, trans.writes[i], want)
		}
	}
}

func TestMouseButtonBits(t *testing.T) {
	s, _, trans := newTestSession()
	// Right (bit 2), middle (bit 1), wheel up (bit 3), wheel down (bit 4).
	for _, ev := range []struct {
		msg  int
		mask uint8
	}{
		{104, 4}, {103, 0},
		{106, 2}, {105, 0},
		{108, 8}, {107, 0},
		{110, 16}, {109, 0},
	} {
		if err := s.Event(ev.msg, 0, 0, nil); err != nil {
			t.Fatal(err)
		}
		w := trans.writes[len(trans.writes)-1]
		if w[1] != ev.mask {
			t.Errorf("msg %d: button mask %02x, want %02x", ev.msg, w[1], ev.mask)
		}
	}
}

func TestInvalidateEvent(t *testing.T) {
	s, _, trans := newTestSession()
	x, y, w, h := 16, 32, 640, 480
	p1 := uint32(x)<<16 | uint32(y)
	p2 := uint32(w)<<16 | uint32(h)
	if err := s.Event(eventInvalidate, p1, p2, nil); err != nil {
		t.Fatal(err)
	}
	want := cat([]byte{3, 0}, be16(16), be16(32), be16(640), be16(480))
	if len(trans.writes) != 1 || !bytes.Equal(trans.writes[0], want) {
		t.Fatalf("invalidate request: % x", trans.writes)
	}
}

func TestInvalidateSuppressed(t *testing.T) {
	s, _, trans := newTestSession()
	s.suppressOutput = true
	if err := s.Event(eventInvalidate, 0, 0, nil); err != nil {
		t.Fatal(err)
	}
	if len(trans.writes) != 0 {
		t.Fatalf("suppressed invalidate hit the wire")
	}
}

func TestSuppressOutputResume(t *testing.T) {
	s, _, trans := newTestSession()
	if err := s.SuppressOutput(true, 0, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if len(trans.writes) != 0 {
		t.Fatalf("suppressing sent traffic")
	}
	if err := s.SuppressOutput(false, 0, 0, 800, 600); err != nil {
		t.Fatal(err)
	}
	want := cat([]byte{3, 0}, be16(0), be16(0), be16(800), be16(600))
	if len(trans.writes) != 1 || !bytes.Equal(trans.writes[0], want) {
		t.Fatalf("resume request: % x", trans.writes)
	}
}

func TestChannelDataSizeLimit(t *testing.T) {
	s, _, _ := newTestSession()
	big := make([]byte, maxChannelChunk+1)
	if err := s.Event(eventChannelData, 1, uint32(len(big)), big); err == nil {
		t.Fatalf("oversized channel chunk accepted")
	}
}

func TestHandleKeySendsKeyEvents(t *testing.T) {
	s, _, trans := newTestSession()
	if err := s.HandleKey(30, 0); err != nil {
		t.Fatal(err)
	}
	wantDown := cat([]byte{c2sKeyEvent, 1, 0, 0}, be32(0x61))
	wantUp := cat([]byte{c2sKeyEvent, 0, 0, 0}, be32(0x61))
	if len(trans.writes) != 2 ||
		!bytes.Equal(trans.writes[0], wantDown) ||
		!bytes.Equal(trans.writes[1], wantUp) {
		t.Fatalf("key events: % x", trans.writes)
	}
}

func TestSetParamGUIDValidation(t *testing.T) {
	s := NewSession(newRecordingHost())
	if err := s.SetParam("guid", "short"); err == nil {
		t.Fatalf("short guid accepted")
	}
	if s.gotGUID {
		t.Fatalf("gotGUID set after rejection")
	}
}

func TestExitClosesTransport(t *testing.T) {
	s, _, trans := newTestSession()
	if err := s.Exit(); err != nil {
		t.Fatal(err)
	}
	if !trans.closed {
		t.Fatalf("transport not closed")
	}
	if err := s.HandleKey(30, 0); err == nil {
		t.Fatalf("dead session accepted key event")
	}
}

func TestStartPaintsBlack(t *testing.T) {
	s, host, _ := newTestSession()
	if err := s.Start(640, 480, 16); err != nil {
		t.Fatal(err)
	}
	if s.serverBPP != 16 {
		t.Errorf("bpp not recorded")
	}
	if len(host.fills) != 1 {
		t.Fatalf("fill count %d", len(host.fills))
	}
	f := host.fills[0]
	if f.cx != 640 || f.cy != 480 {
		t.Errorf("fill rect: %+v", f)
	}
}
