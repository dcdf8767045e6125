// host.go - Display host interface for VNCBridge sessions

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import "fmt"

// Message levels for SessionHost.Msg.
const (
	MsgInfo  = 0
	MsgError = 1
)

// SessionHost is the downstream side of the bridge: the session manager (or
// viewer) that owns the actual framebuffer, cursor, bell and virtual
// channels. The session invokes these callbacks; none of them may re-enter
// the session from inside a decode path — only between BeginUpdate/EndUpdate
// brackets.
type SessionHost interface {
	// Paint bracket around every server message that touches the display.
	BeginUpdate() error
	EndUpdate() error

	// PaintRect blits raw pixels (server bpp) at (x, y). The data plane is
	// srcW x srcH with the rectangle starting at (srcX, srcY).
	PaintRect(x, y, w, h int, data []byte, srcW, srcH, srcX, srcY int) error

	// ScreenBlt copies a w x h region from (srcX, srcY) to (x, y).
	ScreenBlt(x, y, w, h, srcX, srcY int) error

	// SetCursor installs a 32x32 cursor. data is 24-bit bottom-up, mask is
	// a 1-bpp bitmap where a set bit means transparent.
	SetCursor(hotX, hotY int, data, mask []byte) error

	// SetPalette installs the 256-entry 0x00RRGGBB palette.
	SetPalette(palette []uint32) error

	Bell() error
	Msg(text string, level int) error

	// Reset resizes the downstream display.
	Reset(width, height, bpp int) error

	SetFgColor(color uint32) error
	FillRect(x, y, w, h int) error

	// SendToChannel delivers bytes to a virtual channel. total is the size
	// of the full message the bytes belong to; flags marks first/last
	// fragments.
	SendToChannel(chanID int, data []byte, total, flags int) error

	// GetChannelID resolves a channel name, or returns a negative value if
	// the channel does not exist.
	GetChannelID(name string) int
}

// Display host backend types.
const (
	HOST_BACKEND_EBITEN = iota
)

// NewSessionHost creates a display host using the specified backend.
func NewSessionHost(backend int) (SessionHost, error) {
	switch backend {
	case HOST_BACKEND_EBITEN:
		h, err := NewEbitenHost()
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	return nil, fmt.Errorf("unknown host backend type: %d", backend)
}
