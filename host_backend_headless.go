//go:build headless

// host_backend_headless.go - Headless display host stub

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import "time"

// EbitenHost in a headless build is a no-display stand-in with the same
// surface, so the example binary still links without a window system.
type EbitenHost struct {
	width   int
	height  int
	bpp     int
	session *Session
}

func NewEbitenHost() (*EbitenHost, error) {
	return &EbitenHost{width: 1024, height: 768, bpp: 24}, nil
}

func (h *EbitenHost) SetScale(scale int)       {}
func (h *EbitenHost) SetTitle(title string)    {}
func (h *EbitenHost) AttachSession(s *Session) { h.session = s }

// Run drives the session without a display until it dies.
func (h *EbitenHost) Run() error {
	for {
		if _, err := h.session.WaitReadable(100 * time.Millisecond); err != nil {
			return err
		}
		if err := h.session.CheckWaitObjs(); err != nil {
			return err
		}
	}
}

func (h *EbitenHost) BeginUpdate() error { return nil }
func (h *EbitenHost) EndUpdate() error   { return nil }

func (h *EbitenHost) PaintRect(x, y, cx, cy int, data []byte, srcW, srcH, srcX, srcY int) error {
	return nil
}

func (h *EbitenHost) ScreenBlt(x, y, cx, cy, srcX, srcY int) error { return nil }

func (h *EbitenHost) SetCursor(hotX, hotY int, data, mask []byte) error { return nil }

func (h *EbitenHost) SetPalette(palette []uint32) error { return nil }

func (h *EbitenHost) Bell() error { return nil }

func (h *EbitenHost) Msg(text string, level int) error {
	if level == MsgError {
		logger.Error(text)
	} else {
		logger.Info(text)
	}
	return nil
}

func (h *EbitenHost) Reset(width, height, bpp int) error {
	h.width = width
	h.height = height
	h.bpp = bpp
	return nil
}

func (h *EbitenHost) SetFgColor(color uint32) error { return nil }

func (h *EbitenHost) FillRect(x, y, cx, cy int) error { return nil }

func (h *EbitenHost) SendToChannel(chanID int, data []byte, total, flags int) error {
	return nil
}

func (h *EbitenHost) GetChannelID(name string) int { return -1 }
