// resize.go - Dynamic resize negotiation state machine

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

// Reported by skipEncoding when a rectangle's size cannot be determined; the
// remainder of the update is abandoned.
var errUnknownEncoding = errors.New("unknown encoding")

// ResizeStatus is the state of the geometry negotiation layered on top of
// framebuffer updates at the start of a connection.
type ResizeStatus int

const (
	// Waiting for the first framebuffer update, which tells us whether the
	// server supports ExtendedDesktopSize resizes.
	ResizeWaitingFirstUpdate ResizeStatus = iota
	// A SetDesktopSize has been sent; waiting for the server's reply rect.
	ResizeWaitingConfirm
	// Negotiation finished; updates are processed normally.
	ResizeDone
)

// edsOrigin classifies the overloaded x field of an ExtendedDesktopSize
// rectangle at parse time.
type edsOrigin int

const (
	edsInitial edsOrigin = iota
	edsReplyToUs
	edsReplyToOther
	edsUnsolicited
)

func classifyEDSOrigin(x int) edsOrigin {
	switch x {
	case 0:
		return edsInitial
	case 1:
		return edsReplyToUs
	case 2:
		return edsReplyToOther
	default:
		// The community wiki says to treat undefined values as an initial
		// geometry announcement.
		return edsUnsolicited
	}
}

// readExtendedDesktopSizeRect reads the screen list that follows an
// ExtendedDesktopSize rectangle header. The returned layout's totals are not
// filled in; the caller takes them from the rectangle header.
func (s *Session) readExtendedDesktopSizeRect() (*ScreenLayout, error) {
	header, err := s.trans.ForceRead(4)
	if err != nil {
		return nil, err
	}
	count := int(header[0])
	body, err := s.trans.ForceRead(16 * count)
	if err != nil {
		return nil, err
	}
	layout := &ScreenLayout{}
	if err := layout.parseScreens(count, body); err != nil {
		return nil, err
	}
	return layout, nil
}

// sendSetDesktopSize asks the server to adopt the given layout.
func (s *Session) sendSetDesktopSize(layout *ScreenLayout) error {
	w := newBEWriter()
	w.u8(c2sSetDesktopSize)
	w.u8(0)
	w.u16(uint16(layout.TotalWidth))
	w.u16(uint16(layout.TotalHeight))
	w.u8(uint8(len(layout.Screens)))
	w.u8(0)
	layout.appendScreenRecords(w)
	logger.Debug("sending SetDesktopSize", "layout", layout.String())
	return s.trans.ForceWrite(w.buf)
}

// sendUpdateRequestForResizeStatus requests the next framebuffer update,
// shaped for the current negotiation state. While negotiating we always ask
// for at least a single pixel: empty areas are allowed by the community wiki
// but not widely supported.
func (s *Session) sendUpdateRequestForResizeStatus() error {
	switch s.resizeStatus {
	case ResizeWaitingFirstUpdate:
		return s.sendUpdateRequest(false, 0, 0, 1, 1)
	case ResizeWaitingConfirm:
		return s.sendUpdateRequest(true, 0, 0, 1, 1)
	default:
		if !s.suppressOutput {
			return s.sendUpdateRequest(false, 0, 0,
				s.serverWidth, s.serverHeight)
		}
		return nil
	}
}

func (s *Session) sendUpdateRequest(incremental bool, x, y, w, h int) error {
	msg := newBEWriter()
	msg.u8(c2sFramebufferUpdateRequest)
	if incremental {
		msg.u8(1)
	} else {
		msg.u8(0)
	}
	msg.u16(uint16(x))
	msg.u16(uint16(y))
	msg.u16(uint16(w))
	msg.u16(uint16(h))
	return s.trans.ForceWrite(msg.buf)
}

// resizeClient resizes the downstream client to a single screen of the given
// size, if it isn't one already. With updateInProgress the paint bracket is
// closed around the reset.
func (s *Session) resizeClient(updateInProgress bool, width, height int) error {
	if len(s.clientLayout.Screens) == 1 &&
		s.clientLayout.TotalWidth == width &&
		s.clientLayout.TotalHeight == height {
		return nil
	}
	if updateInProgress {
		if err := s.host.EndUpdate(); err != nil {
			return err
		}
	}
	if err := s.host.Reset(width, height, s.serverBPP); err != nil {
		return err
	}
	s.clientLayout.setSingleScreen(width, height)
	if updateInProgress {
		return s.host.BeginUpdate()
	}
	return nil
}

// resizeClientFromLayout resizes the downstream client to match a server
// layout. Only single-screen layouts can be applied: there is no way to move
// multiple screens about on a connected client. The failure is reported but
// downgraded; the caller decides what geometry to fall back to.
func (s *Session) resizeClientFromLayout(updateInProgress bool, layout *ScreenLayout) error {
	if s.clientLayout.Equal(layout) {
		return nil
	}
	if len(layout.Screens) != 1 {
		logger.Error("resize to multi-screen layout not implemented",
			"client", s.clientLayout.String(), "server", layout.String())
		return ErrResize
	}
	return s.resizeClient(updateInProgress, layout.TotalWidth, layout.TotalHeight)
}

// scanUpdateForExtendedRect parses an entire framebuffer update, skipping
// every rectangle except the first ExtendedDesktopSize one accepted by
// match. Returns the matched layout (totals filled from the rect header)
// and the rect's x and y fields, or a nil layout if nothing matched.
func (s *Session) scanUpdateForExtendedRect(match func(origin edsOrigin) bool) (*ScreenLayout, int, int, error) {
	header, err := s.trans.ForceRead(3)
	if err != nil {
		return nil, 0, 0, err
	}
	r := newBEReader(header)
	r.skip(1)
	numRects := int(r.u16())

	var matched *ScreenLayout
	matchX, matchY := 0, 0
	for i := 0; i < numRects; i++ {
		rectHdr, err := s.trans.ForceRead(12)
		if err != nil {
			return nil, 0, 0, err
		}
		rh := newBEReader(rectHdr)
		x := int(rh.u16())
		y := int(rh.u16())
		cx := int(rh.u16())
		cy := int(rh.u16())
		encoding := encodingType(rh.u32())

		if encoding == encExtendedDesktopSize && matched == nil &&
			match(classifyEDSOrigin(x)) {
			logger.Debug("matched ExtendedDesktopSize rectangle",
				"x", x, "y", y, "w", cx, "h", cy)
			layout, err := s.readExtendedDesktopSizeRect()
			if err != nil {
				return nil, 0, 0, err
			}
			layout.TotalWidth = cx
			layout.TotalHeight = cy
			matched = layout
			matchX, matchY = x, y
		} else if err := s.skipEncoding(cx, cy, encoding); err != nil {
			if err == errUnknownEncoding {
				// Nothing more can be parsed out of this update; drop
				// the rest and let the follow-up request resync us.
				break
			}
			return nil, 0, 0, err
		}
	}
	return matched, matchX, matchY, nil
}

// skipEncoding reads a rectangle body from the wire and discards it. An
// unknown encoding has an unknown size, so it returns errUnknownEncoding and
// the caller abandons the rest of the update.
func (s *Session) skipEncoding(cx, cy int, encoding encodingType) error {
	switch encoding {
	case encRaw:
		_, err := s.trans.ForceRead(cx * cy * bytesPerPixel(s.serverBPP))
		return err
	case encCopyRect:
		_, err := s.trans.ForceRead(4)
		return err
	case encCursor:
		colors := cx * cy * bytesPerPixel(s.serverBPP)
		mask := ((cx + 7) / 8) * cy
		_, err := s.trans.ForceRead(colors + mask)
		return err
	case encDesktopSize:
		return nil
	case encExtendedDesktopSize:
		_, err := s.readExtendedDesktopSizeRect()
		return err
	default:
		s.host.Msg(fmt.Sprintf("VNC unknown encoding = %8.8x",
			uint32(encoding)), MsgError)
		return errUnknownEncoding
	}
}

// framebufferFirstUpdate handles the first update of a connection: detect
// resize support, adopt or push a geometry, and move the state machine on.
func (s *Session) framebufferFirstUpdate() error {
	layout, _, _, err := s.scanUpdateForExtendedRect(func(origin edsOrigin) bool {
		return origin != edsReplyToUs && origin != edsReplyToOther
	})
	if err != nil {
		return err
	}

	if layout != nil {
		logger.Debug("server supports resizing")
		logger.Info("server layout", "layout", layout.String())

		// With one screen on each side, keep the server's screen ID and
		// flags. This may avoid an unwanted SetDesktopSize when the
		// dimensions already match; with more than one screen there is no
		// way to map the IDs.
		if len(layout.Screens) == 1 && len(s.clientLayout.Screens) == 1 {
			s.clientLayout.Screens[0].ID = layout.Screens[0].ID
			s.clientLayout.Screens[0].Flags = layout.Screens[0].Flags
		}

		if layout.Equal(&s.clientLayout) {
			logger.Debug("server layout matches client layout")
			s.resizeStatus = ResizeDone
		} else {
			logger.Debug("pushing client layout to server")
			if err := s.sendSetDesktopSize(&s.clientLayout); err != nil {
				return err
			}
			s.resizeStatus = ResizeWaitingConfirm
		}
	} else {
		logger.Debug("server does not support resizing")
		logger.Debug("resizing client to server geometry",
			"width", s.serverWidth, "height", s.serverHeight)
		if err := s.resizeClient(false, s.serverWidth, s.serverHeight); err != nil {
			return err
		}
		s.resizeStatus = ResizeDone
	}

	return s.sendUpdateRequestForResizeStatus()
}

// framebufferResizeConfirm looks for the server's reply to our
// SetDesktopSize. On failure the client is resized to the server's geometry
// instead.
func (s *Session) framebufferResizeConfirm() error {
	layout, _, responseCode, err := s.scanUpdateForExtendedRect(func(origin edsOrigin) bool {
		return origin == edsReplyToUs
	})
	if err != nil {
		return err
	}

	if layout != nil {
		if responseCode == 0 {
			logger.Debug("server resized successfully")
			logger.Info("new layout", "layout", layout.String())
		} else {
			logger.Warn("server resize failed",
				"code", responseCode, "reason", edsStatusText(responseCode))
			logger.Warn("resizing client to server geometry",
				"width", s.serverWidth, "height", s.serverHeight)
			if err := s.resizeClient(false, s.serverWidth, s.serverHeight); err != nil {
				return err
			}
		}
		s.resizeStatus = ResizeDone
	}

	return s.sendUpdateRequestForResizeStatus()
}
