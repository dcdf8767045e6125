// decode.go - Framebuffer update decoder

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import "fmt"

// Cursors are repainted into a fixed 32x32 24-bit buffer regardless of the
// size the server sent.
const (
	cursorSide      = 32
	cursorDataSize  = cursorSide * cursorSide * 3
	cursorMaskSize  = cursorSide * cursorSide / 8
	cursorHotMax    = cursorSide - 1
)

// framebufferUpdate decodes one FramebufferUpdate message rectangle by
// rectangle, bracketed by the host's begin/end update calls, and finishes
// with a follow-up incremental request covering the whole server area unless
// output is suppressed.
func (s *Session) framebufferUpdate() error {
	header, err := s.trans.ForceRead(3)
	if err != nil {
		return err
	}
	r := newBEReader(header)
	r.skip(1)
	numRects := int(r.u16())

	if err := s.host.BeginUpdate(); err != nil {
		return err
	}

	for i := 0; i < numRects; i++ {
		rectHdr, err := s.trans.ForceRead(12)
		if err != nil {
			return err
		}
		rh := newBEReader(rectHdr)
		x := int(rh.u16())
		y := int(rh.u16())
		cx := int(rh.u16())
		cy := int(rh.u16())
		encoding := encodingType(rh.u32())

		abort, err := s.decodeRect(x, y, cx, cy, encoding)
		if err != nil {
			return err
		}
		if abort {
			break
		}
	}

	if err := s.host.EndUpdate(); err != nil {
		return err
	}

	if s.suppressOutput {
		return nil
	}
	return s.sendUpdateRequest(true, 0, 0, s.serverWidth, s.serverHeight)
}

// decodeRect handles one rectangle. abort is true for an unknown encoding:
// the rest of the update cannot be parsed and is dropped.
func (s *Session) decodeRect(x, y, cx, cy int, encoding encodingType) (abort bool, err error) {
	switch encoding {
	case encRaw:
		needSize := cx * cy * bytesPerPixel(s.serverBPP)
		pixels, err := s.trans.ForceRead(needSize)
		if err != nil {
			return false, err
		}
		return false, s.host.PaintRect(x, y, cx, cy, pixels, cx, cy, 0, 0)

	case encCopyRect:
		body, err := s.trans.ForceRead(4)
		if err != nil {
			return false, err
		}
		r := newBEReader(body)
		srcX := int(r.u16())
		srcY := int(r.u16())
		return false, s.host.ScreenBlt(x, y, cx, cy, srcX, srcY)

	case encCursor:
		return false, s.decodeCursor(x, y, cx, cy)

	case encDesktopSize:
		// Server end has resized.
		s.serverWidth = cx
		s.serverHeight = cy
		return false, s.resizeClient(true, cx, cy)

	case encExtendedDesktopSize:
		layout, err := s.readExtendedDesktopSizeRect()
		if err != nil {
			return false, err
		}
		layout.TotalWidth = cx
		layout.TotalHeight = cy
		// x == 1 is a reply to a request from us and carries no new
		// geometry; anything else is the server changing size under us.
		if classifyEDSOrigin(x) != edsReplyToUs {
			s.serverWidth = layout.TotalWidth
			s.serverHeight = layout.TotalHeight
			if err := s.resizeClientFromLayout(true, layout); err != nil {
				if err == ErrResize {
					// Deliberate limitation; warned about in
					// resizeClientFromLayout.
					return false, nil
				}
				return false, err
			}
		}
		return false, nil

	default:
		s.host.Msg(fmt.Sprintf("VNC error in framebuffer update "+
			"encoding = %8.8x", uint32(encoding)), MsgError)
		return true, nil
	}
}

// decodeCursor reads a Cursor pseudo-rectangle and repaints it into the
// host's 32x32 24-bit cursor buffer. The RFB mask has 1 for opaque; the host
// convention is 1 for transparent, so each bit is inverted. Rows are flipped
// vertically, and the hotspot is clamped to the buffer.
func (s *Session) decodeCursor(hotX, hotY, cx, cy int) error {
	colorBytes := cx * cy * bytesPerPixel(s.serverBPP)
	maskBytes := ((cx + 7) / 8) * cy
	body, err := s.trans.ForceRead(colorBytes + maskBytes)
	if err != nil {
		return err
	}
	colors := body[:colorBytes]
	mask := body[colorBytes:]

	cursorData := make([]byte, cursorDataSize)
	cursorMask := make([]byte, cursorMaskSize)

	for j := 0; j < cursorSide; j++ {
		for k := 0; k < cursorSide; k++ {
			opaque := getPixelSafe(mask, k, cursorHotMax-j, cx, cy, 1)
			transparent := 1 - opaque
			setPixelSafe(cursorMask, k, j, cursorSide, cursorSide, 1, transparent)
			if opaque != 0 {
				pixel := getPixelSafe(colors, k, cursorHotMax-j, cx, cy, s.serverBPP)
				r, g, b := splitColor(pixel, s.serverBPP, s.palette[:])
				pixel = makeColor(r, g, b, 24)
				setPixelSafe(cursorData, k, j, cursorSide, cursorSide, 24, pixel)
			}
		}
	}

	if hotX > cursorHotMax {
		hotX = cursorHotMax
	}
	if hotY > cursorHotMax {
		hotY = cursorHotMax
	}
	return s.host.SetCursor(hotX, hotY, cursorData, cursorMask)
}

// paletteUpdate handles a SetColorMapEntries message: 16-bit channels are
// narrowed to 8 bits and packed as 0x00RRGGBB.
func (s *Session) paletteUpdate() error {
	header, err := s.trans.ForceRead(5)
	if err != nil {
		return err
	}
	r := newBEReader(header)
	r.skip(1)
	firstColor := int(r.u16())
	numColors := int(r.u16())

	body, err := s.trans.ForceRead(numColors * 6)
	if err != nil {
		return err
	}
	br := newBEReader(body)
	for i := 0; i < numColors; i++ {
		red := uint32(br.u16() >> 8)
		green := uint32(br.u16() >> 8)
		blue := uint32(br.u16() >> 8)
		idx := firstColor + i
		if idx >= 0 && idx < len(s.palette) {
			s.palette[idx] = red<<16 | green<<8 | blue
		}
	}

	if err := s.host.BeginUpdate(); err != nil {
		return err
	}
	if err := s.host.SetPalette(s.palette[:]); err != nil {
		return err
	}
	return s.host.EndUpdate()
}
