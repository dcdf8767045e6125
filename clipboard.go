// clipboard.go - Bidirectional clipboard bridge

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

// The bridge translates between the host's cliprdr virtual channel
// (little-endian framing) and RFB cut-text messages (big-endian). Text
// copied on the server side is buffered in s.clipBuffer until the host asks
// for it; text pasted on the host side is forwarded to the server as a
// ClientCutText.

// openClipChannel resolves the cliprdr channel and sends the initial
// greeting. A missing channel disables the bridge but is not an error.
func (s *Session) openClipChannel() {
	s.clipChanID = s.host.GetChannelID("cliprdr")
	if s.clipChanID < 0 {
		logger.Info("no cliprdr channel, clipboard bridge disabled")
		return
	}
	greeting := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	s.host.SendToChannel(s.clipChanID, greeting, len(greeting), chanFlagFirstLast)
}

// processChannelData handles one chunk of host channel data. Only the
// cliprdr channel is understood.
func (s *Session) processChannelData(chanID int, data []byte) error {
	if chanID != s.clipChanID {
		logger.Debug("data for unknown channel", "chanid", chanID,
			"clip_chanid", s.clipChanID)
		return nil
	}
	if len(data) < 8 {
		logger.Debug("short clip message", "size", len(data))
		return nil
	}

	r := newLEReader(data)
	msgType := int(r.u16())
	status := int(r.u16())
	length := int(r.u32())
	logger.Debug("clip data", "type", msgType, "status", status, "length", length)

	switch msgType {
	case cliprdrFormatAnnounce:
		return s.sendFormatAck()

	case cliprdrFormatAck:
		logger.Debug("clip format ack", "status", status)
		return nil

	case cliprdrDataRequest:
		format := 0
		if length >= 4 && r.remaining() >= 4 {
			format = int(r.u32())
		}
		// Only CF_TEXT and CF_UNICODETEXT are served; other formats are
		// silently dropped.
		if format != cfText && format != cfUnicodeText {
			return nil
		}
		return s.sendDataResponse(format)

	case cliprdrDataResponse:
		clipBytes := min(length, 256)
		if clipBytes > r.remaining() {
			clipBytes = r.remaining()
		}
		return s.sendClientCutText(r.bytes(clipBytes))

	default:
		logger.Debug("clip message unhandled", "type", msgType)
		return nil
	}
}

// sendFormatAck answers a host FORMAT_ANNOUNCE.
func (s *Session) sendFormatAck() error {
	w := newLEWriter()
	w.u16(cliprdrFormatAck)
	w.u16(1) // response ok
	w.u32(0)
	w.pad(4)
	return s.host.SendToChannel(s.clipChanID, w.buf, len(w.buf), chanFlagFirstLast)
}

// sendDataResponse serves the stored clip buffer to the host in the
// requested format. CF_TEXT gets the raw bytes plus one trailing NUL;
// CF_UNICODETEXT expands each byte to a little-endian u16 plus two trailing
// NULs.
func (s *Session) sendDataResponse(format int) error {
	w := newLEWriter()
	w.u16(cliprdrDataResponse)
	w.u16(1) // response ok
	if format == cfUnicodeText {
		w.u32(uint32(len(s.clipBuffer)*2 + 2))
		for _, b := range s.clipBuffer {
			w.u8(b)
			w.u8(0)
		}
		w.pad(2)
	} else {
		w.u32(uint32(len(s.clipBuffer) + 1))
		w.bytes(s.clipBuffer)
		w.pad(1)
	}
	w.pad(4)
	return s.host.SendToChannel(s.clipChanID, w.buf, len(w.buf), chanFlagFirstLast)
}

// sendClientCutText forwards host clipboard bytes to the server.
func (s *Session) sendClientCutText(text []byte) error {
	w := newBEWriter()
	w.u8(c2sClientCutText)
	w.pad(3)
	w.u32(uint32(len(text)))
	w.bytes(text)
	return s.trans.ForceWrite(w.buf)
}

// serverCutText handles an RFB ServerCutText: buffer the text, then announce
// the fixed format set to the host channel.
func (s *Session) serverCutText() error {
	header, err := s.trans.ForceRead(7)
	if err != nil {
		return err
	}
	r := newBEReader(header)
	r.skip(3)
	size := int(r.u32())
	s.clipBuffer, err = s.trans.ForceRead(size)
	if err != nil {
		return err
	}
	if s.clipChanID < 0 {
		return nil
	}
	return s.sendFormatAnnounce()
}

// sendFormatAnnounce advertises CF_UNICODETEXT, CF_LOCALE, CF_TEXT and
// CF_OEMTEXT to the host: four 36-octet format slots (u32 LE id plus a
// 32-octet name slot) and four pad octets.
func (s *Session) sendFormatAnnounce() error {
	formats := []uint8{cfUnicodeText, cfLocale, cfText, cfOEMText}
	w := newLEWriter()
	w.u16(cliprdrFormatAnnounce)
	w.u16(0)
	w.u32(uint32(len(formats) * 36))
	for _, f := range formats {
		w.u8(f)
		w.pad(35)
	}
	w.pad(4)
	return s.host.SendToChannel(s.clipChanID, w.buf, len(w.buf), chanFlagFirstLast)
}
