// wire.go - Typed big/little-endian wire readers and writers

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import "encoding/binary"

// The RFB wire is big-endian; the clipboard channel is little-endian. The two
// byte orders never share a reader or writer type, so a call site always
// states which protocol it is speaking.

// beReader reads RFB (big-endian) primitives from a byte slice. Callers size
// the slice with a force-read first, so reads never run past the end.
type beReader struct {
	buf []byte
	off int
}

func newBEReader(buf []byte) *beReader {
	return &beReader{buf: buf}
}

func (r *beReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *beReader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *beReader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *beReader) skip(n int) {
	r.off += n
}

func (r *beReader) bytes(n int) []byte {
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *beReader) remaining() int {
	return len(r.buf) - r.off
}

// beWriter builds an RFB (big-endian) message.
type beWriter struct {
	buf []byte
}

func newBEWriter() *beWriter {
	return &beWriter{buf: make([]byte, 0, 64)}
}

func (w *beWriter) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *beWriter) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *beWriter) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *beWriter) pad(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

func (w *beWriter) bytes(v []byte) {
	w.buf = append(w.buf, v...)
}

// leReader reads clipboard-channel (little-endian) primitives.
type leReader struct {
	buf []byte
	off int
}

func newLEReader(buf []byte) *leReader {
	return &leReader{buf: buf}
}

func (r *leReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *leReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *leReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *leReader) bytes(n int) []byte {
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *leReader) remaining() int {
	return len(r.buf) - r.off
}

// leWriter builds a clipboard-channel (little-endian) message.
type leWriter struct {
	buf []byte
}

func newLEWriter() *leWriter {
	return &leWriter{buf: make([]byte, 0, 64)}
}

func (w *leWriter) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *leWriter) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *leWriter) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *leWriter) pad(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

func (w *leWriter) bytes(v []byte) {
	w.buf = append(w.buf, v...)
}
