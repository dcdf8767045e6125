//go:build !headless

// host_backend_ebiten.go - Ebiten display host for VNCBridge

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
	xdraw "golang.org/x/image/draw"
)

// The one channel the viewer host exposes.
const ebitenClipChanID = 1

// pendingChannelEvent is a cliprdr frame the host wants to push into the
// session. Session callbacks must not re-enter the session, so frames are
// queued here and drained from the game loop.
type pendingChannelEvent struct {
	chanID int
	data   []byte
}

// EbitenHost is a complete downstream host: it renders the session
// framebuffer in an ebiten window, forwards keyboard and mouse input to the
// session, rings the bell through oto and bridges the cliprdr channel to the
// system clipboard.
type EbitenHost struct {
	mu sync.RWMutex

	width  int
	height int
	bpp    int
	scale  int
	frame  *image.RGBA

	palette [256]uint32
	fgColor uint32

	cursor     *image.RGBA
	cursorHotX int
	cursorHotY int

	session *Session
	pending []pendingChannelEvent

	bell *bellPlayer

	clipboardOnce sync.Once
	clipboardOK   bool
	lastClipText  []byte

	running   bool
	windowImg *ebiten.Image
	scaledImg *image.RGBA
	title     string
}

// NewEbitenHost creates an ebiten display host with a default geometry; the
// session resizes it through Reset.
func NewEbitenHost() (*EbitenHost, error) {
	return &EbitenHost{
		width:  1024,
		height: 768,
		bpp:    24,
		scale:  1,
		frame:  image.NewRGBA(image.Rect(0, 0, 1024, 768)),
		title:  "VNCBridge",
	}, nil
}

// SetScale sets the integer window scale factor.
func (h *EbitenHost) SetScale(scale int) {
	if scale < 1 {
		scale = 1
	}
	if scale > 4 {
		scale = 4
	}
	h.scale = scale
}

// SetTitle sets the window title; the server name is a good choice.
func (h *EbitenHost) SetTitle(title string) {
	h.title = title
}

// AttachSession binds the session this host drives. The host becomes the
// session's single thread: input, channel traffic and server messages are
// all dispatched from the game loop.
func (h *EbitenHost) AttachSession(s *Session) {
	h.session = s
}

// Run opens the window and blocks until it closes or the session dies.
func (h *EbitenHost) Run() error {
	h.running = true
	ebiten.SetWindowSize(h.width*h.scale, h.height*h.scale)
	ebiten.SetWindowTitle(h.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(h)
}

// SessionHost implementation ------------------------------------------------

func (h *EbitenHost) BeginUpdate() error { return nil }
func (h *EbitenHost) EndUpdate() error   { return nil }

func (h *EbitenHost) PaintRect(x, y, cx, cy int, data []byte, srcW, srcH, srcX, srcY int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for dy := 0; dy < cy; dy++ {
		for dx := 0; dx < cx; dx++ {
			pixel := getPixelSafe(data, srcX+dx, srcY+dy, srcW, srcH, h.bpp)
			r, g, b := splitColor(pixel, h.bpp, h.palette[:])
			h.setFramePixel(x+dx, y+dy, r, g, b)
		}
	}
	return nil
}

func (h *EbitenHost) ScreenBlt(x, y, cx, cy, srcX, srcY int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Copy via a staging buffer so overlapping regions are safe.
	staging := image.NewRGBA(image.Rect(0, 0, cx, cy))
	xdraw.Draw(staging, staging.Bounds(), h.frame, image.Pt(srcX, srcY), xdraw.Src)
	xdraw.Draw(h.frame, image.Rect(x, y, x+cx, y+cy), staging, image.Pt(0, 0), xdraw.Src)
	return nil
}

func (h *EbitenHost) SetCursor(hotX, hotY int, data, mask []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// The cursor buffer is bottom-up; flip rows back for display. A set
	// mask bit means transparent.
	cur := image.NewRGBA(image.Rect(0, 0, cursorSide, cursorSide))
	for y := 0; y < cursorSide; y++ {
		bufRow := cursorSide - 1 - y
		for x := 0; x < cursorSide; x++ {
			if getPixelSafe(mask, x, bufRow, cursorSide, cursorSide, 1) != 0 {
				continue
			}
			off := (bufRow*cursorSide + x) * 3
			if off+2 >= len(data) {
				continue
			}
			idx := cur.PixOffset(x, y)
			cur.Pix[idx] = data[off+2]   // red
			cur.Pix[idx+1] = data[off+1] // green
			cur.Pix[idx+2] = data[off]   // blue
			cur.Pix[idx+3] = 0xff
		}
	}
	h.cursor = cur
	h.cursorHotX = hotX
	h.cursorHotY = hotY
	return nil
}

func (h *EbitenHost) SetPalette(palette []uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	copy(h.palette[:], palette)
	return nil
}

func (h *EbitenHost) Bell() error {
	if h.bell == nil {
		bell, err := newBellPlayer()
		if err != nil {
			logger.Warn("bell unavailable", "err", err)
			return nil
		}
		h.bell = bell
	}
	h.bell.Ring()
	return nil
}

func (h *EbitenHost) Msg(text string, level int) error {
	if level == MsgError {
		logger.Error(text)
	} else {
		logger.Info(text)
	}
	return nil
}

func (h *EbitenHost) Reset(width, height, bpp int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width = width
	h.height = height
	h.bpp = bpp
	h.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	h.windowImg = nil
	h.scaledImg = nil
	ebiten.SetWindowSize(width*h.scale, height*h.scale)
	return nil
}

func (h *EbitenHost) SetFgColor(color uint32) error {
	h.fgColor = color
	return nil
}

func (h *EbitenHost) FillRect(x, y, cx, cy int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, g, b := splitColor(int(h.fgColor), h.bpp, h.palette[:])
	for dy := 0; dy < cy; dy++ {
		for dx := 0; dx < cx; dx++ {
			h.setFramePixel(x+dx, y+dy, r, g, b)
		}
	}
	return nil
}

// SendToChannel receives cliprdr frames from the session. A format announce
// means the server has new clipboard text: ask for it as CF_TEXT. A data
// response carries the text: hand it to the system clipboard. Replies are
// queued, never re-entered.
func (h *EbitenHost) SendToChannel(chanID int, data []byte, total, flags int) error {
	if chanID != ebitenClipChanID || len(data) < 8 {
		return nil
	}
	r := newLEReader(data)
	msgType := int(r.u16())
	r.u16() // status
	length := int(r.u32())

	switch msgType {
	case cliprdrFormatAnnounce:
		req := newLEWriter()
		req.u16(cliprdrDataRequest)
		req.u16(0)
		req.u32(4)
		req.u32(cfText)
		h.queueChannelEvent(chanID, req.buf)

	case cliprdrDataResponse:
		n := length
		if n > r.remaining() {
			n = r.remaining()
		}
		text := r.bytes(n)
		// Strip the trailing NUL that CF_TEXT carries.
		if len(text) > 0 && text[len(text)-1] == 0 {
			text = text[:len(text)-1]
		}
		h.writeSystemClipboard(text)
	}
	return nil
}

func (h *EbitenHost) GetChannelID(name string) int {
	if name == "cliprdr" {
		return ebitenClipChanID
	}
	return -1
}

// Game loop -----------------------------------------------------------------

func (h *EbitenHost) queueChannelEvent(chanID int, data []byte) {
	h.pending = append(h.pending, pendingChannelEvent{chanID: chanID, data: data})
}

func (h *EbitenHost) drainChannelEvents() error {
	for len(h.pending) > 0 {
		ev := h.pending[0]
		h.pending = h.pending[1:]
		err := h.session.Event(eventChannelData, uint32(ev.chanID),
			uint32(len(ev.data)), ev.data)
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *EbitenHost) Update() error {
	if ebiten.IsWindowBeingClosed() || !h.running {
		return ebiten.Termination
	}
	if h.session == nil {
		return nil
	}

	if err := h.handleInput(); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	if err := h.pollSystemClipboard(); err != nil {
		return err
	}
	if err := h.drainChannelEvents(); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	if err := h.session.CheckWaitObjs(); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}

func (h *EbitenHost) handleInput() error {
	mx, my := ebiten.CursorPosition()
	mx /= h.scale
	my /= h.scale

	type buttonMap struct {
		button ebiten.MouseButton
		down   int
		up     int
	}
	buttons := []buttonMap{
		{ebiten.MouseButtonLeft, 102, 101},
		{ebiten.MouseButtonRight, 104, 103},
		{ebiten.MouseButtonMiddle, 106, 105},
	}
	for _, b := range buttons {
		if inpututil.IsMouseButtonJustPressed(b.button) {
			if err := h.session.Event(b.down, uint32(mx), uint32(my), nil); err != nil {
				return err
			}
		}
		if inpututil.IsMouseButtonJustReleased(b.button) {
			if err := h.session.Event(b.up, uint32(mx), uint32(my), nil); err != nil {
				return err
			}
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		down, up := 108, 107
		if wy < 0 {
			down, up = 110, 109
		}
		if err := h.session.Event(down, uint32(mx), uint32(my), nil); err != nil {
			return err
		}
		if err := h.session.Event(up, uint32(mx), uint32(my), nil); err != nil {
			return err
		}
	}

	if err := h.session.Event(100, uint32(mx), uint32(my), nil); err != nil {
		return err
	}

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		if sc, ok := keyToScancode[key]; ok {
			if err := h.session.HandleKey(sc, 0); err != nil {
				return err
			}
		}
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		if sc, ok := keyToScancode[key]; ok {
			if err := h.session.HandleKey(sc, keyDirectionRelease); err != nil {
				return err
			}
		}
	}
	return nil
}

// pollSystemClipboard pushes local clipboard changes to the session as an
// announce followed by the text itself.
func (h *EbitenHost) pollSystemClipboard() error {
	h.clipboardOnce.Do(func() {
		h.clipboardOK = clipboard.Init() == nil
	})
	if !h.clipboardOK {
		return nil
	}
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 || string(text) == string(h.lastClipText) {
		return nil
	}
	h.lastClipText = append([]byte(nil), text...)

	announce := newLEWriter()
	announce.u16(cliprdrFormatAnnounce)
	announce.u16(0)
	announce.u32(36)
	announce.u8(cfText)
	announce.pad(35)
	announce.pad(4)
	h.queueChannelEvent(ebitenClipChanID, announce.buf)

	resp := newLEWriter()
	resp.u16(cliprdrDataResponse)
	resp.u16(1)
	resp.u32(uint32(len(text)))
	resp.bytes(text)
	resp.pad(4)
	h.queueChannelEvent(ebitenClipChanID, resp.buf)
	return nil
}

func (h *EbitenHost) writeSystemClipboard(text []byte) {
	h.clipboardOnce.Do(func() {
		h.clipboardOK = clipboard.Init() == nil
	})
	if !h.clipboardOK || len(text) == 0 {
		return
	}
	clipboard.Write(clipboard.FmtText, text)
}

func (h *EbitenHost) setFramePixel(x, y, r, g, b int) {
	if x < 0 || y < 0 || x >= h.width || y >= h.height {
		return
	}
	idx := h.frame.PixOffset(x, y)
	h.frame.Pix[idx] = byte(r)
	h.frame.Pix[idx+1] = byte(g)
	h.frame.Pix[idx+2] = byte(b)
	h.frame.Pix[idx+3] = 0xff
}

func (h *EbitenHost) Draw(screen *ebiten.Image) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.windowImg == nil {
		h.windowImg = ebiten.NewImage(h.width*h.scale, h.height*h.scale)
	}

	if h.scale == 1 {
		h.windowImg.WritePixels(h.frame.Pix)
	} else {
		if h.scaledImg == nil {
			h.scaledImg = image.NewRGBA(image.Rect(0, 0, h.width*h.scale, h.height*h.scale))
		}
		xdraw.NearestNeighbor.Scale(h.scaledImg, h.scaledImg.Bounds(),
			h.frame, h.frame.Bounds(), xdraw.Src, nil)
		h.windowImg.WritePixels(h.scaledImg.Pix)
	}
	screen.DrawImage(h.windowImg, nil)

	if h.cursor != nil {
		mx, my := ebiten.CursorPosition()
		cur := ebiten.NewImageFromImage(h.cursor)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(mx-h.cursorHotX*h.scale), float64(my-h.cursorHotY*h.scale))
		screen.DrawImage(cur, op)
	}
}

func (h *EbitenHost) Layout(_, _ int) (int, int) {
	return h.width * h.scale, h.height * h.scale
}
