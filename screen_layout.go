// screen_layout.go - Multi-monitor screen layout model

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"fmt"
	"sort"
	"strings"
)

// Screen is one monitor in an ExtendedDesktopSize screen list.
type Screen struct {
	ID     uint32
	X      uint16
	Y      uint16
	Width  uint16
	Height uint16
	Flags  uint32
}

// ScreenLayout is a multi-monitor layout. Screens are kept sorted by
// (ID, X, Y, Width, Height) so equality is positional.
type ScreenLayout struct {
	TotalWidth  int
	TotalHeight int
	Screens     []Screen
}

func cmpScreen(a, b Screen) int {
	switch {
	case a.ID != b.ID:
		return int(a.ID) - int(b.ID)
	case a.X != b.X:
		return int(a.X) - int(b.X)
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	case a.Width != b.Width:
		return int(a.Width) - int(b.Width)
	default:
		return int(a.Height) - int(b.Height)
	}
}

// sortScreens puts the screen list into canonical order.
func (l *ScreenLayout) sortScreens() {
	sort.Slice(l.Screens, func(i, j int) bool {
		return cmpScreen(l.Screens[i], l.Screens[j]) < 0
	})
}

// Equal reports whether two layouts have the same totals and pairwise-equal
// screens under the canonical order.
func (l *ScreenLayout) Equal(other *ScreenLayout) bool {
	if l.TotalWidth != other.TotalWidth ||
		l.TotalHeight != other.TotalHeight ||
		len(l.Screens) != len(other.Screens) {
		return false
	}
	for i := range l.Screens {
		if cmpScreen(l.Screens[i], other.Screens[i]) != 0 {
			return false
		}
	}
	return true
}

// setSingleScreen collapses the layout to one screen of the given size,
// preserving the previous first screen's ID and flags if there was one.
func (l *ScreenLayout) setSingleScreen(width, height int) {
	var id uint32
	var flags uint32
	if len(l.Screens) > 0 {
		id = l.Screens[0].ID
		flags = l.Screens[0].Flags
	}
	l.TotalWidth = width
	l.TotalHeight = height
	l.Screens = []Screen{{
		ID:     id,
		X:      0,
		Y:      0,
		Width:  uint16(width),
		Height: uint16(height),
		Flags:  flags,
	}}
}

// appendScreenRecords serializes the per-screen records: u32 id, u16 x,
// u16 y, u16 width, u16 height, u32 flags, all big-endian. The count header
// differs between the ExtendedDesktopSize payload (count + 3 pad) and the
// SetDesktopSize message (count + 1 pad), so callers write their own.
func (l *ScreenLayout) appendScreenRecords(w *beWriter) {
	for _, s := range l.Screens {
		w.u32(s.ID)
		w.u16(s.X)
		w.u16(s.Y)
		w.u16(s.Width)
		w.u16(s.Height)
		w.u32(s.Flags)
	}
}

// parseScreens deserializes a screen record block (without the count/pad
// header) into the layout and sorts it. The totals are left untouched.
func (l *ScreenLayout) parseScreens(count int, data []byte) error {
	if len(data) < count*16 {
		return protocolErr("screen list truncated: %d bytes for %d screens",
			len(data), count)
	}
	r := newBEReader(data)
	screens := make([]Screen, count)
	for i := 0; i < count; i++ {
		screens[i].ID = r.u32()
		screens[i].X = r.u16()
		screens[i].Y = r.u16()
		screens[i].Width = r.u16()
		screens[i].Height = r.u16()
		screens[i].Flags = r.u32()
	}
	l.Screens = screens
	l.sortScreens()
	return nil
}

// String renders the layout the way it appears in logs:
// "geom=WxH #screens=N : id:(WxH+X+Y) ...".
func (l *ScreenLayout) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "geom=%dx%d #screens=%d :",
		l.TotalWidth, l.TotalHeight, len(l.Screens))
	for _, s := range l.Screens {
		fmt.Fprintf(&sb, " %d:(%dx%d+%d+%d)", s.ID, s.Width, s.Height, s.X, s.Y)
	}
	return sb.String()
}

// ClientMonitor is one monitor in the downstream client's description,
// normalised for a top-left of (0,0).
type ClientMonitor struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// ClientInfo describes the downstream client's display at connect time.
type ClientInfo struct {
	Width    int
	Height   int
	MultiMon bool
	Monitors []ClientMonitor
}

// layoutFromClientInfo builds a layout from the downstream client's monitor
// description. Monitor IDs are assigned in order.
func layoutFromClientInfo(info *ClientInfo) ScreenLayout {
	var layout ScreenLayout
	if !info.MultiMon || len(info.Monitors) < 1 {
		layout.setSingleScreen(info.Width, info.Height)
		return layout
	}
	layout.TotalWidth = info.Width
	layout.TotalHeight = info.Height
	layout.Screens = make([]Screen, len(info.Monitors))
	for i, m := range info.Monitors {
		layout.Screens[i] = Screen{
			ID:     uint32(i),
			X:      uint16(m.Left),
			Y:      uint16(m.Top),
			Width:  uint16(m.Right - m.Left + 1),
			Height: uint16(m.Bottom - m.Top + 1),
		}
	}
	layout.sortScreens()
	return layout
}
