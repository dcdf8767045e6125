// keymap.go - Scancode to X11 keysym translation engine

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Attribute flags for one keymap slot.
type keyAttr uint8

const (
	keyValid        keyAttr = 1 << 0
	keyAutoRepeat   keyAttr = 1 << 1
	keyIsDown       keyAttr = 1 << 2
	keyCapsLockable keyAttr = 1 << 3
	keyNumLockable  keyAttr = 1 << 4
	keyIsCapsLock   keyAttr = 1 << 5
	keyIsNumLock    keyAttr = 1 << 6
)

// The left-shift slot; its down state is the global "shift held" state.
const shiftScancode = 42

// The host encodes key release as this magic direction value; anything else
// is a press.
const keyDirectionRelease = 0x8000

// KeymapEntry maps one scancode to an unshifted and a shifted keysym.
type KeymapEntry struct {
	Attrs      keyAttr
	Sym        uint32
	ShiftedSym uint32
}

func (e *KeymapEntry) valid() bool        { return e.Attrs&keyValid != 0 }
func (e *KeymapEntry) autoRepeats() bool  { return e.Attrs&keyAutoRepeat != 0 }
func (e *KeymapEntry) isDown() bool       { return e.Attrs&keyIsDown != 0 }
func (e *KeymapEntry) capsLockable() bool { return e.Attrs&keyCapsLockable != 0 }
func (e *KeymapEntry) numLockable() bool  { return e.Attrs&keyNumLockable != 0 }
func (e *KeymapEntry) isCapsLock() bool   { return e.Attrs&keyIsCapsLock != 0 }
func (e *KeymapEntry) isNumLock() bool    { return e.Attrs&keyIsNumLock != 0 }
func (e *KeymapEntry) setDown()           { e.Attrs |= keyIsDown }
func (e *KeymapEntry) setUp()             { e.Attrs &^= keyIsDown }

// Keymap holds the 256-slot scancode table and the session lock state. The
// upstream exposes no lock or shift state of its own, so both are tracked
// here from the event stream.
type Keymap struct {
	keys       [256]KeymapEntry
	capsLocked bool
	numLocked  bool
}

// NewKeymap returns a keymap initialised with the default US table.
func NewKeymap() *Keymap {
	return &Keymap{keys: defaultKeyTable()}
}

func (k *Keymap) shiftDown() bool {
	return k.keys[shiftScancode].isDown()
}

// translate picks the shifted or unshifted sym for an entry. Caps-lockable
// entries shift on shift XOR caps-lock, num-lockable on shift XOR num-lock.
func (k *Keymap) translate(e *KeymapEntry) uint32 {
	shift := k.shiftDown()
	switch {
	case e.capsLockable():
		if shift != k.capsLocked {
			return e.ShiftedSym
		}
	case e.numLockable():
		if shift != k.numLocked {
			return e.ShiftedSym
		}
	default:
		if shift {
			return e.ShiftedSym
		}
	}
	return e.Sym
}

// Handle translates one host key event into zero or more wire key events,
// delivered through send. Unknown scancodes and invalid slots are absorbed
// with a diagnostic. direction is the host's raw direction value; 0x8000
// means release.
func (k *Keymap) Handle(scancode, direction int, send func(sym uint32, down bool) error) error {
	if scancode < 0 || scancode > 255 {
		logger.Debug("key code out of range, dropped", "scancode", scancode)
		return nil
	}
	entry := &k.keys[scancode]
	if !entry.valid() {
		logger.Debug("key code not mapped, dropped", "scancode", scancode)
		return nil
	}
	if direction == keyDirectionRelease {
		return k.handleRelease(entry, send)
	}
	return k.handlePress(entry, send)
}

func (k *Keymap) handlePress(entry *KeymapEntry, send func(uint32, bool) error) error {
	sym := k.translate(entry)
	if entry.autoRepeats() {
		// The host sends repeated key-downs with no intervening key-up
		// for auto-repeat. For these keys the host key-up is ignored and
		// each key-down becomes a down-up pair, so the repeat rate does
		// not depend on network latency.
		if err := send(sym, true); err != nil {
			return err
		}
		return send(sym, false)
	}
	// Repeated key-downs with no intervening key-up are deduplicated.
	if entry.isDown() {
		return nil
	}
	if err := send(sym, true); err != nil {
		return err
	}
	entry.setDown()
	return nil
}

func (k *Keymap) handleRelease(entry *KeymapEntry, send func(uint32, bool) error) error {
	// The sym is chosen before the locks toggle, so the lock key itself
	// goes out under the pre-toggle state.
	sym := k.translate(entry)
	if entry.isCapsLock() {
		k.capsLocked = !k.capsLocked
	}
	if entry.isNumLock() {
		k.numLocked = !k.numLocked
	}
	if entry.autoRepeats() {
		// Release was already synthesized on press.
		return nil
	}
	if !entry.isDown() {
		return nil
	}
	if err := send(sym, false); err != nil {
		return err
	}
	entry.setUp()
	return nil
}

// keymapOverlay is the YAML shape of a keymap overlay file. Listed scancodes
// replace the default table entry; everything else is left alone.
type keymapOverlay struct {
	Keys []struct {
		Scancode     int    `yaml:"scancode"`
		Sym          uint32 `yaml:"sym"`
		Shifted      uint32 `yaml:"shifted"`
		AutoRepeat   bool   `yaml:"autorepeat"`
		CapsLockable bool   `yaml:"capslockable"`
		NumLockable  bool   `yaml:"numlockable"`
		CapsLock     bool   `yaml:"capslock"`
		NumLock      bool   `yaml:"numlock"`
	} `yaml:"keys"`
}

// LoadOverlay applies a YAML keymap overlay file on top of the current table.
func (k *Keymap) LoadOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return configErr("keymap overlay %s: %v", path, err)
	}
	var overlay keymapOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return configErr("keymap overlay %s: %v", path, err)
	}
	for _, e := range overlay.Keys {
		if e.Scancode < 0 || e.Scancode > 255 {
			return configErr("keymap overlay %s: scancode %d out of range",
				path, e.Scancode)
		}
		if e.CapsLock && e.NumLock {
			return configErr("keymap overlay %s: scancode %d is both "+
				"capslock and numlock", path, e.Scancode)
		}
		attrs := keyValid
		if e.AutoRepeat {
			attrs |= keyAutoRepeat
		}
		if e.CapsLockable {
			attrs |= keyCapsLockable
		}
		if e.NumLockable {
			attrs |= keyNumLockable
		}
		if e.CapsLock {
			attrs |= keyIsCapsLock
		}
		if e.NumLock {
			attrs |= keyIsNumLock
		}
		shifted := e.Shifted
		if shifted == 0 {
			shifted = e.Sym
		}
		k.keys[e.Scancode] = KeymapEntry{Attrs: attrs, Sym: e.Sym, ShiftedSym: shifted}
	}
	logger.Info("keymap overlay applied", "path", path, "keys", len(overlay.Keys))
	return nil
}

func (k *Keymap) String() string {
	mapped := 0
	for i := range k.keys {
		if k.keys[i].valid() {
			mapped++
		}
	}
	return fmt.Sprintf("keymap: %d mapped, caps=%v num=%v",
		mapped, k.capsLocked, k.numLocked)
}
