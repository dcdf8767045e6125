//go:build !headless

// host_keys_ebiten.go - Ebiten key to scancode mapping

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import "github.com/hajimehoshi/ebiten/v2"

// keyToScancode maps ebiten keys to the scancodes the keymap engine indexes
// on. Keys without an entry are ignored by the host.
var keyToScancode = map[ebiten.Key]int{
	ebiten.KeyA: 30,
	ebiten.KeyB: 48,
	ebiten.KeyC: 46,
	ebiten.KeyD: 32,
	ebiten.KeyE: 18,
	ebiten.KeyF: 33,
	ebiten.KeyG: 34,
	ebiten.KeyH: 35,
	ebiten.KeyI: 23,
	ebiten.KeyJ: 36,
	ebiten.KeyK: 37,
	ebiten.KeyL: 38,
	ebiten.KeyM: 50,
	ebiten.KeyN: 49,
	ebiten.KeyO: 24,
	ebiten.KeyP: 25,
	ebiten.KeyQ: 16,
	ebiten.KeyR: 19,
	ebiten.KeyS: 31,
	ebiten.KeyT: 20,
	ebiten.KeyU: 22,
	ebiten.KeyV: 47,
	ebiten.KeyW: 17,
	ebiten.KeyX: 45,
	ebiten.KeyY: 21,
	ebiten.KeyZ: 44,

	ebiten.KeyDigit0: 11,
	ebiten.KeyDigit1: 2,
	ebiten.KeyDigit2: 3,
	ebiten.KeyDigit3: 4,
	ebiten.KeyDigit4: 5,
	ebiten.KeyDigit5: 6,
	ebiten.KeyDigit6: 7,
	ebiten.KeyDigit7: 8,
	ebiten.KeyDigit8: 9,
	ebiten.KeyDigit9: 10,

	ebiten.KeyF1:  59,
	ebiten.KeyF2:  60,
	ebiten.KeyF3:  61,
	ebiten.KeyF4:  62,
	ebiten.KeyF5:  63,
	ebiten.KeyF6:  64,
	ebiten.KeyF7:  65,
	ebiten.KeyF8:  66,
	ebiten.KeyF9:  67,
	ebiten.KeyF10: 68,
	ebiten.KeyF11: 87,
	ebiten.KeyF12: 88,

	ebiten.KeyEscape:       1,
	ebiten.KeyTab:          15,
	ebiten.KeyBackspace:    14,
	ebiten.KeyEnter:        28,
	ebiten.KeySpace:        57,
	ebiten.KeyShiftLeft:    42,
	ebiten.KeyShiftRight:   42,
	ebiten.KeyControlLeft:  29,
	ebiten.KeyControlRight: 29,
	ebiten.KeyAltLeft:      56,
	ebiten.KeyAltRight:     56,
	ebiten.KeyCapsLock:     58,
	ebiten.KeyNumLock:      69,
	ebiten.KeyScrollLock:   70,

	ebiten.KeyBackslash:    43,
	ebiten.KeyComma:        51,
	ebiten.KeyPeriod:       52,
	ebiten.KeySlash:        53,
	ebiten.KeySemicolon:    39,
	ebiten.KeyQuote:        40,
	ebiten.KeyBracketLeft:  26,
	ebiten.KeyBracketRight: 27,
	ebiten.KeyMinus:        12,
	ebiten.KeyEqual:        13,
	ebiten.KeyBackquote:    41,

	ebiten.KeyDelete:     83,
	ebiten.KeyHome:       71,
	ebiten.KeyEnd:        79,
	ebiten.KeyPageUp:     73,
	ebiten.KeyPageDown:   81,
	ebiten.KeyArrowUp:    72,
	ebiten.KeyArrowRight: 77,
	ebiten.KeyArrowDown:  80,
	ebiten.KeyArrowLeft:  75,
}
