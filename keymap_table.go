// keymap_table.go - Default US keymap table

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

func kk(attrs keyAttr, sym, shiftedSym uint32) KeymapEntry {
	return KeymapEntry{Attrs: attrs | keyValid, Sym: sym, ShiftedSym: shiftedSym}
}

// defaultKeyTable builds the US-layout scancode table. Syms are X11 keysyms.
func defaultKeyTable() [256]KeymapEntry {
	var keys [256]KeymapEntry

	const autoRepeat = keyAutoRepeat
	const capsLockable = keyCapsLockable

	// a-z
	keys[30] = kk(autoRepeat|capsLockable, 0x0061, 0x0041)
	keys[48] = kk(autoRepeat|capsLockable, 0x0062, 0x0042)
	keys[46] = kk(autoRepeat|capsLockable, 0x0063, 0x0043)
	keys[32] = kk(autoRepeat|capsLockable, 0x0064, 0x0044)
	keys[18] = kk(autoRepeat|capsLockable, 0x0065, 0x0045)
	keys[33] = kk(autoRepeat|capsLockable, 0x0066, 0x0046)
	keys[34] = kk(autoRepeat|capsLockable, 0x0067, 0x0047)
	keys[35] = kk(autoRepeat|capsLockable, 0x0068, 0x0048)
	keys[23] = kk(autoRepeat|capsLockable, 0x0069, 0x0049)
	keys[36] = kk(autoRepeat|capsLockable, 0x006a, 0x004a)
	keys[37] = kk(autoRepeat|capsLockable, 0x006b, 0x004b)
	keys[38] = kk(autoRepeat|capsLockable, 0x006c, 0x004c)
	keys[50] = kk(autoRepeat|capsLockable, 0x006d, 0x004d)
	keys[49] = kk(autoRepeat|capsLockable, 0x006e, 0x004e)
	keys[24] = kk(autoRepeat|capsLockable, 0x006f, 0x004f)
	keys[25] = kk(autoRepeat|capsLockable, 0x0070, 0x0050)
	keys[16] = kk(autoRepeat|capsLockable, 0x0071, 0x0051)
	keys[19] = kk(autoRepeat|capsLockable, 0x0072, 0x0052)
	keys[31] = kk(autoRepeat|capsLockable, 0x0073, 0x0053)
	keys[20] = kk(autoRepeat|capsLockable, 0x0074, 0x0054)
	keys[22] = kk(autoRepeat|capsLockable, 0x0075, 0x0055)
	keys[47] = kk(autoRepeat|capsLockable, 0x0076, 0x0056)
	keys[17] = kk(autoRepeat|capsLockable, 0x0077, 0x0057)
	keys[45] = kk(autoRepeat|capsLockable, 0x0078, 0x0058)
	keys[21] = kk(autoRepeat|capsLockable, 0x0079, 0x0059)
	keys[44] = kk(autoRepeat|capsLockable, 0x007a, 0x005a)

	// 0-9
	keys[11] = kk(autoRepeat, 0x0030, 0x0029)
	keys[2] = kk(autoRepeat, 0x0031, 0x0021)
	keys[3] = kk(autoRepeat, 0x0032, 0x0040)
	keys[4] = kk(autoRepeat, 0x0033, 0x0023)
	keys[5] = kk(autoRepeat, 0x0034, 0x0024)
	keys[6] = kk(autoRepeat, 0x0035, 0x0025)
	keys[7] = kk(autoRepeat, 0x0036, 0x005e)
	keys[8] = kk(autoRepeat, 0x0037, 0x0026)
	keys[9] = kk(autoRepeat, 0x0038, 0x002a)
	keys[10] = kk(autoRepeat, 0x0039, 0x0028)

	// F1-F12
	keys[59] = kk(autoRepeat, 0xffbe, 0xffbe)
	keys[60] = kk(autoRepeat, 0xffbf, 0xffbf)
	keys[61] = kk(autoRepeat, 0xffc0, 0xffc0)
	keys[62] = kk(autoRepeat, 0xffc1, 0xffc1)
	keys[63] = kk(autoRepeat, 0xffc2, 0xffc2)
	keys[64] = kk(autoRepeat, 0xffc3, 0xffc3)
	keys[65] = kk(autoRepeat, 0xffc4, 0xffc4)
	keys[66] = kk(autoRepeat, 0xffc5, 0xffc5)
	keys[67] = kk(autoRepeat, 0xffc6, 0xffc6)
	keys[68] = kk(autoRepeat, 0xffc7, 0xffc7)
	keys[87] = kk(autoRepeat, 0xffc8, 0xffc8)
	keys[88] = kk(autoRepeat, 0xffc9, 0xffc9)

	// shift, ctrl, alt
	keys[42] = kk(0, 0xffe1, 0xffe1)
	keys[29] = kk(0, 0xffe3, 0xffe3)
	keys[56] = kk(0, 0xffe9, 0xffe9)

	// capslock
	keys[58] = kk(keyIsCapsLock, 0xffe5, 0xffe5)

	// esc, tab, enter, space, punctuation
	keys[1] = kk(autoRepeat, 0xff1b, 0xff1b)
	keys[15] = kk(autoRepeat, 0xff09, 0xff09)
	keys[28] = kk(autoRepeat, 0xff0d, 0xff0d)
	keys[57] = kk(autoRepeat, 0x0020, 0x0020)
	keys[43] = kk(autoRepeat, 0x005c, 0x007c) // backslash
	keys[51] = kk(autoRepeat, 0x002c, 0x003c) // ,
	keys[52] = kk(autoRepeat, 0x002e, 0x003e) // .
	keys[53] = kk(autoRepeat, 0x002f, 0x003f) // /
	keys[39] = kk(autoRepeat, 0x003b, 0x003a) // ;
	keys[40] = kk(autoRepeat, 0x0027, 0x0022) // '
	keys[26] = kk(autoRepeat, 0x005b, 0x007b) // [
	keys[27] = kk(autoRepeat, 0x005d, 0x007d) // ]
	keys[12] = kk(autoRepeat, 0x002d, 0x005f) // -
	keys[13] = kk(autoRepeat, 0x003d, 0x002b) // =
	keys[41] = kk(autoRepeat, 0x0060, 0x007e) // `

	// del, backspace
	keys[83] = kk(autoRepeat, 0xff9f, 0xff9f)
	keys[14] = kk(autoRepeat, 0xff08, 0xff08)

	// home, end, pgup, pgdown
	keys[71] = kk(autoRepeat, 0xff95, 0xff95)
	keys[79] = kk(autoRepeat, 0xff9c, 0xff9c)
	keys[73] = kk(autoRepeat, 0xff55, 0xff55)
	keys[81] = kk(autoRepeat, 0xff56, 0xff56)

	// up, right, down, left
	keys[72] = kk(autoRepeat, 0xff52, 0xff52)
	keys[77] = kk(autoRepeat, 0xff53, 0xff53)
	keys[80] = kk(autoRepeat, 0xff54, 0xff54)
	keys[75] = kk(autoRepeat, 0xff51, 0xff51)

	// num-lock, scroll lock, sysrq
	keys[69] = kk(keyIsNumLock, 0xff7f, 0xff7f)
	keys[70] = kk(autoRepeat, 0xff14, 0xff14)
	keys[78] = kk(autoRepeat, 0xff15, 0xff61)

	return keys
}
