// main.go - VNCBridge example viewer

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/urnest/vncbridge"
)

func main() {
	addr := flag.StringP("addr", "a", "localhost:5900", "VNC server address (host:port)")
	password := flag.StringP("password", "p", "", "VNC password (prompted if empty and stdin is a terminal)")
	bpp := flag.Int("bpp", 24, "wire depth: 8, 15, 16, 24 or 32")
	scale := flag.Int("scale", 1, "integer window scale factor")
	delayMS := flag.Int("delay-ms", 0, "delay before connecting, in milliseconds")
	width := flag.Int("width", 1280, "preferred desktop width")
	height := flag.Int("height", 720, "preferred desktop height")
	keymapFile := flag.String("keymap", "", "YAML keymap overlay file")
	noResize := flag.Bool("no-resize", false, "disable ExtendedDesktopSize resize negotiation")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	vncbridge.SetLogLevel(*logLevel)

	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad address %q: %v\n", *addr, err)
		os.Exit(1)
	}

	if *password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Password (empty for none): ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err == nil {
			*password = string(raw)
		}
	}

	display, err := vncbridge.NewEbitenHost()
	if err != nil {
		fmt.Fprintf(os.Stderr, "display: %v\n", err)
		os.Exit(1)
	}
	display.SetScale(*scale)

	session := vncbridge.NewSession(display)
	session.SetParam("ip", host)
	session.SetParam("port", port)
	session.SetParam("password", *password)
	session.SetParam("delay_ms", strconv.Itoa(*delayMS))
	if *noResize {
		session.SetParam("disabled_encodings_mask", "1")
	}
	session.SetClientInfo(&vncbridge.ClientInfo{
		Width:  *width,
		Height: *height,
	})
	if *keymapFile != "" {
		if err := session.Keymap().LoadOverlay(*keymapFile); err != nil {
			fmt.Fprintf(os.Stderr, "keymap: %v\n", err)
			os.Exit(1)
		}
	}

	if err := session.Start(*width, *height, *bpp); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	if err := session.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	if name := session.ServerName(); name != "" {
		display.SetTitle("VNCBridge - " + name)
	}
	display.AttachSession(session)

	err = display.Run()
	session.Exit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		os.Exit(1)
	}
}
