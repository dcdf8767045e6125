// logging.go - Package logger for VNCBridge

/*
VNCBridge - RFB client bridge for remote desktop session managers
https://github.com/urnest/vncbridge
License: GPLv3 or later
*/

package vncbridge

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "vnc",
})

// SetLogLevel adjusts the package log level ("debug", "info", "warn", "error").
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level", "level", level)
		return
	}
	logger.SetLevel(lvl)
}
