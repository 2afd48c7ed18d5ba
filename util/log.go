package util

import (
	"strings"

	"github.com/hauke96/sigolo/v2"
)

// ApplyLogLevel configures sigolo for the given verbosity. Info output uses
// the plain format so that progress messages stay readable.
func ApplyLogLevel(level string) {
	if strings.ToLower(level) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(level) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(level) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", level)
	}
}

// QuietLogging raises the log level so that only errors reach the terminal.
// The interactive UI owns the screen, regular progress output would garble
// its rendering.
func QuietLogging() {
	sigolo.SetDefaultLogLevel(sigolo.LOG_ERROR)
}
