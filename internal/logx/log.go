// Package logx holds the shared zerolog logger. The bridge's stdout is
// the browser's native-messaging channel, so all logging goes to stderr.
package logx

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the shared logger used throughout the project.
var Log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	SetLevel(os.Getenv("TABCTL_LOG"))
}

// SetLevel applies a named level ("debug", "info", "warn", "error");
// unknown or empty names fall back to info.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
