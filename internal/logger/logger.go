// Package logger builds the zerolog loggers used by commands and components
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the logger
type Options struct {
	Level     string // trace, debug, info, warn, error, disabled
	Format    string // console or json
	Component string
	Writer    io.Writer // defaults to stderr so logs never mix with command output
}

var setupOnce sync.Once

// New returns a logger for opt. Console format writes human-readable lines.
func New(opt Options) zerolog.Logger {
	setupOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
	})

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}
	return ctx.Logger()
}

// Named returns a child logger with a sub field. The component set by New
// is kept.
func Named(l zerolog.Logger, sub string) zerolog.Logger {
	if sub == "" {
		return l
	}
	return l.With().Str("sub", sub).Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names select warn.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}
