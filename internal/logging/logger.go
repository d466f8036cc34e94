// Package logging wraps zerolog for the CLI.
//
// Two kinds of loggers exist: the root logger carrying operator-facing
// command output on stdout, and component loggers putting tagged
// diagnostics on stderr. Batch transfers draw their progress bars on
// stderr, which is why the root logger stays on stdout.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const consoleTimeFormat = "15:04:05"

// Logger is a leveled console logger bound to one output stream.
type Logger struct {
	zlog zerolog.Logger
}

func console(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// NewLogger returns a stderr logger whose lines carry the component name.
func NewLogger(component string) *Logger {
	zl := console(os.Stderr)
	if component != "" {
		zl = zl.With().Str("component", component).Logger()
	}
	return &Logger{zlog: zl}
}

// NewDefaultCLILogger returns the root logger used for command output.
func NewDefaultCLILogger() *Logger {
	return &Logger{zlog: console(os.Stdout)}
}

// Event accessors, for call sites that attach structured fields.
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zlog.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zlog.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Printf-style helpers. Debugf output only shows with --verbose.
func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }

// SetGlobalLevel adjusts the level for every zerolog logger in the process,
// including loggers created before the call.
func SetGlobalLevel(level zerolog.Level) { zerolog.SetGlobalLevel(level) }

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Packages that log through rs/zerolog/log directly share this writer.
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: consoleTimeFormat,
	})
}
