// Package log is the signing service's structured logger. It follows the
// geth-family convention the rest of this tree was raised on: a thin,
// leveled wrapper around the standard library's structured logger that
// colorizes output when attached to a terminal and falls back to plain
// key=value text otherwise.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the logger type used throughout the service: a thin wrapper
// around a *slog.Logger.
type Logger struct {
	s *slog.Logger
}

var root = New(os.Stderr)

// New builds a Logger writing to w, colorized automatically if w is a
// terminal file descriptor.
func New(w io.Writer) *Logger {
	var out io.Writer = w
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if useColor {
		out = colorable.NewColorable(w.(*os.File))
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Logger{s: slog.New(h)}
}

// SetRoot replaces the process-wide root logger, e.g. to raise verbosity
// from a CLI flag.
func SetRoot(l *Logger) { root = l }

// Root returns the process-wide logger.
func Root() *Logger { return root }

func (l *Logger) With(args ...any) *Logger { return &Logger{s: l.s.With(args...)} }

func (l *Logger) Debug(msg string, args ...any) { l.s.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.s.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.s.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.s.Error(msg, args...) }

// Crit logs at a level above error and terminates the process; reserved for
// unrecoverable startup failures (bad flags, unreachable DB at boot).
func (l *Logger) Crit(msg string, args ...any) {
	l.s.Log(context.Background(), slog.LevelError+4, msg, args...)
	os.Exit(1)
}

func Debug(msg string, args ...any) { root.Debug(msg, args...) }
func Info(msg string, args ...any)  { root.Info(msg, args...) }
func Warn(msg string, args ...any)  { root.Warn(msg, args...) }
func Error(msg string, args ...any) { root.Error(msg, args...) }
func Crit(msg string, args ...any)  { root.Crit(msg, args...) }

// New returns a child logger carrying ctx fields, mirroring the teacher's
// New(ctx ...interface{}) constructor signature.
func (l *Logger) New(args ...any) *Logger { return l.With(args...) }
