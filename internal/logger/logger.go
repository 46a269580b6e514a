// Package logger provides the process-wide log sinks used across the
// workflow engine and its supporting packages. It intentionally stays on
// the standard library's log.Logger rather than a structured logging
// library: the style throughout this codebase is short, line-oriented
// Printf-ish logging, not structured key-value events.
package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info    = log.New(os.Stdout, "INFO  ", log.LstdFlags)
	Warning = log.New(os.Stdout, "WARN  ", log.LstdFlags)
	Error   = log.New(os.Stderr, "ERROR ", log.LstdFlags)
	Debug   = log.New(io.Discard, "DEBUG ", log.LstdFlags)
)

// EnableDebug redirects Debug output to stdout. Debug logging is
// discarded by default to keep normal runs quiet.
func EnableDebug() {
	Debug.SetOutput(os.Stdout)
}

// SetFileOutput mirrors Info/Warning/Error output to the given writer in
// addition to their defaults. Debug output is left unchanged.
func SetFileOutput(w io.Writer) {
	Info.SetOutput(io.MultiWriter(os.Stdout, w))
	Warning.SetOutput(io.MultiWriter(os.Stdout, w))
	Error.SetOutput(io.MultiWriter(os.Stderr, w))
}

func LogInfo(args ...interface{}) {
	Info.Println(args...)
}

func LogWarning(args ...interface{}) {
	Warning.Println(args...)
}

func LogError(args ...interface{}) {
	Error.Println(args...)
}

func LogDebug(args ...interface{}) {
	Debug.Println(args...)
}
