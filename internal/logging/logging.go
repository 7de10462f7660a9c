// Package logging builds the charmbracelet logger shared by the commands.
//
// MIPSCAN_LOG_LEVEL selects debug, info, warn or error (default info).
// MIPSCAN_LOG_PREFIX overrides the "mipscan" prefix. MIPSCAN_LOG_TO_FILE=1
// writes to a timestamped file in the working directory instead of stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Environment variables read by NewLogger.
const (
	EnvLevel  = "MIPSCAN_LOG_LEVEL"
	EnvPrefix = "MIPSCAN_LOG_PREFIX"
	EnvToFile = "MIPSCAN_LOG_TO_FILE"
)

// LoggerCloser is a logger whose output may need closing.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it is closeable.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	level, err := log.ParseLevel(os.Getenv(EnvLevel))
	if err != nil {
		level = log.InfoLevel
	}
	lg.SetLevel(level)

	prefix := os.Getenv(EnvPrefix)
	if prefix == "" {
		prefix = "mipscan"
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a logger configured from the environment.
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv(EnvToFile) == "1" {
		name := fmt.Sprintf("mipscan-%s.log", time.Now().Format("20060102-150405"))
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output)
}

// IsDebug reports whether the environment asks for debug logging.
func IsDebug() bool {
	return os.Getenv(EnvLevel) == "debug"
}
