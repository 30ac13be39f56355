package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TimeFormat is the timestamp layout at the start of every console and log
// file line.
const TimeFormat = "2006-01-02 15:04:05"

// Init initializes the global logger. Every event is written to stdout and,
// when logFile is non-empty, appended to logFile.
// level controls the log level: debug, info, warn, error (default: info).
// ENHANCE_LOG_LEVEL takes effect when level is empty.
func Init(level, logFile string) {
	if level == "" {
		level = os.Getenv("ENHANCE_LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(ParseLevel(level))

	log.Logger = zerolog.New(newWriter(os.Stdout, logFile)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newWriter(console io.Writer, logFile string) io.Writer {
	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: TimeFormat}
	if logFile == "" {
		return consoleWriter
	}
	fileWriter := zerolog.ConsoleWriter{Out: &AppendFile{Path: logFile}, TimeFormat: TimeFormat, NoColor: true}
	return zerolog.MultiLevelWriter(consoleWriter, fileWriter)
}

// AppendFile is an io.Writer that opens Path, appends, syncs and closes on
// every Write. No handle is held between lines, so a crash loses at most the
// line being written.
//
// Write never fails: a log file problem is reported on stderr and the line
// is dropped from the file, leaving the console copy intact.
type AppendFile struct {
	Path string
}

func (a *AppendFile) Write(p []byte) (int, error) {
	if err := a.append(p); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write to log file: %v\n", err)
	}
	return len(p), nil
}

func (a *AppendFile) append(p []byte) error {
	f, err := os.OpenFile(a.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(p); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
