package log

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Only the first line of the stack is needed, "goroutine 123 [running]:".
	minStackBufSize = 32
	// Minimum expected stack trace length for valid goroutine info.
	minStackTraceLen = 12
	// Number of characters to skip: "goroutine " (10 chars).
	goroutinePrefixLen = 10
	consoleTimeFormat  = "15:04:05"
)

var (
	Logger        zerolog.Logger
	goroutinePool sync.Pool
)

func init() {
	goroutinePool.New = func() interface{} {
		return make([]byte, minStackBufSize)
	}
}

// goroutineID extracts the current goroutine ID from a short stack dump.
func goroutineID() string {
	bufInterface := goroutinePool.Get()
	buf, ok := bufInterface.([]byte)
	if !ok {
		return "unknown"
	}
	defer goroutinePool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen < minStackTraceLen {
		return "unknown"
	}

	idx := goroutinePrefixLen
	if idx >= stackLen {
		return "unknown"
	}

	start := idx
	for idx < stackLen && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}

	if idx > start {
		return string(buf[start:idx])
	}
	return "unknown"
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
			e.Str("goid", goroutineID())
		}))
}

func init() {
	Logger = newLogger(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: consoleTimeFormat,
	}, zerolog.InfoLevel)

	log.Logger = Logger
}

// Info logs an info message with goroutine ID.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message with goroutine ID.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message with goroutine ID.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message with goroutine ID.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message with goroutine ID and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

// SetLevel switches the logger to the named level ("debug", "info", "warn", ...).
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	Logger = Logger.Level(level)
	log.Logger = Logger
	return nil
}

// SetOutput redirects log output to out as uncolored console lines, keeping
// the current level. The terminal UI owns stderr while running, so it points
// the logger at a file.
func SetOutput(out io.Writer) {
	Logger = newLogger(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: consoleTimeFormat,
		NoColor:    true,
	}, Logger.GetLevel())
	log.Logger = Logger
}
