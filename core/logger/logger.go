package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) color() string {
	switch l {
	case DEBUG:
		return colorGray
	case INFO:
		return colorBlue
	case WARN:
		return colorYellow
	case ERROR:
		return colorRed
	case FATAL:
		return colorPurple
	default:
		return colorWhite
	}
}

// teeWriter fans a log line out to every attached writer. Used when a
// --logfile is attached next to the terminal writer.
type teeWriter struct {
	writers []io.Writer
}

func (tw *teeWriter) Write(p []byte) (int, error) {
	for _, w := range tw.writers {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

type leveledLogger struct {
	mu      sync.RWMutex
	verbose bool
	colors  bool
	out     map[LogLevel]*log.Logger
	raw     map[LogLevel]io.Writer
}

var std *leveledLogger

func init() {
	std = &leveledLogger{
		colors: true,
		out:    make(map[LogLevel]*log.Logger),
		raw:    make(map[LogLevel]io.Writer),
	}
	for level := DEBUG; level <= FATAL; level++ {
		std.raw[level] = os.Stdout
		std.out[level] = log.New(os.Stdout, "", 0)
	}
}

// SetVerbose enables DEBUG output. All other levels are always emitted.
func SetVerbose(verbose bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.verbose = verbose
}

func IsVerbose() bool {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.verbose
}

// SetColors toggles ANSI color codes, for piping output to files or CI logs.
func SetColors(enabled bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.colors = enabled
}

// SetWriter replaces the destination for one level.
func SetWriter(level LogLevel, w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.raw[level] = w
	std.out[level] = log.New(w, "", 0)
}

// SetWriterForAll replaces the destination for every level.
func SetWriterForAll(w io.Writer) {
	for level := DEBUG; level <= FATAL; level++ {
		SetWriter(level, w)
	}
}

// AddWriter attaches an extra destination to every level, keeping the
// existing ones. Used to mirror output into a logfile.
func AddWriter(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	for level := DEBUG; level <= FATAL; level++ {
		current := std.raw[level]
		if tw, ok := current.(*teeWriter); ok {
			tw.writers = append(tw.writers, w)
			continue
		}
		tw := &teeWriter{writers: []io.Writer{current, w}}
		std.raw[level] = tw
		std.out[level] = log.New(tw, "", 0)
	}
}

// SendErrorsToStderr routes ERROR and FATAL to stderr so stdout stays
// parseable when pkgtree output is piped.
func SendErrorsToStderr() {
	SetWriter(ERROR, os.Stderr)
	SetWriter(FATAL, os.Stderr)
}

func (ll *leveledLogger) format(level LogLevel, message string, colors bool) string {
	ts := time.Now().Format("06-01-02 15:04:05")
	if !colors {
		return fmt.Sprintf("[%s] %-5s %s", ts, level.String(), message)
	}
	return fmt.Sprintf(
		"%s[%s]%s %s%-5s%s %s",
		colorGray, ts, colorReset,
		level.color(), level.String(), colorReset,
		message,
	)
}

func (ll *leveledLogger) log(level LogLevel, format string, args ...interface{}) {
	ll.mu.RLock()
	if level == DEBUG && !ll.verbose {
		ll.mu.RUnlock()
		return
	}
	out := ll.out[level]
	colors := ll.colors
	ll.mu.RUnlock()

	out.Println(ll.format(level, fmt.Sprintf(format, args...), colors))

	if level == FATAL {
		os.Exit(1)
	}
}

func Debug(format string, args ...interface{}) {
	std.log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	std.log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	std.log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	std.log(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	std.log(FATAL, format, args...)
}

// At returns the log function for a level, for callers that pick the level
// at runtime (e.g. tree printing at INFO or DEBUG).
func At(level LogLevel) func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		std.log(level, format, args...)
	}
}
