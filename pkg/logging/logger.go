package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

const (
	// fileTimeLayout is the timestamp embedded in log file names.
	fileTimeLayout = "20060102_150405"

	// entryTimeLayout is the timestamp at the start of every log line.
	entryTimeLayout = "2006-01-02 15:04:05"
)

// Logger writes every entry to two sinks: a styled console sink and a plain
// UTF-8 file sink. Each sink has its own threshold.
//
// Entries in the file look like:
//
//	2024-05-01 10:11:12 - automation - INFO - message
type Logger struct {
	name string

	mu           sync.Mutex
	consoleLevel Level
	fileLevel    Level
	console      *charmlog.Logger
	file         *os.File
	fileLog      *log.Logger
	logPath      string
	closeOnce    *sync.Once
}

// Options configures a provisioned logger.
type Options struct {
	// ConsoleLevel is the minimum level written to the console.
	ConsoleLevel Level

	// FileLevel is the minimum level written to the log file.
	FileLevel Level

	// Dir is the directory for the log file. Defaults to the working directory.
	Dir string

	// Console overrides the console writer (default: os.Stderr).
	Console io.Writer

	// Now overrides the clock used for the file name.
	Now func() time.Time
}

// DefaultOptions returns INFO on the console and DEBUG in the file.
func DefaultOptions(dir string) Options {
	return Options{
		ConsoleLevel: LevelInfo,
		FileLevel:    LevelDebug,
		Dir:          dir,
	}
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Logger)
)

// Provision returns the logger registered under name, configured with opts.
//
// Calling Provision again with the same name reconfigures the same Logger: the
// previous file is closed and both sinks are replaced, so a name never holds
// more than one console and one file handler.
func Provision(name string, opts Options) (*Logger, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	l, ok := registry[name]
	if !ok {
		l = &Logger{name: name}
	}

	if err := l.configure(opts); err != nil {
		return nil, err
	}

	registry[name] = l
	return l, nil
}

// Lookup returns an already provisioned logger.
func Lookup(name string) (*Logger, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	l, ok := registry[name]
	return l, ok
}

// configure swaps in fresh sinks, closing whatever file the logger held.
func (l *Logger) configure(opts Options) error {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = wd
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	logPath := filepath.Join(dir, FileName(now()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	console := newConsole(l.name, opts.ConsoleLevel, opts.Console)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
	}

	l.consoleLevel = opts.ConsoleLevel
	l.fileLevel = opts.FileLevel
	l.console = console
	l.file = file
	l.fileLog = log.New(file, "", 0)
	l.logPath = logPath
	l.closeOnce = &sync.Once{}
	return nil
}

func newConsole(name string, level Level, w io.Writer) *charmlog.Logger {
	if w == nil {
		w = os.Stderr
	}
	console := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level.charm(),
		Prefix:          name,
		ReportTimestamp: true,
		TimeFormat:      entryTimeLayout,
	})
	console.SetStyles(consoleStyles())
	return console
}

// ConsoleOnly returns an unregistered logger with no file sink, for use
// before the log directory exists. w defaults to os.Stderr.
func ConsoleOnly(name string, level Level, w io.Writer) *Logger {
	return &Logger{
		name:         name,
		consoleLevel: level,
		fileLevel:    level,
		console:      newConsole(name, level, w),
		closeOnce:    &sync.Once{},
	}
}

// FileName returns the log file name for a provisioning at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("automation_log_%s.log", t.Format(fileTimeLayout))
}

// formatLogEntry renders one file line.
func (l *Logger) formatLogEntry(ts time.Time, level Level, message string) string {
	return fmt.Sprintf("%s - %s - %s - %s", ts.Format(entryTimeLayout), l.name, level, message)
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.effectiveLevel() {
		return
	}

	message := fmt.Sprintf(format, v...)
	if level >= l.consoleLevel && l.console != nil {
		l.console.Log(level.charm(), message)
	}
	if level >= l.fileLevel && l.fileLog != nil {
		l.fileLog.Println(l.formatLogEntry(time.Now(), level, message))
	}
}

func (l *Logger) effectiveLevel() Level {
	return minLevel(l.consoleLevel, l.fileLevel)
}

// Level returns the effective level, the more verbose of the two thresholds.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.effectiveLevel()
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarning, format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, format, v...)
}

// Criticalf logs a critical-level message. It never exits the process.
func (l *Logger) Criticalf(format string, v ...interface{}) {
	l.write(LevelCritical, format, v...)
}

// Name returns the logger name.
func (l *Logger) Name() string {
	return l.name
}

// LogPath returns the path to the current log file
func (l *Logger) LogPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logPath
}

// Handlers reports how many console and file sinks are attached.
func (l *Logger) Handlers() (console, file int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		console = 1
	}
	if l.file != nil {
		file = 1
	}
	return console, file
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
			l.file = nil
			l.fileLog = nil
		}
	})
	return err
}
