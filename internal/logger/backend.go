package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const (
	defaultThresholdKB = 10 * 1000 // 10 MB logs by default.
	defaultMaxRolls    = 3         // keep 3 last logs by default.

	timestampFormat = "2006-01-02 15:04:05.000"
)

type logWriter struct {
	io.WriteCloser
	level Level
}

// Backend is a logging backend. Subsystem loggers created from the backend
// write to every added writer whose level admits the message. Writes are
// serialized, so lines from different subsystems never interleave.
type Backend struct {
	mu      sync.Mutex
	writers []logWriter
	closed  bool
	now     func() time.Time
}

// NewBackend creates a new logger backend with no writers.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// AddLogWriter adds w as a destination for messages at logLevel and above.
func (b *Backend) AddLogWriter(w io.WriteCloser, logLevel Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("the logger backend is closed")
	}
	b.writers = append(b.writers, logWriter{WriteCloser: w, level: logLevel})
	return nil
}

// AddLogFile adds a file which the log will write into on a certain
// log level with the default log rotation settings. It'll create the file if it doesn't exist.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogFileWithCustomRotator adds a file which the log will write into on a certain
// log level, with the specified log rotation settings.
// It'll create the file if it doesn't exist.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	// if the logDir is empty then `logFile` is in the cwd and there's no need to create any directory.
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return errors.Wrap(err, "failed to create log directory")
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrap(err, "failed to create file rotator")
	}
	return b.AddLogWriter(r, logLevel)
}

// Close closes every writer. Later writes are dropped.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, w := range b.writers {
		_ = w.Close()
	}
	b.writers = nil
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. A tag describes the subsystem and is included in all log
// messages. The logger uses the info verbosity level by default.
func (b *Backend) Logger(subsystemTag string) *Logger {
	l := &Logger{tag: subsystemTag, b: b}
	l.SetLevel(LevelInfo)
	return l
}

func (b *Backend) write(level Level, tag, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || len(b.writers) == 0 {
		return
	}
	line := fmt.Sprintf("%s [%s] %s: %s\n", b.now().Format(timestampFormat), level, tag, msg)
	for _, w := range b.writers {
		if level >= w.level {
			_, _ = io.WriteString(w, line)
		}
	}
}
