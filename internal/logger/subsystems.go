package logger

import (
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the process-wide backend that subsystem loggers write to.
var BackendLog = NewBackend()

var (
	subsystemsMu sync.Mutex
	subsystems   = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for tag, creating it on first use.
func RegisterSubSystem(tag string) *Logger {
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	if l, ok := subsystems[tag]; ok {
		return l
	}
	l := BackendLog.Logger(tag)
	subsystems[tag] = l
	return l
}

// SupportedSubsystems returns the sorted tags of every registered subsystem.
func SupportedSubsystems() []string {
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	tags := make([]string, 0, len(subsystems))
	for tag := range subsystems {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// SetLogLevels sets the level of every registered subsystem.
func SetLogLevels(level Level) {
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	for _, l := range subsystems {
		l.SetLevel(level)
	}
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }

// InitLog routes BackendLog to stderr and, when logFile is set, to a rotated
// log file, and applies levelName to every subsystem.
func InitLog(levelName, logFile string) error {
	level, ok := LevelFromString(levelName)
	if !ok {
		return errors.Errorf("invalid log level %q", levelName)
	}
	if err := BackendLog.AddLogWriter(nopCloser{os.Stderr}, level); err != nil {
		return err
	}
	if logFile != "" {
		if err := BackendLog.AddLogFile(logFile, level); err != nil {
			return err
		}
	}
	SetLogLevels(level)
	return nil
}
