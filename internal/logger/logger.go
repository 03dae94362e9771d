package logger

import (
	"fmt"
	"sync/atomic"
)

// Logger is a subsystem logger bound to a Backend.
type Logger struct {
	lvl uint32
	tag string
	b   *Backend
}

func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.lvl))
}

func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.lvl, uint32(level))
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if level < l.Level() || level >= LevelOff {
		return
	}
	l.b.write(level, l.tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Tracef(format string, args ...interface{}) { l.logf(LevelTrace, format, args...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

func (l *Logger) Infof(format string, args ...interface{}) { l.logf(LevelInfo, format, args...) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(LevelWarn, format, args...) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }

func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.logf(LevelCritical, format, args...)
}
