package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"
)

type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger. All messages are tagged with the subsystem
// and filtered by the subsystem's level before being handed to the backend.
type Logger struct {
	lvl       Level // atomic
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

// Trace formats a message using the default formats for its operands, and
// writes it at the trace level.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Tracef formats a message according to a format specifier and writes it at
// the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Debug formats a message using the default formats for its operands, and
// writes it at the debug level.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Debugf formats a message according to a format specifier and writes it at
// the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Info formats a message using the default formats for its operands, and
// writes it at the info level.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Infof formats a message according to a format specifier and writes it at
// the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Warn formats a message using the default formats for its operands, and
// writes it at the warn level.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Warnf formats a message according to a format specifier and writes it at
// the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Error formats a message using the default formats for its operands, and
// writes it at the error level.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Errorf formats a message according to a format specifier and writes it at
// the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Critical formats a message using the default formats for its operands, and
// writes it at the critical level.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}

// Criticalf formats a message according to a format specifier and writes it
// at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

func (l *Logger) printf(lvl Level, format string, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	bytebuf := formatHeader(l.b.flag, lvl, l.tag)
	buf := bytes.NewBuffer(bytebuf)
	_, _ = fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')
	l.write(lvl, buf.Bytes())
}

func (l *Logger) print(lvl Level, args ...interface{}) {
	if lvl < l.Level() {
		return
	}
	bytebuf := formatHeader(l.b.flag, lvl, l.tag)
	buf := bytes.NewBuffer(bytebuf)
	_, _ = fmt.Fprintln(buf, args...)
	l.write(lvl, buf.Bytes())
}

func (l *Logger) write(lvl Level, log []byte) {
	// Criticals are written synchronously to stderr as well, so they
	// survive a crash even if the backend goroutine never drains them.
	if lvl == LevelCritical {
		_, _ = os.Stderr.Write(log)
	}
	if !l.b.IsRunning() {
		_, _ = os.Stdout.Write(log)
		return
	}
	l.writeChan <- logEntry{log: log, level: lvl}
}

// formatHeader builds the standard "timestamp [LVL] TAG: " log line prefix,
// optionally including the callsite per the backend flags.
func formatHeader(flags uint32, lvl Level, tag string) []byte {
	t := time.Now()
	buf := make([]byte, 0, normalLogSize)
	buf = t.AppendFormat(buf, "2006-01-02 15:04:05.000")
	buf = append(buf, " ["...)
	buf = append(buf, lvl.String()...)
	buf = append(buf, "] "...)
	buf = append(buf, tag...)

	if flags&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line, ok := callsite(flags)
		if ok {
			buf = append(buf, ' ')
			buf = append(buf, file...)
			buf = append(buf, ':')
			buf = appendUint(buf, line)
		}
	}

	buf = append(buf, ": "...)
	return buf
}

const normalLogSize = 512

// callsite returns the file name and line of the callsite of the logging
// function.
func callsite(flag uint32) (string, int, bool) {
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		return "", 0, false
	}
	if flag&LogFlagShortFile != 0 {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if os.IsPathSeparator(file[i]) {
				short = file[i+1:]
				break
			}
		}
		file = short
	}
	return file, line, true
}

func appendUint(buf []byte, n int) []byte {
	if n < 0 {
		return buf
	}
	var scratch [20]byte
	i := len(scratch)
	for {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(buf, scratch[i:]...)
}
