package logger

import "strings"

// Level is the severity of a log message. A logger drops every message
// below its configured level.
type Level uint32

// Severity levels, from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelTags = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

var levelNames = map[string]Level{
	"trace":    LevelTrace,
	"trc":      LevelTrace,
	"debug":    LevelDebug,
	"dbg":      LevelDebug,
	"info":     LevelInfo,
	"inf":      LevelInfo,
	"warn":     LevelWarn,
	"wrn":      LevelWarn,
	"error":    LevelError,
	"err":      LevelError,
	"critical": LevelCritical,
	"crt":      LevelCritical,
	"off":      LevelOff,
}

// LevelFromString parses a level name, accepting both the full name and
// the three-letter tag. An unknown name yields LevelInfo and false.
func LevelFromString(s string) (l Level, ok bool) {
	level, ok := levelNames[strings.ToLower(s)]
	if !ok {
		return LevelInfo, false
	}
	return level, true
}

// String returns the three-letter tag printed in log messages.
func (l Level) String() string {
	if tag, ok := levelTags[l]; ok {
		return tag
	}
	return "OFF"
}
