package logger

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// backendLog is the logging backend used to create all subsystem loggers.
var backendLog = NewBackend()

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]*Logger{}

// SubsystemTags is an enum-like struct of all the subsystem tags used by the
// daemon. A logger is created lazily for each the first time Get is called
// with its tag.
var SubsystemTags = struct {
	QUAD,
	BDAG,
	DBAC,
	TXMP,
	MINR,
	RPCS,
	CNFG,
	LVDB string
}{
	QUAD: "QUAD",
	BDAG: "BDAG",
	DBAC: "DBAC",
	TXMP: "TXMP",
	MINR: "MINR",
	RPCS: "RPCS",
	CNFG: "CNFG",
	LVDB: "LVDB",
}

// Get returns a logger of a specific subsystem.
// If the subsystem tag is invalid, an error is returned.
func Get(tag string) (*Logger, error) {
	if logger, ok := subsystemLoggers[tag]; ok {
		return logger, nil
	}

	if !isValidSubsystemTag(tag) {
		return nil, errors.Errorf("invalid subsystem tag %s", tag)
	}

	logger := backendLog.Logger(tag)
	subsystemLoggers[tag] = logger
	return logger, nil
}

func isValidSubsystemTag(tag string) bool {
	for _, supported := range supportedSubsystems() {
		if tag == supported {
			return true
		}
	}
	return false
}

func supportedSubsystems() []string {
	return []string{
		SubsystemTags.QUAD,
		SubsystemTags.BDAG,
		SubsystemTags.DBAC,
		SubsystemTags.TXMP,
		SubsystemTags.MINR,
		SubsystemTags.RPCS,
		SubsystemTags.CNFG,
		SubsystemTags.LVDB,
	}
}

// SupportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func SupportedSubsystems() []string {
	subsystems := supportedSubsystems()
	sort.Strings(subsystems)
	return subsystems
}

// InitLogRotators initializes the log file rotators to write logs to logFile
// and create roll files in the same directory. It must be called before the
// package-global log rotator variables are used.
func InitLogRotators(logFile string, errLogFile string) error {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator", logFile)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator", errLogFile)
	}
	err = backendLog.AddLogWriter(os.Stdout, LevelInfo)
	if err != nil {
		return errors.Wrap(err, "error adding stdout to the logger")
	}
	err = backendLog.Run()
	if err != nil {
		return errors.Wrap(err, "error starting the logger")
	}
	return nil
}

// Close shuts the logging backend down, flushing any queued writes.
func Close() {
	backendLog.Close()
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored. Uninitialized subsystems are dynamically created as
// needed.
func SetLogLevel(subsystemID string, logLevel string) {
	level, _ := LevelFromString(logLevel)
	logger, err := Get(subsystemID)
	if err != nil {
		return
	}
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level. It also dynamically creates the subsystem loggers as needed, so it
// can be used to initialize the logging system.
func SetLogLevels(logLevel string) {
	for _, subsystemID := range supportedSubsystems() {
		SetLogLevel(subsystemID, logLevel)
	}
}

// ParseAndSetLogLevels attempts to parse the specified debug level and sets
// the levels accordingly. The debug level is either a single level applied to
// all subsystems, or a comma-separated list of subsystem=level pairs. An
// error is returned if anything is invalid.
func ParseAndSetLogLevels(logLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(logLevel, ",") && !strings.Contains(logLevel, "=") {
		if _, ok := LevelFromString(logLevel); !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevels(logLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(logLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return errors.Errorf("the specified debug level contains an "+
				"invalid subsystem/level pair [%s]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsystemID, levelString := fields[0], fields[1]

		if !isValidSubsystemTag(subsystemID) {
			return errors.Errorf("the specified subsystem [%s] is invalid -- "+
				"supported subsystems %s", subsystemID, SupportedSubsystems())
		}
		if _, ok := LevelFromString(levelString); !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", levelString)
		}
		SetLogLevel(subsystemID, levelString)
	}
	return nil
}
