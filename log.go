package qiskit_runtime_go

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevelEnv selects the verbosity of the default logger: ERROR, WARNING, INFO or DEBUG
const LogLevelEnv = "QISKIT_IBM_RUNTIME_LOG_LEVEL"

var defaultLogger = logrus.New()

func init() {
	// Set up logger
	defaultLogger.SetOutput(os.Stderr)
	defaultLogger.SetLevel(ParseLogLevel(os.Getenv(LogLevelEnv)))
}

// ParseLogLevel converts the platform's level names into a logrus level.
// Unknown or empty names only let errors through.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARNING", "WARN":
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}
