package types

import "github.com/m-mizutani/goerr/v2"

// LogType classifies an activity log entry
type LogType string

const (
	LogTypeInfo    LogType = "info"
	LogTypeSuccess LogType = "success"
	LogTypeWarning LogType = "warning"
	LogTypeError   LogType = "error"
	LogTypeDebug   LogType = "debug"
)

// AllLogTypes returns all valid log types
func AllLogTypes() []LogType {
	return []LogType{
		LogTypeInfo,
		LogTypeSuccess,
		LogTypeWarning,
		LogTypeError,
		LogTypeDebug,
	}
}

// IsValid checks if the log type is valid
func (t LogType) IsValid() bool {
	switch t {
	case LogTypeInfo,
		LogTypeSuccess,
		LogTypeWarning,
		LogTypeError,
		LogTypeDebug:
		return true
	default:
		return false
	}
}

func (t LogType) String() string {
	return string(t)
}

// ParseLogType parses a string into a LogType
func ParseLogType(s string) (LogType, error) {
	t := LogType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid log type", goerr.V("log_type", s))
	}
	return t, nil
}
