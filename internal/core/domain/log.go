package domain

// LogLevel is the severity of a diagnostic log entry.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry is one diagnostic event. Entries are never mutated once buffered.
type LogEntry struct {
	Timestamp string   `json:"timestamp"` // ISO-8601, millisecond precision, UTC
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}
