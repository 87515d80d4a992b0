package colors

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

var structuredConsole atomic.Bool

func init() {
	structuredConsole.Store(true)
}

// StructuredLogLevel represents log level for structured logs.
type StructuredLogLevel string

const (
	LevelDebug StructuredLogLevel = "debug"
	LevelInfo  StructuredLogLevel = "info"
	LevelWarn  StructuredLogLevel = "warn"
	LevelError StructuredLogLevel = "error"
)

// StructuredLogEntry represents a structured log entry.
type StructuredLogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     StructuredLogLevel     `json:"level"`
	Component string                 `json:"component"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// DisableStructuredConsole stops structured entries from reaching stderr.
// The interactive browser calls this so JSON lines do not corrupt the screen;
// entries are still sent to the file logger.
func DisableStructuredConsole() {
	structuredConsole.Store(false)
}

// EnableStructuredConsole re-enables structured entries on stderr.
func EnableStructuredConsole() {
	structuredConsole.Store(true)
}

// StructuredLog records an entry in the file logger and, in debug mode,
// prints it to stderr as one JSON line.
func StructuredLog(level StructuredLogLevel, component, action, status string, err error, id string, fields map[string]interface{}) {
	if l := currentLogger(); l != nil {
		args := make([]any, 0, 8+2*len(fields))
		args = append(args, "component", component, "action", action, "status", status)
		if id != "" {
			args = append(args, "id", id)
		}
		if err != nil {
			args = append(args, "error", err.Error())
		}
		for k, v := range fields {
			args = append(args, k, v)
		}
		msg := component + "." + action
		switch level {
		case LevelDebug:
			l.Debug(msg, args...)
		case LevelWarn:
			l.Warn(msg, args...)
		case LevelError:
			l.Error(msg, args...)
		default:
			l.Info(msg, args...)
		}
	}

	if !debugEnabled || !structuredConsole.Load() {
		return
	}
	entry := StructuredLogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: component,
		Action:    action,
		Status:    status,
		ID:        id,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		write(true, "failed to marshal structured log: %v\n", marshalErr)
		return
	}
	write(true, "%s\n", data)
}

// StructuredDebug logs a structured debug entry.
func StructuredDebug(component, action, status string, err error, id string, fields map[string]interface{}) {
	StructuredLog(LevelDebug, component, action, status, err, id, fields)
}

// StructuredInfo logs a structured info entry.
func StructuredInfo(component, action, status string, err error, id string, fields map[string]interface{}) {
	StructuredLog(LevelInfo, component, action, status, err, id, fields)
}

// StructuredWarn logs a structured warning entry.
func StructuredWarn(component, action, status string, err error, id string, fields map[string]interface{}) {
	StructuredLog(LevelWarn, component, action, status, err, id, fields)
}

// StructuredError logs a structured error entry.
func StructuredError(component, action, status string, err error, id string, fields map[string]interface{}) {
	StructuredLog(LevelError, component, action, status, err, id, fields)
}

// Fields is a shorthand for building structured field maps.
func Fields(kv ...any) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
