package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// LogEntry is a single line in the session event log. Exactly one of the
// event fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunPipeline       *RunPipeline       `json:"run_pipeline,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	ChangeDirectory   *ChangeDirectory   `json:"change_directory,omitempty"`
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	setOn(le *LogEntry)
}

// RunPipeline is recorded after a pipeline finishes.
type RunPipeline struct {
	Stages   [][]string `json:"stages"`
	Statuses []int      `json:"statuses"`
	Status   int        `json:"status"`
}

func (e *RunPipeline) setOn(le *LogEntry) { le.RunPipeline = e }

// UnknownCommand is recorded when no resolver recognized a program name.
type UnknownCommand struct {
	Command []string `json:"command"`
}

func (e *UnknownCommand) setOn(le *LogEntry) { le.UnknownCommand = e }

// InvalidInvocation is recorded when a builtin rejects its arguments.
type InvalidInvocation struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

func (e *InvalidInvocation) setOn(le *LogEntry) { le.InvalidInvocation = e }

// ChangeDirectory is recorded when the working directory changes.
type ChangeDirectory struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e *ChangeDirectory) setOn(le *LogEntry) { le.ChangeDirectory = e }

// EventRecorder stores session events.
type EventRecorder interface {
	Record(event LogType) error
}

// NopEventRecorder discards all events.
type NopEventRecorder struct{}

var _ EventRecorder = (*NopEventRecorder)(nil)

// Record implements EventRecorder.
func (*NopEventRecorder) Record(LogType) error {
	return nil
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures session events.
type Logger struct {
	Record LogRecorder
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. Writes are serialized so concurrent pipeline
// stages can share one recorder.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) recordLogType(sessionID string, event LogType) error {
	le := &LogEntry{}
	le.TimestampMicros = time.Now().UnixMicro()
	le.SessionID = sessionID
	event.setOn(le)

	return l.Record(le)
}

// NewSession creates a logger with a random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ EventRecorder = (*SessionLogger)(nil)

// Record implements EventRecorder.
func (l *SessionLogger) Record(event LogType) error {
	return l.recordLogType(l.sessionID, event)
}
