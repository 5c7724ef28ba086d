// Package audit writes a JSON-lines trail of a validation run: one event per
// statement plus run and report events. Each line carries the run id so
// trails from several runs can share a file.
package audit

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/exploopio/statement-validator/pkg/errors"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"

	EventStatementClean      EventType = "statement_clean"
	EventStatementErrored    EventType = "statement_errored"
	EventStatementLoadFailed EventType = "statement_load_failed"

	EventReportSaved  EventType = "report_saved"
	EventReportFailed EventType = "report_failed"
)

// Severity represents log severity level.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARN"
	SeverityError   Severity = "ERROR"
)

// Finding is one failed check recorded in a statement event.
type Finding struct {
	Check      string `json:"check"`
	Subject    string `json:"subject"`
	Repository string `json:"repository,omitempty"`
	Status     int    `json:"status,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Event represents an audit event.
type Event struct {
	Timestamp       time.Time              `json:"timestamp"`
	Type            EventType              `json:"type"`
	Severity        Severity               `json:"severity"`
	RunID           string                 `json:"run_id,omitempty"`
	VulnerabilityID string                 `json:"vulnerability_id,omitempty"`
	Path            string                 `json:"path,omitempty"`
	Message         string                 `json:"message"`
	Error           string                 `json:"error,omitempty"`
	DurationMs      int64                  `json:"duration_ms,omitempty"`
	Findings        []Finding              `json:"findings,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
}

// Logger appends events to a writer, one JSON document per line.
// A nil *Logger discards everything, so callers need no nil checks.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	runID  string
	now    func() time.Time
}

// NewLogger creates a logger writing to w.
func NewLogger(w io.Writer, runID string) *Logger {
	return &Logger{w: w, runID: runID, now: time.Now}
}

// OpenFile creates a logger appending to path, creating parent directories.
func OpenFile(path, runID string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.E(errors.KindIO, "audit.OpenFile", "create log directory", err)
	}

	// 0640 = owner read/write, group read
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.E(errors.KindIO, "audit.OpenFile", "open log file", err)
	}
	l := NewLogger(file, runID)
	l.closer = file
	return l, nil
}

// Log records an audit event. Encoding or write failures are dropped: the
// audit trail never interrupts a run.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	event.Timestamp = l.now().UTC()
	if event.RunID == "" {
		event.RunID = l.runID
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(data)
}

// Info logs an informational event.
func (l *Logger) Info(eventType EventType, message string, details map[string]interface{}) {
	l.Log(Event{Type: eventType, Severity: SeverityInfo, Message: message, Details: details})
}

// Error logs an error event.
func (l *Logger) Error(eventType EventType, message string, err error, details map[string]interface{}) {
	event := Event{Type: eventType, Severity: SeverityError, Message: message, Details: details}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// Statement logs the outcome of one validated statement.
func (l *Logger) Statement(vulnerabilityID, path string, findings []Finding, duration time.Duration) {
	event := Event{
		Type:            EventStatementClean,
		Severity:        SeverityInfo,
		VulnerabilityID: vulnerabilityID,
		Path:            path,
		Message:         "statement is valid",
		DurationMs:      duration.Milliseconds(),
	}
	if len(findings) > 0 {
		event.Type = EventStatementErrored
		event.Severity = SeverityWarning
		event.Message = "statement has invalid references"
		event.Findings = findings
	}
	l.Log(event)
}

// LoadFailed logs a statement file that could not be read or parsed.
func (l *Logger) LoadFailed(path string, err error) {
	l.Log(Event{
		Type:     EventStatementLoadFailed,
		Severity: SeverityError,
		Path:     path,
		Message:  "statement could not be loaded",
		Error:    err.Error(),
	})
}

// Close closes the underlying file, if the logger opened one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
