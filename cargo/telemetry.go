package cargo

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// EventType categorizes telemetry events.
type EventType string

const (
	EventMetadataFetch EventType = "metadata_fetch"
	EventMetadataError EventType = "metadata_error"
	EventDispatchStart EventType = "dispatch_start"
	EventDispatchExit  EventType = "dispatch_exit"
)

// Event captures one structured observation.
type Event struct {
	Type      EventType      `json:"type"`
	Command   string         `json:"command,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Telemetry receives events. Failed metadata lookups are reported here
// instead of being returned to menu callers.
type Telemetry interface {
	Emit(event Event)
}

// NopTelemetry drops every event.
type NopTelemetry struct{}

// Emit does nothing.
func (NopTelemetry) Emit(Event) {}

// MultiplexTelemetry broadcasts events to multiple sinks.
type MultiplexTelemetry struct {
	Sinks []Telemetry
}

// Emit forwards the event to all registered sinks.
func (m MultiplexTelemetry) Emit(event Event) {
	for _, s := range m.Sinks {
		if s != nil {
			s.Emit(event)
		}
	}
}

// LoggerTelemetry emits events via the standard logger.
type LoggerTelemetry struct {
	Logger *log.Logger
}

// Emit logs the event.
func (t LoggerTelemetry) Emit(event Event) {
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[%s] cmd=%q meta=%v msg=%s\n", event.Type, event.Command, event.Metadata, event.Message)
}

// JSONFileTelemetry writes events as newline-delimited JSON to a file.
type JSONFileTelemetry struct {
	path string
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewJSONFileTelemetry opens (or creates) the event file in append mode.
func NewJSONFileTelemetry(path string) (*JSONFileTelemetry, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileTelemetry{
		path: path,
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes the JSON record.
func (j *JSONFileTelemetry) Emit(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc != nil {
		_ = j.enc.Encode(event)
	}
}

// Close releases the file handle.
func (j *JSONFileTelemetry) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	j.enc = nil
	return err
}

// RecordingTelemetry keeps events in memory. Tests and the TUI status line
// read them back.
type RecordingTelemetry struct {
	mu     sync.Mutex
	events []Event
}

// Emit stores the event.
func (r *RecordingTelemetry) Emit(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a snapshot of everything recorded so far.
func (r *RecordingTelemetry) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
