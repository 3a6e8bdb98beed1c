// Package hooks records Claude Code hook invocations.
//
// The recorder is installed as a hook command. It appends every payload it
// receives to a daily JSONL file and passes stdin through to stdout
// unchanged, so it never alters the hook's behavior.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// EventEnv names the environment variable that carries the hook event type.
const EventEnv = "CLAUDE_HOOK_EVENT"

// Event types recorded when EventEnv is unset.
const (
	EventPreToolUse   = "PreToolUse"
	EventPostToolUse  = "PostToolUse"
	EventNotification = "Notification"
	EventUnknown      = "Unknown"
)

// Event is one line of a hooks file.
type Event struct {
	Timestamp  time.Time      `json:"timestamp"`
	EventType  string         `json:"event_type"`
	HookData   map[string]any `json:"hook_data"`
	ExitCode   int            `json:"exit_code"`
	StdoutData string         `json:"stdout_data,omitempty"`
	StderrData string         `json:"stderr_data,omitempty"`
}

// Recorder appends hook events under Dir.
type Recorder struct {
	Dir    string
	Now    func() time.Time
	Getenv func(string) string
}

// NewRecorder creates a Recorder writing to dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{Dir: dir, Now: time.Now, Getenv: os.Getenv}
}

// InferEventType guesses the event type from the payload's shape.
func InferEventType(data map[string]any) string {
	if _, ok := data["tool"]; ok {
		if _, ok := data["result"]; ok {
			return EventPostToolUse
		}
		return EventPreToolUse
	}
	if _, ok := data["notification"]; ok {
		return EventNotification
	}
	return EventUnknown
}

// FileName is the hooks file for the day of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("hooks_%s.jsonl", t.Format("2006-01-02"))
}

// Record reads a JSON object from in, appends it as an Event and copies
// the raw input to out. Nothing is written to out if recording fails.
func (r *Recorder) Record(in io.Reader, out io.Writer) (*Event, error) {
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse hook payload: %w", err)
	}

	eventType := r.Getenv(EventEnv)
	if eventType == "" {
		eventType = InferEventType(data)
	}

	now := r.Now()
	ev := &Event{
		Timestamp: now,
		EventType: eventType,
		HookData:  data,
	}

	if err := r.append(now, ev); err != nil {
		return nil, err
	}
	slog.Debug("hook event recorded", "event_type", eventType, "dir", r.Dir)

	if _, err := out.Write(raw); err != nil {
		return ev, fmt.Errorf("write stdout: %w", err)
	}
	return ev, nil
}

func (r *Recorder) append(now time.Time, ev *Event) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create hooks directory: %w", err)
	}

	path := filepath.Join(r.Dir, FileName(now))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open hooks file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(ev); err != nil {
		return fmt.Errorf("write hooks file: %w", err)
	}
	return nil
}
