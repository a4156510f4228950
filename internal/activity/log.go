// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package activity records what the agent did: an in-memory phase log
// flushed to JSON per run, and a SQLite ledger of runs and published
// listings that survives across runs.
package activity

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Pipeline phases in execution order.
const (
	PhaseScan     = "SCAN"
	PhaseIdentify = "IDENTIFY"
	PhaseHunt     = "HUNT"
	PhaseReason   = "REASON"
	PhasePackage  = "PACKAGE"
	PhasePublish  = "PUBLISH"
)

// Entry is one logged pipeline event.
type Entry struct {
	Time    time.Time `json:"time"`
	Phase   string    `json:"phase"`
	Message string    `json:"message"`
	Err     string    `json:"error,omitempty"`
}

// Log collects entries for one run. Safe for concurrent use; entries are
// echoed to the writer as they arrive.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

// NewLog returns a log echoing entries to w. Pass io.Discard to silence it.
func NewLog(w io.Writer) *Log {
	return &Log{echo: w}
}

// Record appends an event.
func (l *Log) Record(phase, format string, args ...any) {
	l.add(Entry{Time: time.Now().UTC(), Phase: phase, Message: fmt.Sprintf(format, args...)})
}

// RecordError appends a failed event.
func (l *Log) RecordError(phase string, err error) {
	l.add(Entry{Time: time.Now().UTC(), Phase: phase, Message: "failed", Err: err.Error()})
}

func (l *Log) add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if e.Err != "" {
		fmt.Fprintf(l.echo, "[%s] %s: %s\n", e.Phase, e.Message, e.Err)
	} else {
		fmt.Fprintf(l.echo, "[%s] %s\n", e.Phase, e.Message)
	}
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// SaveJSON writes the run log to path, creating parent directories.
func (l *Log) SaveJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	data, err := json.MarshalIndent(l.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding activity log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing activity log: %w", err)
	}
	return nil
}
