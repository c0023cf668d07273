// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration on Stop.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-15 v0.2.0: Entries carry Duration directly

package log

import (
	"time"
)

// Timer measures the duration of one operation
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		fields:    make(Fields),
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the elapsed time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Stop logs the elapsed time. Later calls return zero and log nothing.
func (t *Timer) Stop() time.Duration {
	return t.finish(nil)
}

// StopWithError logs the elapsed time together with err at error level
func (t *Timer) StopWithError(err error) time.Duration {
	return t.finish(err)
}

func (t *Timer) finish(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.logger == nil {
		return elapsed
	}

	level, msg := t.level, t.operation+" completed"
	if err != nil {
		level, msg = LevelError, t.operation+" failed"
	}
	if !level.ShouldLog(t.logger.level) {
		return elapsed
	}

	entry := NewEntry(level, msg)
	entry.Logger = t.logger.name
	entry.RequestID = t.logger.requestID
	entry.Error = err
	entry.Duration = elapsed
	entry.Fields = t.logger.fields.Merge(t.fields)
	entry.Fields["operation"] = t.operation
	t.logger.write(entry)
	return elapsed
}
