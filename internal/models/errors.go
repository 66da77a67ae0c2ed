package models

import (
	"fmt"
	"time"
)

// FetchError marks a single failed URL fetch. Isolated per URL: it never
// fails or delays the rest of the batch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError marks malformed document bytes. Fatal to that document only.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("decode %s: invalid encoding", e.Name)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GenerationError marks a model call that returned empty or unusable output
// where content was required. Fatal to the turn.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("generation failed at %s: empty output", e.Stage)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ClassificationError marks unrecognized router output. Recovered locally by
// defaulting to the ungrounded branch; recorded in the debug sink, never
// surfaced to the user.
type ClassificationError struct {
	Raw string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unrecognized next action %q", e.Raw)
}

// IndexError marks a failed persistent-store operation. Fatal to the
// retrieval branch: the pipeline falls back to ungrounded generation.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// TimeoutError marks a stage exceeding its budget. Per-URL timeouts are
// isolated and non-fatal; model-call timeouts are fatal to the turn.
type TimeoutError struct {
	Stage  string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s exceeded %s budget", e.Stage, e.Budget)
}
