// Package engine contains the fuzzing execution core: task
// composition, batching, budgeted rate-limited dispatch and the HTTP
// request executor.
package engine

import (
	"time"

	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/variants"
)

// Task is one fully specified probe awaiting dispatch. Tasks are
// immutable and consumed exactly once.
type Task struct {
	Target  string
	Variant variants.Variant
	Method  string
	Headers corpus.HeaderSet
}

// URL renders the full request URL for the task.
func (t Task) URL() string {
	return t.Variant.URL(t.Target)
}

// FailureKind classifies a failed probe.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureConnection
	FailureTimeout
	FailureInvalid
)

// String returns the token used in result lines.
func (k FailureKind) String() string {
	switch k {
	case FailureConnection:
		return "CONNECTION_ERROR"
	case FailureTimeout:
		return "TIMEOUT"
	case FailureInvalid:
		return "ERROR"
	default:
		return ""
	}
}

// Record is the outcome of one dispatched task. Either StatusCode and
// Size are set, or Failure holds the failure kind with Message as
// detail. Records are never mutated after creation.
type Record struct {
	Task       Task
	StatusCode int
	Size       int
	Latency    time.Duration
	Failure    FailureKind
	Message    string
	Curl       string
}

// Failed reports whether the probe ended in a network-level failure.
func (r Record) Failed() bool {
	return r.Failure != FailureNone
}
