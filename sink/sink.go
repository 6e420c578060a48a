// Package sink implements the DiffSink contract (spec §4.7): the streaming
// boundary between the diff engine and whatever durably records its
// output, plus the deterministic JSONL writer that is the reference
// implementation of that contract.
package sink

import "github.com/sqldef/gridiff/diffop"

// SinkError reports a failure to begin, emit, or finish a sink. It wraps
// the underlying I/O error, if any.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	if e.Err == nil {
		return "sink: " + e.Op
	}
	return "sink: " + e.Op + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error { return e.Err }

// Sink is implemented by every diff output backend. Begin must be called
// exactly once before any Emit; Finish must be called exactly once and
// invalidates further Emit calls.
type Sink interface {
	Begin(strings []string) error
	Emit(op diffop.Op) error
	Finish() error
}
