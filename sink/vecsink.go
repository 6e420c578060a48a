package sink

import "github.com/sqldef/gridiff/diffop"

// VecSink collects every op in memory, for the non-streaming DiffReport
// entry point. It is the "buffered" strategy spec §4.7 names as the
// simplest legal header strategy: the string table is only known once
// Begin has already captured it, since the caller interns strings during
// the diff itself.
type VecSink struct {
	strings []string
	ops     []diffop.Op
	began   bool
	done    bool
}

func NewVecSink() *VecSink {
	return &VecSink{}
}

func (s *VecSink) Begin(strings []string) error {
	if s.began {
		return &SinkError{Op: "begin called twice"}
	}
	s.began = true
	s.strings = strings
	return nil
}

func (s *VecSink) Emit(op diffop.Op) error {
	if !s.began || s.done {
		return &SinkError{Op: "emit before begin or after finish"}
	}
	s.ops = append(s.ops, op)
	return nil
}

func (s *VecSink) Finish() error {
	if s.done {
		return &SinkError{Op: "finish called twice"}
	}
	s.done = true
	return nil
}

// Ops returns every op collected so far. Valid after Finish.
func (s *VecSink) Ops() []diffop.Op { return s.ops }

// Strings returns the string table passed to Begin.
func (s *VecSink) Strings() []string { return s.strings }
